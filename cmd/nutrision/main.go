package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nutrision/internal/api"
	"nutrision/internal/app"
	"nutrision/internal/config"
	"nutrision/internal/recipe"
	"nutrision/internal/shopping"
	"nutrision/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, command string, args []string) error {
	if command == "token" {
		return runToken(cfg, args)
	}

	rt, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	switch command {
	case "plan":
		return runPlan(ctx, rt.App, cfg, args)
	case "shopping":
		return runShopping(ctx, rt.App, cfg, args)
	case "usage":
		return runUsage(ctx, rt.App, args)
	case "export":
		return runExport(ctx, rt.App, args)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)

		affected, err := rt.App.CleanupMetrics(ctx, *days)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
		return nil
	case "sessions-cleanup":
		cleanupCmd := flag.NewFlagSet("sessions-cleanup", flag.ExitOnError)
		maxAge := cleanupCmd.Duration("max-age", 90*24*time.Hour, "Remove sessions idle for longer than this")
		cleanupCmd.Parse(args)

		affected, err := rt.App.CleanupSessions(ctx, *maxAge)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d stale sessions.\n", affected)
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runPlan(ctx context.Context, a *app.App, cfg *config.Config, args []string) error {
	planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
	useAI := planCmd.Bool("ai", false, "Generate the plan with Gemini")
	dietName := planCmd.String("diet", string(recipe.DietStandard), "Diet mode: standard, vegetarian, vegan or world")
	portions := planCmd.Int("portions", cfg.DefaultPortions, "Number of portions")
	user := planCmd.String("user", "cli", "User the plan is stored for")
	planCmd.Parse(args)

	diet, err := recipe.ParseDietMode(*dietName)
	if err != nil {
		return err
	}

	stored, err := a.NewPlan(ctx, *user, *useAI)
	if err != nil {
		return err
	}
	fmt.Printf("Plan #%d (%s, week %s) · %s · %d portions\n\n", stored.ID, stored.Origin, stored.Plan.WeekID, diet.Label(), *portions)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, day := range stored.Plan.Days {
		for _, slot := range recipe.MealSlots {
			r := day.Meal(slot).For(diet)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d min\tCHF %.2f\n", day.Day, slot.Label(), r.Title, r.TotalTimeMinutes(), shopping.EstimatedPrice(r, *portions))
		}
	}
	return w.Flush()
}

func runShopping(ctx context.Context, a *app.App, cfg *config.Config, args []string) error {
	shoppingCmd := flag.NewFlagSet("shopping", flag.ExitOnError)
	dietName := shoppingCmd.String("diet", string(recipe.DietStandard), "Diet mode: standard, vegetarian, vegan or world")
	portions := shoppingCmd.Int("portions", cfg.DefaultPortions, "Number of portions")
	user := shoppingCmd.String("user", "cli", "User whose current plan is used")
	shoppingCmd.Parse(args)

	diet, err := recipe.ParseDietMode(*dietName)
	if err != nil {
		return err
	}
	stored, err := a.CurrentPlan(ctx, *user)
	if err != nil {
		return err
	}
	list, err := a.ShoppingList(stored.Plan, diet, *portions)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, category := range list.Categories {
		fmt.Fprintf(w, "\n%s\n", category)
		for _, ing := range list.ByCategory[category] {
			fmt.Fprintf(w, "  %s\t%s\n", ing.Item, ing.Quantity)
		}
	}

	fmt.Fprintf(w, "\nWeekly total (%d portions)\n", list.Portions)
	cheapest, ok := list.Totals.Cheapest()
	for _, total := range list.Totals.Ranked() {
		marker := " "
		if ok && total.Store == cheapest.Store {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\tCHF %.2f\t%d recipes priced\n", marker, total.Store, total.Amount, total.Priced)
	}
	return w.Flush()
}

func runUsage(ctx context.Context, a *app.App, args []string) error {
	usageCmd := flag.NewFlagSet("usage", flag.ExitOnError)
	days := usageCmd.Int("days", 7, "Number of days to report")
	usageCmd.Parse(args)

	usage, err := a.Usage(ctx, *days)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPROMPT\tCOMPLETION\tEXECUTIONS")
	for _, d := range usage {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
	}
	return w.Flush()
}

func runExport(ctx context.Context, a *app.App, args []string) error {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	dir := exportCmd.String("dir", "data/export", "Directory the plan snapshot is written to")
	user := exportCmd.String("user", "cli", "User whose current plan is exported")
	exportCmd.Parse(args)

	stored, err := a.CurrentPlan(ctx, *user)
	if err != nil {
		return err
	}
	archive, err := storage.NewPlanArchive(*dir)
	if err != nil {
		return err
	}
	if err := archive.RemoveStaleVersions(stored.Plan.WeekID); err != nil {
		return err
	}
	path, err := archive.Save(stored.Plan, stored.UpdatedAt)
	if err != nil {
		return err
	}
	fmt.Printf("Plan #%d exported to %s\n", stored.ID, path)
	return nil
}

func runToken(cfg *config.Config, args []string) error {
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	user := tokenCmd.String("user", "", "User id to issue the token for")
	ttl := tokenCmd.Duration("ttl", 30*24*time.Hour, "Token lifetime")
	tokenCmd.Parse(args)

	if *user == "" {
		return fmt.Errorf("-user is required")
	}
	auth, err := api.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}
	token, err := auth.IssueToken(*user, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsLocal() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printUsage() {
	fmt.Println("Usage: nutrision <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan               Create a new weekly plan and print it")
	fmt.Println("  shopping           Print the shopping list of the current plan")
	fmt.Println("  usage              Print LLM token usage per day")
	fmt.Println("  export             Write the current plan to a JSON snapshot")
	fmt.Println("  token              Issue an API token for a user")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("  sessions-cleanup   Remove idle user sessions")
}
