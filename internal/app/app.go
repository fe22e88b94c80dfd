package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nutrision/internal/clipper"
	"nutrision/internal/metrics"
	"nutrision/internal/planner"
	"nutrision/internal/recipe"
	"nutrision/internal/session"
	"nutrision/internal/shopping"
	"nutrision/internal/shared"
)

// ErrClipperUnavailable is returned when recipe import is not configured.
var ErrClipperUnavailable = errors.New("recipe import not configured")

// App holds the application's dependencies and the use cases shared by the
// HTTP API, the Telegram bot and the CLI.
type App struct {
	source        *planner.Source
	planRepo      *planner.PlanRepository
	sessionRepo   *session.Repository
	metricsStore  *metrics.Store
	collectors    *metrics.Collectors
	recipeClipper *clipper.Clipper
	logger        *zap.Logger
}

// NewApp creates and initializes a new App instance. recipeClipper may be
// nil.
func NewApp(
	source *planner.Source,
	planRepo *planner.PlanRepository,
	sessionRepo *session.Repository,
	metricsStore *metrics.Store,
	collectors *metrics.Collectors,
	recipeClipper *clipper.Clipper,
	logger *zap.Logger,
) *App {
	return &App{
		source:        source,
		planRepo:      planRepo,
		sessionRepo:   sessionRepo,
		metricsStore:  metricsStore,
		collectors:    collectors,
		recipeClipper: recipeClipper,
		logger:        logger,
	}
}

// AIEnabled reports whether plans can be generated by the model.
func (a *App) AIEnabled() bool {
	return a.source.AIEnabled()
}

// NewPlan produces a plan for the user, stores it and makes it the user's
// current plan. A failed generation still yields the static plan.
func (a *App) NewPlan(ctx context.Context, userID string, useAI bool) (*planner.StoredPlan, error) {
	res, err := a.source.Generate(ctx, useAI)
	if err != nil {
		return nil, fmt.Errorf("failed to produce plan: %w", err)
	}
	a.recordMeta(ctx, res.Meta)
	a.collectors.ObservePlan(string(res.Origin), res.Meta)

	id, err := a.planRepo.Save(ctx, userID, res.Origin, res.Plan)
	if err != nil {
		return nil, err
	}

	if _, err := a.sessionRepo.Update(ctx, userID, func(s *session.State) error {
		s.UsePlan(id)
		return nil
	}); err != nil {
		a.logger.Warn("failed to update session", zap.String("user_id", userID), zap.Error(err))
	}

	a.logger.Info("plan created",
		zap.String("user_id", userID),
		zap.Int64("plan_id", id),
		zap.String("origin", string(res.Origin)),
		zap.String("week_id", res.Plan.WeekID),
	)
	return a.planRepo.Get(ctx, id)
}

// CurrentPlan returns the user's latest plan, creating a static one for
// users who have none.
func (a *App) CurrentPlan(ctx context.Context, userID string) (*planner.StoredPlan, error) {
	stored, err := a.planRepo.Latest(ctx, userID)
	if errors.Is(err, planner.ErrNotFound) {
		return a.NewPlan(ctx, userID, false)
	}
	return stored, err
}

// Plan returns a stored plan by id.
func (a *App) Plan(ctx context.Context, id int64) (*planner.StoredPlan, error) {
	return a.planRepo.Get(ctx, id)
}

// History returns the user's most recent plans, newest first.
func (a *App) History(ctx context.Context, userID string, limit int) ([]planner.StoredPlan, error) {
	return a.planRepo.ListRecentByUserID(ctx, userID, limit)
}

// SetRecipeImage stores a custom image for the recipe at ref.
func (a *App) SetRecipeImage(ctx context.Context, planID int64, ref recipe.RecipeRef, image string) (*planner.StoredPlan, error) {
	return a.updatePlan(ctx, planID, func(p *recipe.WeeklyPlan) (*recipe.WeeklyPlan, error) {
		return p.WithImage(ref, image)
	})
}

// ReplaceRecipe serves r at ref, e.g. a recipe imported from the web.
func (a *App) ReplaceRecipe(ctx context.Context, planID int64, ref recipe.RecipeRef, r *recipe.Recipe) (*planner.StoredPlan, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return a.updatePlan(ctx, planID, func(p *recipe.WeeklyPlan) (*recipe.WeeklyPlan, error) {
		return p.WithRecipe(ref, r)
	})
}

func (a *App) updatePlan(ctx context.Context, planID int64, fn func(*recipe.WeeklyPlan) (*recipe.WeeklyPlan, error)) (*planner.StoredPlan, error) {
	stored, err := a.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	updated, err := fn(stored.Plan)
	if err != nil {
		return nil, err
	}
	if err := a.planRepo.Replace(ctx, planID, updated); err != nil {
		return nil, err
	}
	stored.Plan = updated
	return stored, nil
}

// ShoppingList aggregates the plan for diet and portions.
func (a *App) ShoppingList(plan *recipe.WeeklyPlan, diet recipe.DietMode, portions int) (*shopping.List, error) {
	list, err := shopping.Aggregate(plan, diet, portions)
	if err != nil {
		return nil, err
	}
	a.collectors.ObserveShopping(string(list.Diet))
	return list, nil
}

// ClipRecipe imports a recipe from a web page.
func (a *App) ClipRecipe(ctx context.Context, url string) (*clipper.Result, error) {
	if a.recipeClipper == nil {
		return nil, ErrClipperUnavailable
	}
	res, err := a.recipeClipper.ClipURL(ctx, url)
	if err != nil {
		return nil, err
	}
	a.recordMeta(ctx, res.Meta)
	a.collectors.ObserveTokens(res.Meta)
	return res, nil
}

// Session returns the presentation state of a user.
func (a *App) Session(ctx context.Context, userID string) (*session.State, error) {
	return a.sessionRepo.Load(ctx, userID)
}

// UpdateSession applies fn to the user's state and stores it.
func (a *App) UpdateSession(ctx context.Context, userID string, fn func(*session.State) error) (*session.State, error) {
	return a.sessionRepo.Update(ctx, userID, fn)
}

// ResetSession forgets the presentation state of a user.
func (a *App) ResetSession(ctx context.Context, userID string) error {
	return a.sessionRepo.Delete(ctx, userID)
}

// CleanupSessions removes sessions untouched for longer than maxAge.
func (a *App) CleanupSessions(ctx context.Context, maxAge time.Duration) (int64, error) {
	return a.sessionRepo.CleanupStale(ctx, maxAge)
}

// Usage returns token usage per day for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics removes execution metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, days)
}

func (a *App) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if err := a.metricsStore.RecordMeta(ctx, meta); err != nil {
		a.logger.Warn("failed to record metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}
