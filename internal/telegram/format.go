package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutrision/internal/metrics"
	"nutrision/internal/portion"
	"nutrision/internal/recipe"
	"nutrision/internal/session"
	"nutrision/internal/shopping"
)

// itemsPerPage bounds the inline keyboard of a shopping list message.
const itemsPerPage = 20

const helpText = `🥗 <b>Nutrision</b>

/plan - menu du jour sélectionné
/new - nouveau menu (<code>/new ai</code> pour un menu généré)
/day 1-7 - choisir le jour
/diet standard|vegetarian|vegan|world - changer de régime
/portions N, + ou - - nombre de portions
/recipe breakfast|lunch|dinner - détail d'une recette
/shopping - liste de courses
/stores - comparatif des supermarchés
/clip URL - importer une recette à la place de la recette ouverte
/reset - décocher la liste de courses

Envoyez une photo après /recipe pour changer son image.`

func formatPrice(v float64) string {
	return "CHF " + strconv.FormatFloat(v, 'f', 2, 64)
}

func mealIcon(slot recipe.MealSlot) string {
	switch slot {
	case recipe.Breakfast:
		return "🍳"
	case recipe.Lunch:
		return "🥗"
	default:
		return "🍽"
	}
}

// formatDay renders the three meals of one day for a diet mode.
func formatDay(plan *recipe.WeeklyPlan, day int, diet recipe.DietMode, portions int) (string, error) {
	if day < 0 || day >= len(plan.Days) {
		return "", fmt.Errorf("%w: day %d", recipe.ErrRecipeNotFound, day+1)
	}
	dp := plan.Days[day]

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>%s</b> · %s · %d portions\n\n", html.EscapeString(dp.Day), diet.Label(), portions)

	var total float64
	for _, slot := range recipe.MealSlots {
		r := dp.Meal(slot).For(diet)
		if r == nil {
			continue
		}
		price := shopping.EstimatedPrice(r, portions)
		total += price
		fmt.Fprintf(&sb, "%s <b>%s</b>: %s\n", mealIcon(slot), slot.Label(), html.EscapeString(r.Title))
		fmt.Fprintf(&sb, "   ⏱ %d min · %d kcal · dès %s\n", r.TotalTimeMinutes(), r.Calories, formatPrice(price))
	}
	fmt.Fprintf(&sb, "\n💰 Total du jour: <b>%s</b>", formatPrice(total))
	return sb.String(), nil
}

// formatRecipe renders a recipe scaled to portions with its price ranking.
func formatRecipe(ref recipe.RecipeRef, r *recipe.Recipe, portions int) (string, error) {
	cmp, err := shopping.ComparePrices(r, portions)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b>\n", mealIcon(ref.Meal), html.EscapeString(r.Title))
	if r.Description != "" {
		fmt.Fprintf(&sb, "<i>%s</i>\n", html.EscapeString(r.Description))
	}
	fmt.Fprintf(&sb, "\n⏱ %d min (prép. %d, cuisson %d) · %d kcal/portion\n",
		r.TotalTimeMinutes(), r.PrepTimeMinutes, r.CookTimeMinutes, r.Calories)

	fmt.Fprintf(&sb, "\n🧾 <b>Ingrédients</b> (%d portions)\n", portions)
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "• %s %s\n", html.EscapeString(portion.ScaleQuantity(ing.Quantity, portions)), html.EscapeString(ing.Item))
	}

	if len(r.Instructions) > 0 {
		sb.WriteString("\n👩‍🍳 <b>Préparation</b>\n")
		for i, step := range r.Instructions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, html.EscapeString(step))
		}
	}

	if len(cmp.Ranked) > 0 {
		sb.WriteString("\n🛒 <b>Prix</b>\n")
		for i, sp := range cmp.Ranked {
			marker := "•"
			if i == 0 {
				marker = "🏆"
			}
			fmt.Fprintf(&sb, "%s %s: %s (%s/pers.)\n", marker, sp.Store, formatPrice(sp.Price), formatPrice(sp.PerPerson))
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// formatShopping renders one page of a shopping list together with the
// inline keyboard that toggles its items.
func formatShopping(list *shopping.List, state *session.State, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	entries := list.Entries()
	pages := max((len(entries)+itemsPerPage-1)/itemsPerPage, 1)
	page = min(max(page, 0), pages-1)

	checked := 0
	for _, e := range entries {
		if state.IsChecked(e.Key) {
			checked++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 <b>Liste de courses</b> · %s · %d portions\n", list.Diet.Label(), list.Portions)
	fmt.Fprintf(&sb, "%d/%d articles cochés", checked, len(entries))
	if cheapest, ok := list.Totals.Cheapest(); ok {
		fmt.Fprintf(&sb, "\n🏆 Moins cher: <b>%s</b> (%s)", cheapest.Store, formatPrice(cheapest.Amount))
	}
	if pages > 1 {
		fmt.Fprintf(&sb, "\nPage %d/%d", page+1, pages)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	start := page * itemsPerPage
	end := min(start+itemsPerPage, len(entries))
	for i := start; i < end; i++ {
		e := entries[i]
		box := "⬜"
		if state.IsChecked(e.Key) {
			box = "✅"
		}
		label := fmt.Sprintf("%s %s · %s", box, e.Ingredient.Item, e.Ingredient.Quantity)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("chk|%d|%d", page, i)),
		))
	}

	if pages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("pg|%d", page-1)))
		}
		if page < pages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("pg|%d", page+1)))
		}
		rows = append(rows, nav)
	}

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// formatTotals renders the weekly cost at every supermarket, cheapest
// first. Stores without any price come last.
func formatTotals(list *shopping.List) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏪 <b>Comparatif hebdomadaire</b> · %s · %d portions\n\n", list.Diet.Label(), list.Portions)

	cheapest, hasCheapest := list.Totals.Cheapest()
	for _, total := range list.Totals.Ranked() {
		switch {
		case total.Amount <= 0:
			fmt.Fprintf(&sb, "• %s: pas de prix\n", total.Store)
		case hasCheapest && total.Store == cheapest.Store:
			fmt.Fprintf(&sb, "🏆 <b>%s: %s</b>\n", total.Store, formatPrice(total.Amount))
		default:
			fmt.Fprintf(&sb, "• %s: %s (+%s)\n", total.Store, formatPrice(total.Amount), formatPrice(total.Amount-cheapest.Amount))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatUsage(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Usage &amp; Health Report</b>\n\n")

	sb.WriteString("🗓 <b>Recent LLM Activity</b>\n")
	if len(usage) == 0 {
		sb.WriteString("<i>No data yet</i>\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• <b>%s</b>: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 <b>System Health</b>\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s", health.DataDiskSize)
	return sb.String()
}
