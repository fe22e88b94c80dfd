// Package shopping turns a weekly plan into a categorized, portion-scaled
// shopping list with per-supermarket cost estimates.
package shopping

import (
	"fmt"

	"nutrision/internal/portion"
	"nutrision/internal/recipe"
)

// Aggregate builds the shopping list for diet at the given portion count.
// Ingredients are not merged: the same item used by two recipes appears
// twice. The plan is read only.
func Aggregate(plan *recipe.WeeklyPlan, diet recipe.DietMode, portions int) (*List, error) {
	if err := portion.Validate(portions); err != nil {
		return nil, err
	}
	mode, err := recipe.ParseDietMode(string(diet))
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}

	list := &List{
		Diet:       mode,
		Portions:   portions,
		ByCategory: make(map[string][]recipe.Ingredient),
		Totals:     newTotals(),
	}

	for _, day := range plan.Days {
		for _, slot := range recipe.MealSlots {
			r := day.Meal(slot).For(mode)
			list.addIngredients(r.Ingredients, portions)
			list.addPrices(r.PriceComparison, portions)
		}
	}

	return list, nil
}

func (l *List) addIngredients(ingredients []recipe.Ingredient, portions int) {
	for _, ing := range ingredients {
		if _, ok := l.ByCategory[ing.Category]; !ok {
			l.Categories = append(l.Categories, ing.Category)
		}
		l.ByCategory[ing.Category] = append(l.ByCategory[ing.Category], recipe.Ingredient{
			Item:     ing.Item,
			Quantity: portion.ScaleQuantity(ing.Quantity, portions),
			Category: ing.Category,
		})
	}
}

func (l *List) addPrices(pc recipe.PriceComparison, portions int) {
	for i, store := range recipe.Supermarkets {
		price, ok := pc.Price(store)
		if !ok {
			continue
		}
		l.Totals[i].Amount += portion.ScalePrice(price, portions)
		l.Totals[i].Priced++
	}
}
