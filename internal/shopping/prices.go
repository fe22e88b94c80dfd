package shopping

import (
	"sort"

	"nutrision/internal/portion"
	"nutrision/internal/recipe"
)

// StorePrice is the price of a single recipe at one supermarket, scaled to
// a portion count.
type StorePrice struct {
	Store     recipe.Supermarket `json:"store"`
	Price     float64            `json:"price"`
	PerPerson float64            `json:"perPerson"`
}

// PriceComparison ranks a recipe's scaled prices.
type PriceComparison struct {
	Portions int          `json:"portions"`
	Ranked   []StorePrice `json:"ranked"`
}

// Cheapest returns the lowest scaled price, or false when the recipe has no
// price at all.
func (c PriceComparison) Cheapest() (StorePrice, bool) {
	if len(c.Ranked) == 0 {
		return StorePrice{}, false
	}
	return c.Ranked[0], true
}

// ComparePrices scales every known price of r to portions and ranks them
// from cheapest to most expensive, canonical order breaking ties.
func ComparePrices(r *recipe.Recipe, portions int) (PriceComparison, error) {
	if err := portion.Validate(portions); err != nil {
		return PriceComparison{}, err
	}

	cmp := PriceComparison{Portions: portions}
	r.PriceComparison.Each(func(store recipe.Supermarket, price float64) {
		cmp.Ranked = append(cmp.Ranked, StorePrice{
			Store:     store,
			Price:     portion.ScalePrice(price, portions),
			PerPerson: price / portion.Base,
		})
	})
	sort.SliceStable(cmp.Ranked, func(i, j int) bool {
		return cmp.Ranked[i].Price < cmp.Ranked[j].Price
	})
	return cmp, nil
}

// EstimatedPrice returns the cheapest price of r scaled to portions, or 0
// when r has no price.
func EstimatedPrice(r *recipe.Recipe, portions int) float64 {
	cmp, err := ComparePrices(r, portions)
	if err != nil {
		return 0
	}
	cheapest, ok := cmp.Cheapest()
	if !ok {
		return 0
	}
	return cheapest.Price
}

// sortByAmount stably orders items by ascending amount, pushing amounts at
// or below zero to the end.
func sortByAmount[T any](items []T, amount func(T) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := amount(items[i]), amount(items[j])
		if a <= 0 || b <= 0 {
			return a > 0 && b <= 0
		}
		return a < b
	})
}
