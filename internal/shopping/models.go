package shopping

import (
	"fmt"

	"nutrision/internal/recipe"
)

// List is the aggregated shopping list of one diet mode of a weekly plan,
// scaled to a portion count.
type List struct {
	Diet     recipe.DietMode `json:"diet"`
	Portions int             `json:"portions"`
	// Categories holds every category of ByCategory in first-seen order.
	Categories []string                       `json:"categories"`
	ByCategory map[string][]recipe.Ingredient `json:"byCategory"`
	Totals     Totals                         `json:"totals"`
}

// Entry is one line of a List together with its stable key.
type Entry struct {
	Key        string            `json:"key"`
	Category   string            `json:"category"`
	Ingredient recipe.Ingredient `json:"ingredient"`
}

// ItemKey returns the stable identifier of the index-th entry of category,
// used to remember which items were checked off. Keys may contain '/' and
// must be path-escaped when sent as a URL segment.
func ItemKey(category, item string, index int) string {
	return fmt.Sprintf("%s-%s-%d", category, item, index)
}

// ItemCount returns the number of entries across all categories.
func (l *List) ItemCount() int {
	n := 0
	for _, items := range l.ByCategory {
		n += len(items)
	}
	return n
}

// Entries flattens the list in category order, then ingredient order.
func (l *List) Entries() []Entry {
	entries := make([]Entry, 0, l.ItemCount())
	for _, category := range l.Categories {
		for i, ing := range l.ByCategory[category] {
			entries = append(entries, Entry{
				Key:        ItemKey(category, ing.Item, i),
				Category:   category,
				Ingredient: ing,
			})
		}
	}
	return entries
}

// StoreTotal is the weekly cost of a List at one supermarket. Priced counts
// the recipes that had a price for the store, so a store with no data can be
// told apart from one that costs nothing.
type StoreTotal struct {
	Store  recipe.Supermarket `json:"store"`
	Amount float64            `json:"amount"`
	Priced int                `json:"priced"`
}

// Totals holds one StoreTotal per supermarket in canonical order.
type Totals []StoreTotal

func newTotals() Totals {
	totals := make(Totals, len(recipe.Supermarkets))
	for i, store := range recipe.Supermarkets {
		totals[i] = StoreTotal{Store: store}
	}
	return totals
}

// Get returns the total for store.
func (t Totals) Get(store recipe.Supermarket) (StoreTotal, bool) {
	for _, total := range t {
		if total.Store == store {
			return total, true
		}
	}
	return StoreTotal{}, false
}

// Cheapest returns the store with the lowest positive amount. Ties go to the
// store that comes first in canonical order. It reports false when no store
// has a positive amount.
func (t Totals) Cheapest() (StoreTotal, bool) {
	var best StoreTotal
	found := false
	for _, total := range t {
		if total.Amount <= 0 {
			continue
		}
		if !found || total.Amount < best.Amount {
			best = total
			found = true
		}
	}
	return best, found
}

// Ranked returns a copy of the totals sorted by ascending amount, with
// stores at zero or below moved to the end. The sort is stable.
func (t Totals) Ranked() Totals {
	ranked := make(Totals, len(t))
	copy(ranked, t)
	sortByAmount(ranked, func(st StoreTotal) float64 { return st.Amount })
	return ranked
}
