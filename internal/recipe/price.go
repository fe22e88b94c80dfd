package recipe

import (
	"encoding/json"
	"fmt"
)

// Supermarket identifies one of the supported supermarket chains.
type Supermarket string

const (
	Migros Supermarket = "Migros"
	Coop   Supermarket = "Coop"
	Aldi   Supermarket = "Aldi"
	Lidl   Supermarket = "Lidl"
	Denner Supermarket = "Denner"
	Aligro Supermarket = "Aligro"
)

// Supermarkets lists every chain in canonical order. Ties in price rankings
// are broken by this order.
var Supermarkets = [...]Supermarket{Migros, Coop, Aldi, Lidl, Denner, Aligro}

// Index returns the position of s in Supermarkets, or -1 if s is unknown.
func (s Supermarket) Index() int {
	for i, known := range Supermarkets {
		if known == s {
			return i
		}
	}
	return -1
}

// PriceComparison holds the estimated price of a recipe for 2 portions at
// each supermarket. A store without an entry is absent, which is not the same
// thing as a price of zero.
type PriceComparison struct {
	prices  [len(Supermarkets)]float64
	present [len(Supermarkets)]bool
}

// NewPriceComparison builds a comparison from a store→price map. Unknown
// stores are ignored.
func NewPriceComparison(prices map[Supermarket]float64) PriceComparison {
	var pc PriceComparison
	for store, price := range prices {
		pc.Set(store, price)
	}
	return pc
}

// Set records the price for store. It reports false for unknown stores.
func (pc *PriceComparison) Set(store Supermarket, price float64) bool {
	i := store.Index()
	if i < 0 {
		return false
	}
	pc.prices[i] = price
	pc.present[i] = true
	return true
}

// Price returns the price for store and whether the store has an entry.
func (pc PriceComparison) Price(store Supermarket) (float64, bool) {
	i := store.Index()
	if i < 0 || !pc.present[i] {
		return 0, false
	}
	return pc.prices[i], true
}

// Len returns the number of stores with a price entry.
func (pc PriceComparison) Len() int {
	n := 0
	for _, ok := range pc.present {
		if ok {
			n++
		}
	}
	return n
}

// Each calls fn for every present entry in canonical store order.
func (pc PriceComparison) Each(fn func(store Supermarket, price float64)) {
	for i, store := range Supermarkets {
		if pc.present[i] {
			fn(store, pc.prices[i])
		}
	}
}

// MarshalJSON encodes the comparison as an object keyed by store name.
func (pc PriceComparison) MarshalJSON() ([]byte, error) {
	out := make(map[Supermarket]float64, pc.Len())
	pc.Each(func(store Supermarket, price float64) {
		out[store] = price
	})
	return json.Marshal(out)
}

// UnmarshalJSON decodes an object keyed by store name. Keys that are not a
// known supermarket are dropped.
func (pc *PriceComparison) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode price comparison: %w", err)
	}

	*pc = PriceComparison{}
	for key, price := range raw {
		if price == nil {
			continue
		}
		pc.Set(Supermarket(key), *price)
	}
	return nil
}

func (pc PriceComparison) validate() error {
	var err error
	pc.Each(func(store Supermarket, price float64) {
		if err == nil && price < 0 {
			err = fmt.Errorf("negative price %.2f for %s", price, store)
		}
	})
	return err
}
