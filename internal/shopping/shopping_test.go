package shopping

import (
	"errors"
	"math"
	"testing"

	"nutrision/internal/portion"
	"nutrision/internal/recipe"
)

var weekDays = []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

func newRecipe(title string, prices map[recipe.Supermarket]float64, ingredients ...recipe.Ingredient) *recipe.Recipe {
	return &recipe.Recipe{
		Title:           title,
		Ingredients:     ingredients,
		PriceComparison: recipe.NewPriceComparison(prices),
	}
}

// uniformPlan serves the same recipes in every slot of the week.
func uniformPlan(standard, other *recipe.Recipe) *recipe.WeeklyPlan {
	plan := &recipe.WeeklyPlan{WeekID: "test"}
	variants := recipe.Variants{Standard: standard, Vegetarian: other, Vegan: other, World: other}
	for _, day := range weekDays {
		plan.Days = append(plan.Days, recipe.DailyPlan{
			Day:       day,
			Breakfast: variants,
			Lunch:     variants,
			Dinner:    variants,
		})
	}
	return plan
}

func steak() *recipe.Recipe {
	return newRecipe("Steak frites",
		map[recipe.Supermarket]float64{recipe.Migros: 8.00},
		recipe.Ingredient{Item: "Steak", Quantity: "300g", Category: "Viande"},
		recipe.Ingredient{Item: "Pommes de terre", Quantity: "2,5 kg", Category: "Légumes"},
	)
}

func tofu() *recipe.Recipe {
	return newRecipe("Tofu sauté", nil,
		recipe.Ingredient{Item: "Tofu", Quantity: "200g", Category: "Protéines"},
	)
}

func TestAggregate(t *testing.T) {
	t.Run("ScalesQuantitiesAndTotals", func(t *testing.T) {
		list, err := Aggregate(uniformPlan(steak(), tofu()), recipe.DietStandard, 4)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}

		meat := list.ByCategory["Viande"]
		if len(meat) != 21 {
			t.Fatalf("Expected 21 meat entries (no merging), got %d", len(meat))
		}
		for _, ing := range meat {
			if ing.Quantity != "600g" {
				t.Errorf("Expected 600g, got %q", ing.Quantity)
			}
		}
		if got := list.ByCategory["Légumes"][0].Quantity; got != "5 kg" {
			t.Errorf("Expected 5 kg, got %q", got)
		}

		migros, _ := list.Totals.Get(recipe.Migros)
		if math.Abs(migros.Amount-21*16.00) > 1e-9 {
			t.Errorf("Expected Migros total %.2f, got %.2f", 21*16.00, migros.Amount)
		}
		if migros.Priced != 21 {
			t.Errorf("Expected 21 priced recipes, got %d", migros.Priced)
		}
		coop, _ := list.Totals.Get(recipe.Coop)
		if coop.Amount != 0 || coop.Priced != 0 {
			t.Errorf("Expected no Coop data, got %+v", coop)
		}
		if len(list.Totals) != len(recipe.Supermarkets) {
			t.Errorf("Expected a total for every store, got %d", len(list.Totals))
		}
	})

	t.Run("CategoryOrderFollowsWeek", func(t *testing.T) {
		plan := uniformPlan(steak(), tofu())
		breakfast := newRecipe("Pain", nil, recipe.Ingredient{Item: "Pain", Quantity: "1 pc", Category: "Boulangerie"})
		plan.Days[0].Breakfast.Standard = breakfast

		list, err := Aggregate(plan, recipe.DietStandard, 2)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		want := []string{"Boulangerie", "Viande", "Légumes"}
		if len(list.Categories) != len(want) {
			t.Fatalf("Expected categories %v, got %v", want, list.Categories)
		}
		for i := range want {
			if list.Categories[i] != want[i] {
				t.Errorf("Expected categories %v, got %v", want, list.Categories)
			}
		}
		if list.ItemCount() != 1+20*2 {
			t.Errorf("Expected 41 items, got %d", list.ItemCount())
		}
	})

	t.Run("DietSelectsVariant", func(t *testing.T) {
		list, err := Aggregate(uniformPlan(steak(), tofu()), recipe.DietVegan, 3)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		if _, ok := list.ByCategory["Viande"]; ok {
			t.Error("Expected no meat in a vegan list")
		}
		if got := list.ByCategory["Protéines"][0].Quantity; got != "300g" {
			t.Errorf("Expected 300g, got %q", got)
		}
		if _, ok := list.Totals.Cheapest(); ok {
			t.Error("Expected no cheapest store without prices")
		}
	})

	t.Run("DoesNotMutatePlan", func(t *testing.T) {
		plan := uniformPlan(steak(), tofu())
		if _, err := Aggregate(plan, recipe.DietStandard, 10); err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		if q := plan.Days[3].Lunch.Standard.Ingredients[0].Quantity; q != "300g" {
			t.Errorf("Expected plan untouched, got %q", q)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		plan := uniformPlan(steak(), tofu())
		if _, err := Aggregate(plan, recipe.DietStandard, 0); !errors.Is(err, portion.ErrInvalidPortions) {
			t.Errorf("Expected ErrInvalidPortions, got %v", err)
		}
		if _, err := Aggregate(plan, "paleo", 2); !errors.Is(err, recipe.ErrUnknownDiet) {
			t.Errorf("Expected ErrUnknownDiet, got %v", err)
		}
		plan.Days = plan.Days[:5]
		if _, err := Aggregate(plan, recipe.DietStandard, 2); !errors.Is(err, recipe.ErrInvalidPlan) {
			t.Errorf("Expected ErrInvalidPlan, got %v", err)
		}
	})
}

func TestTotals(t *testing.T) {
	totals := Totals{
		{Store: recipe.Migros, Amount: 42.10},
		{Store: recipe.Coop, Amount: 44.00},
		{Store: recipe.Aldi, Amount: 0},
		{Store: recipe.Lidl, Amount: 29.50},
		{Store: recipe.Denner, Amount: 0},
		{Store: recipe.Aligro, Amount: 29.50},
	}

	cheapest, ok := totals.Cheapest()
	if !ok || cheapest.Store != recipe.Lidl {
		t.Errorf("Expected Lidl to be cheapest, got %+v (ok=%v)", cheapest, ok)
	}

	ranked := totals.Ranked()
	want := []recipe.Supermarket{recipe.Lidl, recipe.Aligro, recipe.Migros, recipe.Coop, recipe.Aldi, recipe.Denner}
	for i, store := range want {
		if ranked[i].Store != store {
			t.Fatalf("Expected ranking %v, got %+v", want, ranked)
		}
	}
	if totals[0].Store != recipe.Migros {
		t.Error("Expected Ranked to leave the receiver untouched")
	}

	if _, ok := newTotals().Cheapest(); ok {
		t.Error("Expected no cheapest store when every total is zero")
	}
}

func TestComparePrices(t *testing.T) {
	r := newRecipe("Lomo Saltado", map[recipe.Supermarket]float64{
		recipe.Migros: 13.50,
		recipe.Lidl:   8.80,
		recipe.Coop:   8.80,
		recipe.Aldi:   9.20,
	})

	cmp, err := ComparePrices(r, 3)
	if err != nil {
		t.Fatalf("ComparePrices failed: %v", err)
	}
	if len(cmp.Ranked) != 4 {
		t.Fatalf("Expected 4 prices, got %d", len(cmp.Ranked))
	}
	cheapest, _ := cmp.Cheapest()
	if cheapest.Store != recipe.Coop {
		t.Errorf("Expected Coop to win the tie with Lidl, got %s", cheapest.Store)
	}
	if math.Abs(cheapest.Price-13.20) > 1e-9 || math.Abs(cheapest.PerPerson-4.40) > 1e-9 {
		t.Errorf("Unexpected scaled price %+v", cheapest)
	}
	if last := cmp.Ranked[3]; last.Store != recipe.Migros {
		t.Errorf("Expected Migros last, got %s", last.Store)
	}

	if got := EstimatedPrice(r, 4); math.Abs(got-17.60) > 1e-9 {
		t.Errorf("Expected estimate 17.60, got %v", got)
	}
	if got := EstimatedPrice(tofu(), 4); got != 0 {
		t.Errorf("Expected 0 for an unpriced recipe, got %v", got)
	}
	if _, err := ComparePrices(r, -1); !errors.Is(err, portion.ErrInvalidPortions) {
		t.Errorf("Expected ErrInvalidPortions, got %v", err)
	}
}

func TestEntries(t *testing.T) {
	list, err := Aggregate(uniformPlan(steak(), tofu()), recipe.DietStandard, 2)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	entries := list.Entries()
	if len(entries) != list.ItemCount() {
		t.Fatalf("Expected %d entries, got %d", list.ItemCount(), len(entries))
	}
	if entries[0].Key != "Viande-Steak-0" || entries[1].Key != "Viande-Steak-1" {
		t.Errorf("Unexpected keys %q, %q", entries[0].Key, entries[1].Key)
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Key] {
			t.Fatalf("Duplicate key %q", e.Key)
		}
		seen[e.Key] = true
	}
}
