package recipe

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func testRecipe(title string) *Recipe {
	return &Recipe{
		Title: title,
		Ingredients: []Ingredient{
			{Item: "Filet de bœuf", Quantity: "300g", Category: "Viande"},
			{Item: "Tomates", Quantity: "3 pcs", Category: "Légumes"},
		},
		PrepTimeMinutes: 10,
		CookTimeMinutes: 20,
		Calories:        500,
		PriceComparison: NewPriceComparison(map[Supermarket]float64{Migros: 8, Lidl: 5.2}),
	}
}

func testVariants(prefix string) Variants {
	return Variants{
		Standard:   testRecipe(prefix + " standard"),
		Vegetarian: testRecipe(prefix + " vegetarian"),
		Vegan:      testRecipe(prefix + " vegan"),
		World:      testRecipe(prefix + " world"),
	}
}

func testPlan() *WeeklyPlan {
	days := []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}
	plan := &WeeklyPlan{WeekID: "week-1"}
	for _, d := range days {
		plan.Days = append(plan.Days, DailyPlan{
			Day:       d,
			Breakfast: testVariants(d + " breakfast"),
			Lunch:     testVariants(d + " lunch"),
			Dinner:    testVariants(d + " dinner"),
		})
	}
	return plan
}

func TestParseDietMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DietMode
		wantErr bool
	}{
		{in: "standard", want: DietStandard},
		{in: " Vegan ", want: DietVegan},
		{in: "WORLD", want: DietWorld},
		{in: "pescatarian", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDietMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownDiet) {
				t.Errorf("ParseDietMode(%q): expected ErrUnknownDiet, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDietMode(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDietMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPriceComparison(t *testing.T) {
	t.Run("AbsentIsNotZero", func(t *testing.T) {
		pc := NewPriceComparison(map[Supermarket]float64{Aldi: 0, Coop: 4.2})

		if price, ok := pc.Price(Aldi); !ok || price != 0 {
			t.Errorf("Expected Aldi present at 0, got %v (ok=%v)", price, ok)
		}
		if _, ok := pc.Price(Migros); ok {
			t.Error("Expected Migros to be absent")
		}
		if pc.Len() != 2 {
			t.Errorf("Expected 2 entries, got %d", pc.Len())
		}
	})

	t.Run("UnmarshalIgnoresUnknownStores", func(t *testing.T) {
		var pc PriceComparison
		if err := json.Unmarshal([]byte(`{"Migros": 8.5, "Manor": 12, "Denner": null}`), &pc); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if pc.Len() != 1 {
			t.Errorf("Expected only Migros, got %d entries", pc.Len())
		}
		if price, _ := pc.Price(Migros); price != 8.5 {
			t.Errorf("Expected Migros 8.5, got %v", price)
		}
	})

	t.Run("EachFollowsCanonicalOrder", func(t *testing.T) {
		pc := NewPriceComparison(map[Supermarket]float64{Aligro: 1, Migros: 2, Lidl: 3})
		var order []Supermarket
		pc.Each(func(store Supermarket, _ float64) {
			order = append(order, store)
		})
		want := []Supermarket{Migros, Lidl, Aligro}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("Expected order %v, got %v", want, order)
			}
		}
	})
}

func TestRecipeJSON(t *testing.T) {
	raw := `{
		"title": "Lomo Saltado",
		"ingredients": [{"item": "Filet de bœuf", "quantity": "300g", "category": "Viande"}],
		"prepTimeMinutes": 20,
		"cookTimeMinutes": 10,
		"calories": 680,
		"priceComparison": {"Migros": 13.5, "Lidl": 8.78},
		"isPremiumVideoAvailable": true
	}`

	var r Recipe
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Expected a valid recipe, got %v", err)
	}
	if r.TotalTimeMinutes() != 30 {
		t.Errorf("Expected 30 minutes total, got %d", r.TotalTimeMinutes())
	}
	if !strings.Contains(r.Image(), "Lomo+Saltado") {
		t.Errorf("Expected derived image to search for the title, got %s", r.Image())
	}

	r.ImageURL = "telegram:abc"
	if r.Image() != "telegram:abc" {
		t.Errorf("Expected custom image to win, got %s", r.Image())
	}
}

func TestWeeklyPlanValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := testPlan().Validate(); err != nil {
			t.Fatalf("Expected valid plan, got %v", err)
		}
	})

	t.Run("WrongDayCount", func(t *testing.T) {
		plan := testPlan()
		plan.Days = plan.Days[:6]
		if err := plan.Validate(); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("Expected ErrInvalidPlan, got %v", err)
		}
	})

	t.Run("MissingDietMode", func(t *testing.T) {
		plan := testPlan()
		plan.Days[3].Lunch.Vegan = nil
		if err := plan.Validate(); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("Expected ErrInvalidPlan, got %v", err)
		}
	})

	t.Run("MissingIngredientCategory", func(t *testing.T) {
		plan := testPlan()
		plan.Days[0].Dinner.World = &Recipe{
			Title:       "Ramen",
			Ingredients: []Ingredient{{Item: "Nouilles", Quantity: "200g"}},
		}
		if err := plan.Validate(); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("Expected ErrInvalidPlan, got %v", err)
		}
	})

	t.Run("NegativePrice", func(t *testing.T) {
		plan := testPlan()
		bad := *plan.Days[6].Breakfast.Standard
		bad.PriceComparison = NewPriceComparison(map[Supermarket]float64{Coop: -1})
		plan.Days[6].Breakfast.Standard = &bad
		if err := plan.Validate(); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("Expected ErrInvalidPlan, got %v", err)
		}
	})
}

func TestWithImage(t *testing.T) {
	plan := testPlan()
	ref := RecipeRef{Day: 2, Meal: Dinner, Diet: DietVegan}

	updated, err := plan.WithImage(ref, "telegram:photo-1")
	if err != nil {
		t.Fatalf("WithImage failed: %v", err)
	}

	got, _ := updated.Recipe(ref)
	if got.ImageURL != "telegram:photo-1" {
		t.Errorf("Expected updated image, got %q", got.ImageURL)
	}

	original, _ := plan.Recipe(ref)
	if original.ImageURL != "" {
		t.Errorf("Expected original plan untouched, got image %q", original.ImageURL)
	}

	other, _ := updated.Recipe(RecipeRef{Day: 2, Meal: Dinner, Diet: DietWorld})
	if other.ImageURL != "" {
		t.Errorf("Expected sibling recipe untouched, got %q", other.ImageURL)
	}

	if _, err := plan.WithImage(RecipeRef{Day: 7, Meal: Lunch, Diet: DietVegan}, "x"); !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("Expected ErrRecipeNotFound for day out of range, got %v", err)
	}
	if _, err := plan.WithImage(RecipeRef{Day: 0, Meal: "brunch", Diet: DietVegan}, "x"); !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("Expected ErrRecipeNotFound for unknown meal, got %v", err)
	}
}

func TestWithRecipe(t *testing.T) {
	plan := testPlan()
	ref := RecipeRef{Day: 0, Meal: Breakfast, Diet: DietStandard}
	replacement := testRecipe("Tarte aux pommes")

	updated, err := plan.WithRecipe(ref, replacement)
	if err != nil {
		t.Fatalf("WithRecipe failed: %v", err)
	}
	if got, _ := updated.Recipe(ref); got != replacement {
		t.Errorf("Expected the replacement, got %q", got.Title)
	}
	if got, _ := plan.Recipe(ref); got == replacement {
		t.Error("Expected the original plan untouched")
	}
	if err := updated.Validate(); err != nil {
		t.Errorf("Expected the updated plan to stay valid, got %v", err)
	}
	if _, err := plan.WithRecipe(ref, nil); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("Expected ErrInvalidPlan for a nil recipe, got %v", err)
	}
}
