package planner

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"nutrision/internal/recipe"
)

//go:embed catalog/static_catalog.json
var staticCatalogJSON []byte

// catalogRecipe is a recipe defined once and referenced by id from the
// weekly schedule.
type catalogRecipe struct {
	ID string `json:"id"`
	recipe.Recipe
}

type catalogSlot struct {
	Standard   string `json:"standard"`
	Vegetarian string `json:"vegetarian"`
	Vegan      string `json:"vegan"`
	World      string `json:"world"`
}

type catalogDay struct {
	Day       string      `json:"day"`
	Breakfast catalogSlot `json:"breakfast"`
	Lunch     catalogSlot `json:"lunch"`
	Dinner    catalogSlot `json:"dinner"`
}

type catalog struct {
	Recipes []catalogRecipe `json:"recipes"`
	Week    []catalogDay    `json:"week"`
}

var loadStatic = sync.OnceValues(func() (*recipe.WeeklyPlan, error) {
	return parseCatalog(staticCatalogJSON)
})

// StaticPlan returns the bundled weekly plan. The catalog is parsed and
// validated once; callers share the returned snapshot and must not modify it.
func StaticPlan() (*recipe.WeeklyPlan, error) {
	return loadStatic()
}

func parseCatalog(data []byte) (*recipe.WeeklyPlan, error) {
	var c catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse static catalog: %w", err)
	}

	byID := make(map[string]*recipe.Recipe, len(c.Recipes))
	for i := range c.Recipes {
		r := &c.Recipes[i]
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id %q in static catalog", r.ID)
		}
		byID[r.ID] = &r.Recipe
	}

	resolve := func(slot catalogSlot) (recipe.Variants, error) {
		var v recipe.Variants
		for _, ref := range []struct {
			id  string
			dst **recipe.Recipe
		}{
			{slot.Standard, &v.Standard},
			{slot.Vegetarian, &v.Vegetarian},
			{slot.Vegan, &v.Vegan},
			{slot.World, &v.World},
		} {
			r, ok := byID[ref.id]
			if !ok {
				return v, fmt.Errorf("unknown recipe id %q in static catalog", ref.id)
			}
			*ref.dst = r
		}
		return v, nil
	}

	plan := &recipe.WeeklyPlan{WeekID: "static"}
	for _, day := range c.Week {
		d := recipe.DailyPlan{Day: day.Day}
		var err error
		if d.Breakfast, err = resolve(day.Breakfast); err != nil {
			return nil, err
		}
		if d.Lunch, err = resolve(day.Lunch); err != nil {
			return nil, err
		}
		if d.Dinner, err = resolve(day.Dinner); err != nil {
			return nil, err
		}
		plan.Days = append(plan.Days, d)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("static catalog: %w", err)
	}
	return plan, nil
}
