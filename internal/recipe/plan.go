package recipe

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DaysPerWeek is the number of days in a weekly plan.
const DaysPerWeek = 7

var (
	// ErrInvalidPlan is returned when a plan violates the data model.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrRecipeNotFound is returned when a RecipeRef points outside the plan.
	ErrRecipeNotFound = errors.New("recipe not found")
)

var validate = validator.New()

// Variants holds one recipe per diet mode for a single meal slot.
type Variants struct {
	Standard   *Recipe `json:"standard" validate:"required"`
	Vegetarian *Recipe `json:"vegetarian" validate:"required"`
	Vegan      *Recipe `json:"vegan" validate:"required"`
	World      *Recipe `json:"world" validate:"required"`
}

// For returns the recipe for the given diet mode, or nil when the mode is
// unknown or the slot is missing (only possible on an unvalidated plan).
func (v Variants) For(mode DietMode) *Recipe {
	switch mode {
	case DietStandard:
		return v.Standard
	case DietVegetarian:
		return v.Vegetarian
	case DietVegan:
		return v.Vegan
	case DietWorld:
		return v.World
	}
	return nil
}

func (v Variants) with(mode DietMode, r *Recipe) Variants {
	switch mode {
	case DietStandard:
		v.Standard = r
	case DietVegetarian:
		v.Vegetarian = r
	case DietVegan:
		v.Vegan = r
	case DietWorld:
		v.World = r
	}
	return v
}

// DailyPlan is one calendar day of a weekly plan.
type DailyPlan struct {
	Day       string   `json:"day" validate:"required"`
	Breakfast Variants `json:"breakfast"`
	Lunch     Variants `json:"lunch"`
	Dinner    Variants `json:"dinner"`
}

// Meal returns the variants served at slot.
func (d DailyPlan) Meal(slot MealSlot) Variants {
	switch slot {
	case Breakfast:
		return d.Breakfast
	case Lunch:
		return d.Lunch
	default:
		return d.Dinner
	}
}

func (d DailyPlan) withMeal(slot MealSlot, v Variants) DailyPlan {
	switch slot {
	case Breakfast:
		d.Breakfast = v
	case Lunch:
		d.Lunch = v
	default:
		d.Dinner = v
	}
	return d
}

// WeeklyPlan is a Monday-first week of daily plans. Once built it is treated
// as an immutable snapshot; WithImage returns a modified copy.
type WeeklyPlan struct {
	WeekID string      `json:"weekId"`
	Days   []DailyPlan `json:"days" validate:"len=7,dive"`
}

// RecipeRef locates a recipe inside a plan.
type RecipeRef struct {
	Day  int      `json:"day"`
	Meal MealSlot `json:"meal"`
	Diet DietMode `json:"diet"`
}

func (ref RecipeRef) String() string {
	return fmt.Sprintf("day %d %s/%s", ref.Day+1, ref.Meal, ref.Diet)
}

// Validate rejects plans that do not define every diet mode in every slot
// of all seven days, or that carry malformed recipes.
func (p *WeeklyPlan) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if len(p.Days) != DaysPerWeek {
		return fmt.Errorf("%w: expected %d days, got %d", ErrInvalidPlan, DaysPerWeek, len(p.Days))
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	for i, day := range p.Days {
		for _, slot := range MealSlots {
			variants := day.Meal(slot)
			for _, mode := range DietModes {
				r := variants.For(mode)
				if r == nil {
					return fmt.Errorf("%w: %s %s has no %s recipe", ErrInvalidPlan, day.Day, slot, mode)
				}
				if err := r.PriceComparison.validate(); err != nil {
					return fmt.Errorf("%w: day %d %s/%s: %v", ErrInvalidPlan, i+1, slot, mode, err)
				}
			}
		}
	}
	return nil
}

// Recipe returns the recipe at ref.
func (p *WeeklyPlan) Recipe(ref RecipeRef) (*Recipe, error) {
	if ref.Day < 0 || ref.Day >= len(p.Days) {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, ref)
	}
	if _, err := ParseMealSlot(string(ref.Meal)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecipeNotFound, err)
	}
	r := p.Days[ref.Day].Meal(ref.Meal).For(ref.Diet)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, ref)
	}
	return r, nil
}

// WithImage returns a copy of the plan in which the recipe at ref carries
// the given image reference. The receiver and every other recipe are shared,
// not modified.
func (p *WeeklyPlan) WithImage(ref RecipeRef, image string) (*WeeklyPlan, error) {
	r, err := p.Recipe(ref)
	if err != nil {
		return nil, err
	}

	updated := *r
	updated.ImageURL = image
	return p.WithRecipe(ref, &updated)
}

// WithRecipe returns a copy of the plan with r served at ref.
func (p *WeeklyPlan) WithRecipe(ref RecipeRef, r *Recipe) (*WeeklyPlan, error) {
	if _, err := p.Recipe(ref); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: nil recipe for %s", ErrInvalidPlan, ref)
	}

	days := make([]DailyPlan, len(p.Days))
	copy(days, p.Days)
	day := days[ref.Day]
	days[ref.Day] = day.withMeal(ref.Meal, day.Meal(ref.Meal).with(ref.Diet, r))

	return &WeeklyPlan{WeekID: p.WeekID, Days: days}, nil
}
