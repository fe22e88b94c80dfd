package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDiet is returned when a diet mode is not one of DietModes.
var ErrUnknownDiet = errors.New("unknown diet mode")

// DietMode selects one of the four meal-plan variants.
type DietMode string

const (
	DietStandard   DietMode = "standard"
	DietVegetarian DietMode = "vegetarian"
	DietVegan      DietMode = "vegan"
	DietWorld      DietMode = "world"
)

// DietModes lists every supported diet mode.
var DietModes = []DietMode{DietStandard, DietVegetarian, DietVegan, DietWorld}

// ParseDietMode parses a diet mode name, case-insensitively.
func ParseDietMode(s string) (DietMode, error) {
	mode := DietMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DietModes {
		if mode == known {
			return mode, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDiet, s)
}

// Label returns the display name used by the front-ends.
func (d DietMode) Label() string {
	switch d {
	case DietVegetarian:
		return "Végétarien"
	case DietVegan:
		return "Végan"
	case DietWorld:
		return "Saveurs du Monde"
	default:
		return "Omnivore"
	}
}

// MealSlot is one of the three meals of a day.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
)

// MealSlots lists the meals of a day in serving order.
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner}

// ParseMealSlot parses a meal slot name, case-insensitively.
func ParseMealSlot(s string) (MealSlot, error) {
	slot := MealSlot(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MealSlots {
		if slot == known {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown meal slot: %q", s)
}

// Label returns the display name of the slot.
func (m MealSlot) Label() string {
	switch m {
	case Breakfast:
		return "Petit-déjeuner"
	case Lunch:
		return "Déjeuner"
	default:
		return "Dîner"
	}
}
