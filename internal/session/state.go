// Package session holds the per-user presentation state shared by the
// front-ends: which plan, day, diet and portion count a user is looking at
// and which shopping items they checked off.
package session

import (
	"nutrision/internal/portion"
	"nutrision/internal/recipe"
)

// View is the screen a user is on.
type View string

const (
	ViewPlanner  View = "planner"
	ViewShopping View = "shopping"
	ViewRecipe   View = "recipe"
)

// State is the presentation state of one user.
type State struct {
	UserID   string            `json:"userId"`
	PlanID   int64             `json:"planId,omitempty"`
	View     View              `json:"view"`
	Day      int               `json:"day"`
	Diet     recipe.DietMode   `json:"diet"`
	Portions int               `json:"portions"`
	Checked  map[string]bool   `json:"checked,omitempty"`
	Selected *recipe.RecipeRef `json:"selected,omitempty"`
}

// NewState returns the state of a user who has not interacted yet.
func NewState(userID string, portions int) *State {
	if portions < 1 {
		portions = portion.Base
	}
	return &State{
		UserID:   userID,
		View:     ViewPlanner,
		Diet:     recipe.DietStandard,
		Portions: portions,
	}
}

// SetPortions sets the portion count, clamped to at least 1.
func (s *State) SetPortions(n int) {
	s.Portions = max(n, 1)
}

// AdjustPortions adds delta to the portion count, never going below 1.
func (s *State) AdjustPortions(delta int) {
	s.SetPortions(s.Portions + delta)
}

// ToggleDiet selects mode, or returns to standard when mode is already
// active.
func (s *State) ToggleDiet(mode recipe.DietMode) {
	if s.Diet == mode {
		s.Diet = recipe.DietStandard
		return
	}
	s.Diet = mode
}

// SelectDay switches the displayed day. It reports false when day is out of
// range.
func (s *State) SelectDay(day int) bool {
	if day < 0 || day >= recipe.DaysPerWeek {
		return false
	}
	s.Day = day
	return true
}

// ToggleChecked flips the checked flag of a shopping item and returns the
// new value.
func (s *State) ToggleChecked(key string) bool {
	if s.Checked[key] {
		delete(s.Checked, key)
		return false
	}
	if s.Checked == nil {
		s.Checked = make(map[string]bool)
	}
	s.Checked[key] = true
	return true
}

// IsChecked reports whether a shopping item was checked off.
func (s *State) IsChecked(key string) bool {
	return s.Checked[key]
}

// ResetChecked clears every checked item, e.g. when a new plan arrives.
func (s *State) ResetChecked() {
	s.Checked = nil
}

// Select remembers the recipe a user opened.
func (s *State) Select(ref recipe.RecipeRef) {
	s.Selected = &ref
	s.Day = ref.Day
	s.View = ViewRecipe
}

// UsePlan points the state at a new plan and forgets selections tied to
// the previous one.
func (s *State) UsePlan(planID int64) {
	if s.PlanID == planID {
		return
	}
	s.PlanID = planID
	s.Selected = nil
	s.ResetChecked()
}
