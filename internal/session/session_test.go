package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"nutrision/internal/database"
	"nutrision/internal/recipe"
)

func TestState(t *testing.T) {
	t.Run("Portions", func(t *testing.T) {
		s := NewState("u", 0)
		if s.Portions != 2 {
			t.Fatalf("Expected default of 2 portions, got %d", s.Portions)
		}
		s.AdjustPortions(-5)
		if s.Portions != 1 {
			t.Errorf("Expected portions clamped to 1, got %d", s.Portions)
		}
		s.AdjustPortions(3)
		if s.Portions != 4 {
			t.Errorf("Expected 4 portions, got %d", s.Portions)
		}
		s.SetPortions(-1)
		if s.Portions != 1 {
			t.Errorf("Expected portions clamped to 1, got %d", s.Portions)
		}
	})

	t.Run("ToggleDiet", func(t *testing.T) {
		s := NewState("u", 2)
		s.ToggleDiet(recipe.DietVegan)
		if s.Diet != recipe.DietVegan {
			t.Fatalf("Expected vegan, got %s", s.Diet)
		}
		s.ToggleDiet(recipe.DietVegan)
		if s.Diet != recipe.DietStandard {
			t.Errorf("Expected toggling the active diet to return to standard, got %s", s.Diet)
		}
		s.ToggleDiet(recipe.DietWorld)
		s.ToggleDiet(recipe.DietVegetarian)
		if s.Diet != recipe.DietVegetarian {
			t.Errorf("Expected vegetarian, got %s", s.Diet)
		}
	})

	t.Run("SelectDay", func(t *testing.T) {
		s := NewState("u", 2)
		if !s.SelectDay(6) || s.Day != 6 {
			t.Errorf("Expected day 6, got %d", s.Day)
		}
		if s.SelectDay(7) || s.SelectDay(-1) {
			t.Error("Expected out-of-range days to be refused")
		}
		if s.Day != 6 {
			t.Errorf("Expected day unchanged, got %d", s.Day)
		}
	})

	t.Run("Checked", func(t *testing.T) {
		s := NewState("u", 2)
		if !s.ToggleChecked("Viande-Steak-0") || !s.IsChecked("Viande-Steak-0") {
			t.Fatal("Expected the item to be checked")
		}
		if s.ToggleChecked("Viande-Steak-0") || s.IsChecked("Viande-Steak-0") {
			t.Error("Expected the item to be unchecked")
		}
		s.ToggleChecked("a")
		s.UsePlan(42)
		if s.IsChecked("a") {
			t.Error("Expected a new plan to reset checked items")
		}
	})

	t.Run("Select", func(t *testing.T) {
		s := NewState("u", 2)
		s.Select(recipe.RecipeRef{Day: 3, Meal: recipe.Dinner, Diet: recipe.DietWorld})
		if s.View != ViewRecipe || s.Day != 3 || s.Selected.Meal != recipe.Dinner {
			t.Errorf("Unexpected state %+v", s)
		}
	})
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "sessions.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewRepository(db.SQL, 3)

	fresh, err := repo.Load(ctx, "42")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if fresh.Portions != 3 || fresh.Diet != recipe.DietStandard {
		t.Errorf("Unexpected fresh state %+v", fresh)
	}

	_, err = repo.Update(ctx, "42", func(s *State) error {
		s.ToggleDiet(recipe.DietVegan)
		s.SetPortions(6)
		s.ToggleChecked("Epicerie-Riz-0")
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loaded, err := repo.Load(ctx, "42")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Diet != recipe.DietVegan || loaded.Portions != 6 || !loaded.IsChecked("Epicerie-Riz-0") {
		t.Errorf("Expected the saved state back, got %+v", loaded)
	}

	boom := errors.New("boom")
	if _, err := repo.Update(ctx, "42", func(*State) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected the callback error, got %v", err)
	}

	n, err := repo.CleanupStale(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("CleanupStale failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 stale session, got %d", n)
	}
}
