package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"nutrision/internal/database"
	"nutrision/internal/recipe"
)

func newTestRepository(t *testing.T) *PlanRepository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPlanRepository(db.SQL)
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	static, _ := StaticPlan()

	first := &recipe.WeeklyPlan{WeekID: "week-1", Days: static.Days}
	second := &recipe.WeeklyPlan{WeekID: "week-2", Days: static.Days}

	id1, err := repo.Save(ctx, "user-1", OriginStatic, first)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	id2, err := repo.Save(ctx, "user-1", OriginGenerated, second)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Run("Get", func(t *testing.T) {
		stored, err := repo.Get(ctx, id1)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if stored.Plan.WeekID != "week-1" || stored.Origin != OriginStatic {
			t.Errorf("Unexpected plan %s/%s", stored.Plan.WeekID, stored.Origin)
		}
		if err := stored.Plan.Validate(); err != nil {
			t.Errorf("Expected a round-tripped plan to stay valid: %v", err)
		}
	})

	t.Run("Latest", func(t *testing.T) {
		stored, err := repo.Latest(ctx, "user-1")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if stored.ID != id2 {
			t.Errorf("Expected plan %d, got %d", id2, stored.ID)
		}
		if _, err := repo.Latest(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		ref := recipe.RecipeRef{Day: 1, Meal: recipe.Lunch, Diet: recipe.DietVegan}
		updated, err := second.WithImage(ref, "telegram:photo")
		if err != nil {
			t.Fatalf("WithImage failed: %v", err)
		}
		if err := repo.Replace(ctx, id2, updated); err != nil {
			t.Fatalf("Replace failed: %v", err)
		}

		stored, _ := repo.Get(ctx, id2)
		r, _ := stored.Plan.Recipe(ref)
		if r.Image() != "telegram:photo" {
			t.Errorf("Expected the new image, got %q", r.Image())
		}
		if err := repo.Replace(ctx, 999, updated); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListRecent", func(t *testing.T) {
		plans, err := repo.ListRecentByUserID(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("ListRecentByUserID failed: %v", err)
		}
		if len(plans) != 1 || plans[0].ID != id2 {
			t.Errorf("Expected only the latest plan, got %d plans", len(plans))
		}
	})

	if _, err := repo.Get(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
