package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutrision/internal/planner/plan_db"
	"nutrision/internal/recipe"
)

// ErrNotFound is returned when no stored plan matches.
var ErrNotFound = errors.New("meal plan not found")

// StoredPlan is a weekly plan persisted for a user.
type StoredPlan struct {
	ID        int64
	UserID    string
	Origin    Origin
	Plan      *recipe.WeeklyPlan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	queries *plan_db.Queries
	db      *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{
		queries: plan_db.New(d),
		db:      d,
	}
}

// Save inserts a new meal plan and returns its id.
func (r *PlanRepository) Save(ctx context.Context, userID string, origin Origin, plan *recipe.WeeklyPlan) (int64, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	now := time.Now().UTC()
	id, err := r.queries.InsertMealPlan(ctx, plan_db.InsertMealPlanParams{
		UserID:    userID,
		WeekID:    plan.WeekID,
		Origin:    string(origin),
		PlanData:  data,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return id, nil
}

// Get retrieves a meal plan by id.
func (r *PlanRepository) Get(ctx context.Context, id int64) (*StoredPlan, error) {
	row, err := r.queries.GetMealPlan(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get meal plan %d: %w", id, err)
	}
	return toStoredPlan(row)
}

// Latest retrieves the most recent meal plan of a user.
func (r *PlanRepository) Latest(ctx context.Context, userID string) (*StoredPlan, error) {
	row, err := r.queries.GetLatestMealPlanByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get latest meal plan for user %s: %w", userID, err)
	}
	return toStoredPlan(row)
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.queries.ListRecentMealPlansByUserID(ctx, plan_db.ListRecentMealPlansByUserIDParams{
		UserID: userID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}

	plans := make([]StoredPlan, 0, len(rows))
	for _, row := range rows {
		p, err := toStoredPlan(row)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, nil
}

// Replace overwrites the content of a stored plan, e.g. after a recipe
// image changed.
func (r *PlanRepository) Replace(ctx context.Context, id int64, plan *recipe.WeeklyPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	n, err := r.queries.UpdateMealPlanData(ctx, plan_db.UpdateMealPlanDataParams{
		PlanData:  data,
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("failed to update meal plan %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func toStoredPlan(row plan_db.MealPlan) (*StoredPlan, error) {
	var plan recipe.WeeklyPlan
	if err := json.Unmarshal(row.PlanData, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan %d: %w", row.ID, err)
	}
	return &StoredPlan{
		ID:        row.ID,
		UserID:    row.UserID,
		Origin:    Origin(row.Origin),
		Plan:      &plan,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
