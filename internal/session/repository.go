package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sessiondb "nutrision/internal/session/session_db"
)

// Repository provides access to session persistence operations.
type Repository struct {
	queries         *sessiondb.Queries
	db              *sql.DB
	defaultPortions int
}

// NewRepository creates a new Repository. New users start with
// defaultPortions.
func NewRepository(db *sql.DB, defaultPortions int) *Repository {
	return &Repository{
		queries:         sessiondb.New(db),
		db:              db,
		defaultPortions: defaultPortions,
	}
}

// Load returns the stored state of a user, or a fresh one when none exists.
func (r *Repository) Load(ctx context.Context, userID string) (*State, error) {
	row, err := r.queries.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewState(userID, r.defaultPortions), nil
		}
		return nil, fmt.Errorf("failed to load session for user %s: %w", userID, err)
	}

	state := NewState(userID, r.defaultPortions)
	if err := json.Unmarshal([]byte(row.State), state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session for user %s: %w", userID, err)
	}
	state.UserID = userID
	return state, nil
}

// Save stores the state, replacing any previous one.
func (r *Repository) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = r.queries.UpsertSession(ctx, sessiondb.UpsertSessionParams{
		UserID:    state.UserID,
		State:     string(data),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save session for user %s: %w", state.UserID, err)
	}
	return nil
}

// Update loads the state of a user, applies fn and saves the result.
func (r *Repository) Update(ctx context.Context, userID string, fn func(*State) error) (*State, error) {
	state, err := r.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Delete removes the state of a user.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	return r.queries.DeleteSession(ctx, userID)
}

// CleanupStale removes sessions untouched for longer than maxAge.
func (r *Repository) CleanupStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	return r.queries.CleanupStaleSessions(ctx, time.Now().Add(-maxAge).UTC())
}
