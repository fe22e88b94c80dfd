// Package storage keeps JSON snapshots of weekly plans on disk, e.g. for the
// static front-end build or for backups.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nutrision/internal/recipe"
)

// PlanArchive is a file-based store of weekly plan snapshots, one file per
// week and version.
type PlanArchive struct {
	basePath string
}

// NewPlanArchive creates a PlanArchive and ensures the base directory exists.
func NewPlanArchive(basePath string) (*PlanArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", basePath, err)
	}
	return &PlanArchive{basePath: basePath}, nil
}

func versionOf(updatedAt time.Time) string {
	return updatedAt.UTC().Format("20060102T150405Z")
}

func (a *PlanArchive) versionedPath(weekID string, updatedAt time.Time) string {
	return filepath.Join(a.basePath, fmt.Sprintf("%s_%s.json", weekID, versionOf(updatedAt)))
}

// Save writes a validated plan snapshot and returns the file path.
func (a *PlanArchive) Save(plan *recipe.WeeklyPlan, updatedAt time.Time) (string, error) {
	if err := plan.Validate(); err != nil {
		return "", err
	}
	if plan.WeekID == "" {
		return "", fmt.Errorf("%w: missing week id", recipe.ErrInvalidPlan)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	filePath := a.versionedPath(plan.WeekID, updatedAt)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write plan file: %w", err)
	}
	return filePath, nil
}

// Load reads and validates a specific snapshot.
func (a *PlanArchive) Load(weekID string, updatedAt time.Time) (*recipe.WeeklyPlan, error) {
	data, err := os.ReadFile(a.versionedPath(weekID, updatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan recipe.WeeklyPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Exists reports whether a snapshot of this version was written.
func (a *PlanArchive) Exists(weekID string, updatedAt time.Time) bool {
	_, err := os.Stat(a.versionedPath(weekID, updatedAt))
	return !os.IsNotExist(err)
}

// RemoveStaleVersions removes every snapshot of weekID. Call it before Save
// so only the latest version remains.
func (a *PlanArchive) RemoveStaleVersions(weekID string) error {
	matches, err := filepath.Glob(filepath.Join(a.basePath, weekID+"_*.json"))
	if err != nil {
		return fmt.Errorf("failed to glob stale files: %w", err)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}
