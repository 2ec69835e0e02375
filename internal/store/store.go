package store

import (
	"context"

	"github.com/sells-group/comps-finder/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status     model.RunStatus `json:"status,omitempty"`
	TargetName string          `json:"target_name,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for comparable-finder runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, target model.TargetInput) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Run artifacts
	SaveComparables(ctx context.Context, runID string, comparables []model.ScoredCandidate) error
	SaveProvenance(ctx context.Context, runID string, entries []model.ProvenanceEntry) error
	SaveDrops(ctx context.Context, runID string, drops []model.DropRecord) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
