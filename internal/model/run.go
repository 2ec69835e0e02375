package model

import "time"

// RunStatus represents the current state of a comparables run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusNormalizing RunStatus = "normalizing"
	RunStatusDiscovering RunStatus = "discovering"
	RunStatusEvaluating  RunStatus = "evaluating"
	RunStatusRanking     RunStatus = "ranking"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single comparable-company run for a target.
type Run struct {
	ID        string      `json:"id"`
	Target    TargetInput `json:"target"`
	Status    RunStatus   `json:"status"`
	Result    *RunResult  `json:"result,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunResult holds the final outcome of a run: the ranked comparables plus
// the audit trail for everything that was evaluated and dropped.
type RunResult struct {
	Comparables []ScoredCandidate `json:"comparables"`
	Provenance  []ProvenanceEntry `json:"provenance"`
	Drops       []DropRecord      `json:"drops"`
	Evaluated   int               `json:"evaluated"`
	TotalTokens int64             `json:"total_tokens"`
	TotalCost   float64           `json:"total_cost"`
	Error       string            `json:"error,omitempty"`
}
