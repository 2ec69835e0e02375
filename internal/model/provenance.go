package model

import "time"

// ProvenanceEntry links one extracted field value to its source. Entries are
// append-only: the orchestrator writes them once per run and never mutates
// them afterwards. Entries are keyed by candidate identity rather than
// arrival order so a future parallel writer stays ordering-agnostic.
type ProvenanceEntry struct {
	CandidateName string    `json:"candidate_name"`
	Field         string    `json:"field"`
	Value         string    `json:"value"`
	SourceURL     string    `json:"source_url"`
	Timestamp     time.Time `json:"timestamp"`
}

// DropStage identifies where in the pipeline a candidate was dropped.
type DropStage string

const (
	DropStageExtraction DropStage = "extraction"
	DropStageAdmission  DropStage = "admission"
	DropStageEvidence   DropStage = "evidence"
)

// DropRecord is the audit trail for a rejected candidate. Every drop carries
// a reason even though the default rendering surfaces only admitted
// candidates.
type DropRecord struct {
	CandidateName string    `json:"candidate_name"`
	Stage         DropStage `json:"stage"`
	Reason        string    `json:"reason"`
	Score         float64   `json:"score,omitempty"`
}
