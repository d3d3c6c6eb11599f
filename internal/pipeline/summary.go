package pipeline

import (
	"time"

	"reelpipe/internal/artifact"
)

// StageStatus is a stage's final disposition within one run.
type StageStatus string

const (
	StageSkipped   StageStatus = "skipped"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// Run-level outcome values.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// StageResult records one stage's final state for the run summary.
type StageResult struct {
	Stage        int           `json:"stage"`
	Name         string        `json:"name"`
	ArtifactType artifact.Type `json:"artifact_type"`
	Status       StageStatus   `json:"status"`
	Decision     string        `json:"decision"`
	DurationSec  float64       `json:"duration_sec"`
	ArtifactHash string        `json:"artifact_hash,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Summary is the run-level status record, persisted at the end of
// every pipeline invocation regardless of outcome.
type Summary struct {
	RunID       string        `json:"run_id"`
	ProjectID   string        `json:"project_id"`
	ProjectPath string        `json:"project_path,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Status      string        `json:"status"`
	Stages      []StageResult `json:"stages"`
	Errors      []string      `json:"errors"`
}

// Succeeded reports whether every stage reached skipped or completed.
func (s Summary) Succeeded() bool {
	return s.Status == RunCompleted
}
