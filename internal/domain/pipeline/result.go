package pipeline

import (
	"time"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/errors"
)

// StageRemoval is the name of the backend-selection stage. The
// post-processing stages report their processor names.
const StageRemoval = "background_removal"

// StageResult is the telemetry record of one stage invocation. The
// removal stage appends one entry per attempt, failed attempts
// included, so the trail explains which backends were tried and why
// each failed.
type StageResult struct {
	Stage     string        `json:"stage"`
	Backend   string        `json:"backend,omitempty"`
	Success   bool          `json:"success"`
	ErrorKind errors.Kind   `json:"error_kind,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Result is the outcome of one full pipeline run. On a stage failure
// Success is false and Output still carries the last good artifact
// (at minimum the background-removed cutout), so a failed run is
// never silently discarded.
type Result struct {
	JobID    string             `json:"job_id"`
	Style    string             `json:"style"`
	Success  bool               `json:"success"`
	Backend  string             `json:"backend,omitempty"`
	Output   *artifact.Artifact `json:"-"`
	Stages   []StageResult      `json:"stages"`
	Duration time.Duration      `json:"duration"`
}
