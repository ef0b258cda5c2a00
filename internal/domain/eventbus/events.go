package eventbus

import (
	"time"

	"photopipe-server-go/internal/domain/removal/inter"
)

// StageCompletedEvent is published after every stage execution,
// successful or not.
type StageCompletedEvent struct {
	JobID    string
	Stage    string
	Backend  string
	Duration time.Duration
	Err      error
}

// HealthChangedEvent is published when a backend transitions between
// health states.
type HealthChangedEvent struct {
	Backend string
	From    inter.HealthState
	To      inter.HealthState
	At      time.Time
}

// JobFinishedEvent is published once per pipeline run.
type JobFinishedEvent struct {
	JobID    string
	Style    string
	Success  bool
	Duration time.Duration
}
