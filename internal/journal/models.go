package journal

import "time"

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusDryRun    Status = "dry_run"
	// StatusEmpty marks a run that collected no files.
	StatusEmpty Status = "empty"
)

// EventKind names a per-file change.
type EventKind string

const (
	EventRetag  EventKind = "retag"
	EventRename EventKind = "rename"
)

// Run is one session.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      Status
	Stage       string
	Error       string
	ErrorKind   string
	TablePath   string
	RecordCount int
}

// Finished reports whether the run has ended.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if !r.Finished() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Event is one file changed by a run.
type Event struct {
	ID         int64
	RunID      string
	RecordID   int
	Kind       EventKind
	SourcePath string
	TargetPath string
	CreatedAt  time.Time
}
