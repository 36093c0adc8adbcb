package domain

import "time"

// RunStatus is the lifecycle state of a reindex run.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunNoRecords RunStatus = "no_valid_records"
)

// IsTerminal reports whether the run has finished.
func (s RunStatus) IsTerminal() bool {
	return s != RunRunning
}

// ReindexRun records one execution of validate, embed, build, persist and swap.
type ReindexRun struct {
	ID         string
	SourcePath string
	Status     RunStatus
	Accepted   int
	Rejected   int
	Rows       int
	Dimension  int
	ProviderID string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took, or zero while it is running.
func (r ReindexRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
