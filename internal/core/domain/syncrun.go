package domain

import (
	"fmt"
	"time"
)

// MaxSyncRunErrors bounds the per-item error messages kept on a SyncRun.
const MaxSyncRunErrors = 50

// SyncRequest configures one synchronisation pass.
type SyncRequest struct {
	// Scope selects the source subset to reconcile.
	Scope Scope

	// Limit caps the number of items fetched (default 100).
	Limit int

	// IncludeCompleted includes closed/completed tasks.
	IncludeCompleted bool

	// Force re-indexes items even when they are not newer than the stored copy.
	Force bool
}

// ItemStatus is the outcome of processing one source item.
type ItemStatus string

// Item statuses.
const (
	ItemNew     ItemStatus = "new"
	ItemUpdated ItemStatus = "updated"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

// ItemOutcome records what happened to a single item during a sync.
type ItemOutcome struct {
	// SourceID identifies the item.
	SourceID string

	// Title is the item name, used in error messages.
	Title string

	// Status is the outcome.
	Status ItemStatus

	// Err is set when Status is ItemFailed.
	Err error

	// EmbeddingMissing is true when the item was stored without an embedding.
	EmbeddingMissing bool
}

// SyncRun is the audit record of one synchronisation pass.
// It is created when a sync starts, finalised once, and never mutated afterwards.
type SyncRun struct {
	// ID is the unique identifier of the run.
	ID string

	// Scope is the textual form of the synchronised scope.
	Scope string

	// SyncedCount is the number of newly added playbooks.
	SyncedCount int

	// UpdatedCount is the number of updated playbooks.
	UpdatedCount int

	// SkippedCount is the number of unchanged items.
	SkippedCount int

	// ErrorCount is the number of failed items.
	ErrorCount int

	// Errors holds at most MaxSyncRunErrors per-item messages.
	Errors []string

	// Success is false when the run aborted.
	Success bool

	// Error is the fatal error message of an aborted run.
	Error string

	// StartedAt is when the run began.
	StartedAt time.Time

	// CompletedAt is when the run was finalised.
	CompletedAt time.Time
}

// NewSyncRun starts a run record.
func NewSyncRun(id string, scope Scope, startedAt time.Time) *SyncRun {
	return &SyncRun{
		ID:        id,
		Scope:     scope.String(),
		Errors:    []string{},
		StartedAt: startedAt,
	}
}

// Apply folds a single item outcome into the run counters.
func (r *SyncRun) Apply(o ItemOutcome) {
	switch o.Status {
	case ItemNew:
		r.SyncedCount++
	case ItemUpdated:
		r.UpdatedCount++
	case ItemSkipped:
		r.SkippedCount++
	case ItemFailed:
		r.ErrorCount++
		if len(r.Errors) < MaxSyncRunErrors {
			r.Errors = append(r.Errors, formatOutcomeError(o))
		}
	}
}

// Complete finalises a successful run.
func (r *SyncRun) Complete(at time.Time) {
	r.Success = true
	r.CompletedAt = at
}

// Fail finalises an aborted run.
func (r *SyncRun) Fail(err error, at time.Time) {
	r.Success = false
	if err != nil {
		r.Error = err.Error()
	}
	r.CompletedAt = at
}

// Processed returns the number of items that reached a final state.
func (r *SyncRun) Processed() int {
	return r.SyncedCount + r.UpdatedCount + r.SkippedCount + r.ErrorCount
}

// Duration returns how long the run took.
func (r *SyncRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

func formatOutcomeError(o ItemOutcome) string {
	if o.Title != "" {
		return fmt.Sprintf("%s (%s): %v", o.SourceID, o.Title, o.Err)
	}
	return fmt.Sprintf("%s: %v", o.SourceID, o.Err)
}
