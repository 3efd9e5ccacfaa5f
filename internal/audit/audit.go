// Package audit keeps an append-only trail of taker and admin activity.
package audit

import (
	"context"
	"time"
)

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorTaker  ActorType = "taker"
	ActorAdmin  ActorType = "admin"
	ActorSystem ActorType = "system"
)

// Action describes what was done.
type Action string

const (
	ActionTestCreated       Action = "test_created"
	ActionPassageImported   Action = "passage_imported"
	ActionAttemptStarted    Action = "attempt_started"
	ActionAttemptResumed    Action = "attempt_resumed"
	ActionAttemptSubmitted  Action = "attempt_submitted"
	ActionHighlightAdded    Action = "highlight_added"
	ActionHighlightRemoved  Action = "highlight_removed"
	ActionAttemptReviewed   Action = "attempt_reviewed"
	ActionTestResultsViewed Action = "test_results_viewed"
)

// Scope describes what an action applies to.
type Scope string

const (
	ScopeTest    Scope = "test"
	ScopePassage Scope = "passage"
	ScopeAttempt Scope = "attempt"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	Scope     Scope     `json:"scope"`
	ScopeID   string    `json:"scope_id"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
}

// Logger is the write side of the trail, for packages that only record.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}
