// Package attempt runs test attempts: start, auto-save, resume and submit,
// plus the taker's manual highlights and option overlays.
package attempt

import (
	"errors"
	"time"

	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/overlay"
)

// Status is the lifecycle stage of an attempt.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrSubmitted = errors.New("attempt already submitted")
	ErrInvalid   = errors.New("invalid request")
)

// Attempt is one taker's sitting of a test.
type Attempt struct {
	ID              string                        `json:"id"`
	TestID          string                        `json:"test_id"`
	TakerID         string                        `json:"taker_id"`
	Status          Status                        `json:"status"`
	CurrentQuestion string                        `json:"current_question"`
	Answers         map[string]string             `json:"answers"`    // question id -> option id
	Overlays        map[string]overlay.State      `json:"overlays"`   // question id
	Highlights      map[string][]highlight.Record `json:"highlights"` // passage id
	StartedAt       time.Time                     `json:"started_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
	SubmittedAt     *time.Time                    `json:"submitted_at,omitempty"`
}

// Submitted reports whether the attempt has been handed in.
func (a *Attempt) Submitted() bool {
	return a.Status == StatusSubmitted
}

// Progress is an auto-save payload. Answers are merged into the attempt;
// an empty option id clears the answer to that question.
type Progress struct {
	CurrentQuestion *string           `json:"current_question,omitempty"`
	Answers         map[string]string `json:"answers,omitempty"`
}

func newAttempt() Attempt {
	a := Attempt{Status: StatusInProgress}
	a.ensureMaps()
	return a
}

func (a *Attempt) ensureMaps() {
	if a.Answers == nil {
		a.Answers = map[string]string{}
	}
	if a.Overlays == nil {
		a.Overlays = map[string]overlay.State{}
	}
	if a.Highlights == nil {
		a.Highlights = map[string][]highlight.Record{}
	}
}
