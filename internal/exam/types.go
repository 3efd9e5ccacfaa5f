// Package exam stores tests, their passages and their questions.
package exam

import (
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/examdesk/internal/passage"
	"github.com/ziadkadry99/examdesk/internal/reference"
)

// Test is an exam form: an ordered set of questions over some passages.
type Test struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Passage is a reading passage. Content is the HTML exactly as authored
// (Markdown is converted first) and is sanitized only when rendered; Format
// records what the author wrote it in.
type Passage struct {
	ID         string         `json:"id"`
	TestID     string         `json:"test_id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Format     passage.Format `json:"format"`
	SourcePath string         `json:"source_path,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Question is a multiple choice question, optionally tied to a passage.
// References name the passage sentences that support the answer.
type Question struct {
	ID            string               `json:"id"`
	TestID        string               `json:"test_id"`
	PassageID     string               `json:"passage_id,omitempty"`
	Position      int                  `json:"position"`
	Prompt        string               `json:"prompt"`
	Options       []passage.Option     `json:"options"`
	CorrectOption string               `json:"correct_option,omitempty"`
	References    reference.References `json:"sentence_references"`
	Explanation   string               `json:"explanation,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

var ErrInvalid = errors.New("invalid question")

// Validate checks the question is answerable: a prompt, unique non-empty
// option ids and a correct option among them.
func (q Question) Validate() error {
	if q.TestID == "" {
		return fmt.Errorf("%w: test_id is required", ErrInvalid)
	}
	if q.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalid)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: at least two options are required", ErrInvalid)
	}
	seen := map[string]bool{}
	for _, o := range q.Options {
		if o.ID == "" {
			return fmt.Errorf("%w: option id is required", ErrInvalid)
		}
		if seen[o.ID] {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalid, o.ID)
		}
		seen[o.ID] = true
	}
	if q.CorrectOption != "" && !seen[q.CorrectOption] {
		return fmt.Errorf("%w: correct option %q is not an option", ErrInvalid, q.CorrectOption)
	}
	return nil
}

// HasOption reports whether id names one of the question's options.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
