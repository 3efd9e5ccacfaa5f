// Package grading scores attempts and serves the admin review screens.
package grading

import (
	"time"

	"github.com/ziadkadry99/examdesk/internal/attempt"
	"github.com/ziadkadry99/examdesk/internal/exam"
)

// Outcome is the result of one question.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeOmitted   Outcome = "omitted"
	// OutcomeUngraded marks questions without an answer key. They are
	// left out of the totals.
	OutcomeUngraded Outcome = "ungraded"
)

// Row is one question of a report.
type Row struct {
	QuestionID string  `json:"question_id"`
	Position   int     `json:"position"`
	Selected   string  `json:"selected,omitempty"`
	Correct    string  `json:"correct,omitempty"`
	Outcome    Outcome `json:"outcome"`
}

// Report is the scored result of an attempt.
type Report struct {
	AttemptID   string         `json:"attempt_id,omitempty"`
	TestID      string         `json:"test_id,omitempty"`
	TakerID     string         `json:"taker_id,omitempty"`
	Status      attempt.Status `json:"status,omitempty"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
	Graded      int            `json:"graded"`
	Correct     int            `json:"correct"`
	Incorrect   int            `json:"incorrect"`
	Omitted     int            `json:"omitted"`
	Percent     float64        `json:"percent"`
	Rows        []Row          `json:"rows"`
}

// Score grades answers against the questions' answer keys. The raw score
// is the Correct count; Percent is relative to the graded questions.
func Score(questions []exam.Question, answers map[string]string) Report {
	rep := Report{Rows: make([]Row, 0, len(questions))}
	for _, q := range questions {
		row := Row{
			QuestionID: q.ID,
			Position:   q.Position,
			Selected:   answers[q.ID],
			Correct:    q.CorrectOption,
		}
		switch {
		case q.CorrectOption == "":
			row.Outcome = OutcomeUngraded
		case row.Selected == "":
			row.Outcome = OutcomeOmitted
			rep.Omitted++
		case row.Selected == q.CorrectOption:
			row.Outcome = OutcomeCorrect
			rep.Correct++
		default:
			row.Outcome = OutcomeIncorrect
			rep.Incorrect++
		}
		if row.Outcome != OutcomeUngraded {
			rep.Graded++
		}
		rep.Rows = append(rep.Rows, row)
	}
	if rep.Graded > 0 {
		rep.Percent = float64(rep.Correct) * 100 / float64(rep.Graded)
	}
	return rep
}

// ScoreAttempt grades a and fills in the attempt fields of the report.
func ScoreAttempt(a attempt.Attempt, questions []exam.Question) Report {
	rep := Score(questions, a.Answers)
	rep.AttemptID = a.ID
	rep.TestID = a.TestID
	rep.TakerID = a.TakerID
	rep.Status = a.Status
	rep.SubmittedAt = a.SubmittedAt
	return rep
}
