package grading

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/examdesk/internal/attempt"
	"github.com/ziadkadry99/examdesk/internal/audit"
	"github.com/ziadkadry99/examdesk/internal/exam"
	"github.com/ziadkadry99/examdesk/internal/logger"
)

// Grader builds reports from stored attempts and records who viewed them.
type Grader struct {
	exams    *exam.Store
	attempts *attempt.Store
	trail    audit.Logger
	log      *logger.Logger
}

// NewGrader creates a Grader. trail may be nil.
func NewGrader(exams *exam.Store, attempts *attempt.Store, trail audit.Logger, log *logger.Logger) *Grader {
	return &Grader{exams: exams, attempts: attempts, trail: trail, log: logger.OrNop(log)}
}

// AttemptReport scores one attempt for reviewer.
func (g *Grader) AttemptReport(ctx context.Context, reviewer, attemptID string) (*Report, error) {
	a, err := g.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("attempt %s: %w", attemptID, attempt.ErrNotFound)
	}
	questions, err := g.exams.ListQuestions(ctx, a.TestID)
	if err != nil {
		return nil, err
	}

	rep := ScoreAttempt(*a, questions)
	g.record(ctx, reviewer, audit.ActionAttemptReviewed, audit.ScopeAttempt, a.ID,
		fmt.Sprintf("Reviewed %s: %d/%d", a.TakerID, rep.Correct, rep.Graded))
	return &rep, nil
}

// TestReports scores every submitted attempt of a test.
func (g *Grader) TestReports(ctx context.Context, reviewer, testID string) ([]Report, error) {
	t, err := g.exams.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("test %s: %w", testID, attempt.ErrNotFound)
	}
	questions, err := g.exams.ListQuestions(ctx, testID)
	if err != nil {
		return nil, err
	}
	attempts, err := g.attempts.ListByTest(ctx, testID, attempt.StatusSubmitted)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(attempts))
	for _, a := range attempts {
		reports = append(reports, ScoreAttempt(a, questions))
	}
	g.record(ctx, reviewer, audit.ActionTestResultsViewed, audit.ScopeTest, testID,
		fmt.Sprintf("Viewed %d results of %s", len(reports), t.Title))
	return reports, nil
}

func (g *Grader) record(ctx context.Context, reviewer string, action audit.Action, scope audit.Scope, scopeID, summary string) {
	if g.trail == nil {
		return
	}
	err := g.trail.Log(ctx, audit.Entry{
		ActorType: audit.ActorAdmin,
		ActorID:   reviewer,
		Action:    action,
		Scope:     scope,
		ScopeID:   scopeID,
		Summary:   summary,
	})
	if err != nil {
		g.log.Warn("audit entry dropped", "action", action, "scope_id", scopeID, "error", err)
	}
}
