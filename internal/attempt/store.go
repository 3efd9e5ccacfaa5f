package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/examdesk/internal/db"
)

// Store manages persistence of attempts.
type Store struct {
	db *db.DB
}

// NewStore creates a new attempt store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Insert stores a new attempt, filling in its id and timestamps.
func (s *Store) Insert(ctx context.Context, a *Attempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.StartedAt = now
	a.UpdatedAt = now

	answers, overlays, highlights, err := encodeState(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, test_id, taker_id, status, current_question, answers, overlays, highlights, started_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TestID, a.TakerID, string(a.Status), a.CurrentQuestion, answers, overlays, highlights, a.StartedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting attempt: %w", err)
	}
	return nil
}

// Update writes back every mutable column of a.
func (s *Store) Update(ctx context.Context, a *Attempt) error {
	a.UpdatedAt = time.Now().UTC()
	answers, overlays, highlights, err := encodeState(a)
	if err != nil {
		return err
	}

	var submittedAt sql.NullTime
	if a.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *a.SubmittedAt, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET status = ?, current_question = ?, answers = ?, overlays = ?, highlights = ?, updated_at = ?, submitted_at = ?
		 WHERE id = ?`,
		string(a.Status), a.CurrentQuestion, answers, overlays, highlights, a.UpdatedAt, submittedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating attempt %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// Get retrieves an attempt by its ID.
func (s *Store) Get(ctx context.Context, id string) (*Attempt, error) {
	return s.queryOne(ctx, `WHERE id = ?`, id)
}

// LatestInProgress returns the most recently touched unsubmitted attempt
// of takerID on testID.
func (s *Store) LatestInProgress(ctx context.Context, testID, takerID string) (*Attempt, error) {
	return s.queryOne(ctx,
		`WHERE test_id = ? AND taker_id = ? AND status = ? ORDER BY updated_at DESC LIMIT 1`,
		testID, takerID, string(StatusInProgress))
}

// ListByTest returns the attempts of a test, optionally limited to one
// status, in start order.
func (s *Store) ListByTest(ctx context.Context, testID string, status Status) ([]Attempt, error) {
	where := `WHERE test_id = ?`
	args := []any{testID}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, string(status))
	}
	rows, err := s.db.QueryContext(ctx, selectAttempts+where+` ORDER BY started_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

const selectAttempts = `SELECT id, test_id, taker_id, status, current_question, answers, overlays, highlights, started_at, updated_at, submitted_at FROM attempts `

func (s *Store) queryOne(ctx context.Context, where string, args ...any) (*Attempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx, selectAttempts+where, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAttempt(sc interface{ Scan(...any) error }) (*Attempt, error) {
	a := newAttempt()
	var status, answers, overlays, highlights string
	var submittedAt sql.NullTime
	err := sc.Scan(&a.ID, &a.TestID, &a.TakerID, &status, &a.CurrentQuestion,
		&answers, &overlays, &highlights, &a.StartedAt, &a.UpdatedAt, &submittedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning attempt: %w", err)
	}
	a.Status = Status(status)
	if submittedAt.Valid {
		a.SubmittedAt = &submittedAt.Time
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("decoding answers of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(overlays), &a.Overlays); err != nil {
		return nil, fmt.Errorf("decoding overlays of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(highlights), &a.Highlights); err != nil {
		return nil, fmt.Errorf("decoding highlights of %s: %w", a.ID, err)
	}
	a.ensureMaps()
	return &a, nil
}

func encodeState(a *Attempt) (answers, overlays, highlights string, err error) {
	enc := func(v any, what string) string {
		if err != nil {
			return ""
		}
		var b []byte
		if b, err = json.Marshal(v); err != nil {
			err = fmt.Errorf("marshalling %s: %w", what, err)
		}
		return string(b)
	}
	answers = enc(a.Answers, "answers")
	overlays = enc(a.Overlays, "overlays")
	highlights = enc(a.Highlights, "highlights")
	return answers, overlays, highlights, err
}
