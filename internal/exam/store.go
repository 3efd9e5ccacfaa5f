package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/examdesk/internal/db"
	"github.com/ziadkadry99/examdesk/internal/passage"
	"github.com/ziadkadry99/examdesk/internal/reference"
)

// Store manages persistence of tests, passages and questions.
type Store struct {
	db *db.DB
}

// NewStore creates a new exam store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateTest adds a new test.
func (s *Store) CreateTest(ctx context.Context, t Test) (*Test, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tests (id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting test: %w", err)
	}
	return &t, nil
}

// GetTest retrieves a test by its ID.
func (s *Store) GetTest(ctx context.Context, id string) (*Test, error) {
	var t Test
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_at, updated_at FROM tests WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting test: %w", err)
	}
	return &t, nil
}

// ListTests returns every test, oldest first.
func (s *Store) ListTests(ctx context.Context) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, created_at, updated_at FROM tests ORDER BY created_at ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing tests: %w", err)
	}
	defer rows.Close()

	var tests []Test
	for rows.Next() {
		var t Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning test: %w", err)
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// CreatePassage converts Markdown content to HTML, then stores it.
func (s *Store) CreatePassage(ctx context.Context, p Passage) (*Passage, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := prepare(&p); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO passages (id, test_id, title, content, format, source_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TestID, p.Title, p.Content, string(p.Format), p.SourcePath, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting passage: %w", err)
	}
	return &p, nil
}

// SavePassageFromSource creates the passage imported from p.SourcePath, or
// replaces its content when that file was imported before. The returned
// bool reports whether a new passage was created.
func (s *Store) SavePassageFromSource(ctx context.Context, p Passage) (*Passage, bool, error) {
	if p.SourcePath == "" {
		return nil, false, fmt.Errorf("saving passage: source path is required")
	}

	var existingID string
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM passages WHERE source_path = ?`, p.SourcePath,
	).Scan(&existingID, &createdAt)
	if err == sql.ErrNoRows {
		created, err := s.CreatePassage(ctx, p)
		return created, err == nil, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("looking up passage source: %w", err)
	}

	if err := prepare(&p); err != nil {
		return nil, false, err
	}
	p.ID = existingID
	p.CreatedAt = createdAt
	p.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE passages SET test_id = ?, title = ?, content = ?, format = ?, updated_at = ? WHERE id = ?`,
		p.TestID, p.Title, p.Content, string(p.Format), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("updating passage: %w", err)
	}
	return &p, false, nil
}

func prepare(p *Passage) error {
	if p.Format == "" {
		p.Format = passage.FormatHTML
	}
	content, err := passage.Prepare(p.Content, p.Format)
	if err != nil {
		return fmt.Errorf("preparing passage content: %w", err)
	}
	p.Content = content
	return nil
}

const passageColumns = `id, test_id, title, content, format, source_path, created_at, updated_at`

func scanPassage(sc interface{ Scan(...any) error }) (Passage, error) {
	var p Passage
	var format string
	err := sc.Scan(&p.ID, &p.TestID, &p.Title, &p.Content, &format, &p.SourcePath, &p.CreatedAt, &p.UpdatedAt)
	p.Format = passage.Format(format)
	return p, err
}

// GetPassage retrieves a passage by its ID.
func (s *Store) GetPassage(ctx context.Context, id string) (*Passage, error) {
	p, err := scanPassage(s.db.QueryRowContext(ctx,
		`SELECT `+passageColumns+` FROM passages WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting passage: %w", err)
	}
	return &p, nil
}

// ListPassages returns the passages of a test, or every passage when
// testID is empty.
func (s *Store) ListPassages(ctx context.Context, testID string) ([]Passage, error) {
	query := `SELECT ` + passageColumns + ` FROM passages`
	var args []any
	if testID != "" {
		query += ` WHERE test_id = ?`
		args = append(args, testID)
	}
	query += ` ORDER BY created_at ASC, title ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing passages: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		p, err := scanPassage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

// CreateQuestion validates and stores a question. A zero Position appends
// it after the test's existing questions.
func (s *Store) CreateQuestion(ctx context.Context, q Question) (*Question, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Position == 0 {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM questions WHERE test_id = ?`, q.TestID,
		).Scan(&count); err != nil {
			return nil, fmt.Errorf("counting questions: %w", err)
		}
		q.Position = count + 1
	}
	q.Prompt = passage.Sanitize(q.Prompt)
	for i := range q.Options {
		q.Options[i].HTML = passage.Sanitize(q.Options[i].HTML)
	}
	if q.References == nil {
		q.References = reference.References{}
	}
	q.CreatedAt = time.Now().UTC()

	options, err := json.Marshal(q.Options)
	if err != nil {
		return nil, fmt.Errorf("marshalling options: %w", err)
	}
	refs, err := json.Marshal(q.References)
	if err != nil {
		return nil, fmt.Errorf("marshalling references: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id, test_id, passage_id, position, prompt, options, correct_option, sentence_references, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.TestID, q.PassageID, q.Position, q.Prompt, string(options), q.CorrectOption, string(refs), q.Explanation, q.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting question: %w", err)
	}
	return &q, nil
}

const questionColumns = `id, test_id, passage_id, position, prompt, options, correct_option, sentence_references, explanation, created_at`

func scanQuestion(sc interface{ Scan(...any) error }) (Question, error) {
	var q Question
	var options, refs string
	if err := sc.Scan(&q.ID, &q.TestID, &q.PassageID, &q.Position, &q.Prompt, &options, &q.CorrectOption, &refs, &q.Explanation, &q.CreatedAt); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return q, fmt.Errorf("decoding options of %s: %w", q.ID, err)
	}
	parsed, err := reference.Parse([]byte(refs))
	if err != nil {
		return q, fmt.Errorf("decoding references of %s: %w", q.ID, err)
	}
	q.References = parsed
	return q, nil
}

// GetQuestion retrieves a question by its ID.
func (s *Store) GetQuestion(ctx context.Context, id string) (*Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}
	return &q, nil
}

// ListQuestions returns a test's questions in position order.
func (s *Store) ListQuestions(ctx context.Context, testID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE test_id = ? ORDER BY position ASC, created_at ASC`, testID)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
