package attempt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ziadkadry99/examdesk/internal/audit"
	"github.com/ziadkadry99/examdesk/internal/exam"
	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/logger"
	"github.com/ziadkadry99/examdesk/internal/overlay"
	"github.com/ziadkadry99/examdesk/internal/passage"
)

// Service applies taker actions to attempts. Mutations are serialized so
// concurrent auto-saves of one attempt cannot drop each other's changes.
type Service struct {
	mu       sync.Mutex
	store    *Store
	exams    *exam.Store
	renderer *passage.Renderer
	engine   *highlight.Engine
	trail    audit.Logger
	log      *logger.Logger
}

// NewService wires an attempt service. trail may be nil.
func NewService(store *Store, exams *exam.Store, renderer *passage.Renderer, engine *highlight.Engine, trail audit.Logger, log *logger.Logger) *Service {
	log = logger.OrNop(log)
	if engine == nil {
		engine = highlight.NewEngine(log, highlight.DefaultOptions())
	}
	if renderer == nil {
		renderer = passage.NewRenderer(log, engine, 0)
	}
	return &Service{
		store:    store,
		exams:    exams,
		renderer: renderer,
		engine:   engine,
		trail:    trail,
		log:      log,
	}
}

// Start opens a new attempt of testID for takerID, positioned on the
// test's first question.
func (s *Service) Start(ctx context.Context, testID, takerID string) (*Attempt, error) {
	if testID == "" || takerID == "" {
		return nil, fmt.Errorf("%w: test_id and taker_id are required", ErrInvalid)
	}
	t, err := s.exams.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	questions, err := s.exams.ListQuestions(ctx, testID)
	if err != nil {
		return nil, err
	}

	a := newAttempt()
	a.TestID = testID
	a.TakerID = takerID
	if len(questions) > 0 {
		a.CurrentQuestion = questions[0].ID
	}
	if err := s.store.Insert(ctx, &a); err != nil {
		return nil, err
	}
	s.record(ctx, takerID, audit.ActionAttemptStarted, a.ID, "Started "+t.Title)
	return &a, nil
}

// Get returns an attempt or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Attempt, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// Resume returns the taker's latest unsubmitted attempt of a test.
func (s *Service) Resume(ctx context.Context, testID, takerID string) (*Attempt, error) {
	a, err := s.store.LatestInProgress(ctx, testID, takerID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("no attempt in progress: %w", ErrNotFound)
	}
	s.record(ctx, takerID, audit.ActionAttemptResumed, a.ID, "Resumed attempt")
	return a, nil
}

// SaveProgress merges an auto-save into the attempt. The payload is
// validated as a whole before anything is applied.
func (s *Service) SaveProgress(ctx context.Context, id string, p Progress) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionIndex(ctx, a.TestID)
	if err != nil {
		return nil, err
	}

	for qid, opt := range p.Answers {
		q, ok := questions[qid]
		if !ok {
			return nil, fmt.Errorf("%w: question %s is not in this test", ErrInvalid, qid)
		}
		if opt != "" && !q.HasOption(opt) {
			return nil, fmt.Errorf("%w: question %s has no option %s", ErrInvalid, qid, opt)
		}
	}
	if p.CurrentQuestion != nil && *p.CurrentQuestion != "" {
		if _, ok := questions[*p.CurrentQuestion]; !ok {
			return nil, fmt.Errorf("%w: question %s is not in this test", ErrInvalid, *p.CurrentQuestion)
		}
	}

	for qid, opt := range p.Answers {
		if opt == "" {
			delete(a.Answers, qid)
			continue
		}
		a.Answers[qid] = opt
	}
	if p.CurrentQuestion != nil {
		a.CurrentQuestion = *p.CurrentQuestion
	}
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Submit hands the attempt in. Submitted attempts are read-only.
func (s *Service) Submit(ctx context.Context, id string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a.Status = StatusSubmitted
	a.SubmittedAt = &now
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	s.record(ctx, a.TakerID, audit.ActionAttemptSubmitted, a.ID,
		fmt.Sprintf("Submitted with %d answers", len(a.Answers)))
	return a, nil
}

// AddHighlight highlights [start, end) of a passage's text for the taker.
// The selection is applied through the highlight engine on top of the
// taker's existing highlights and refused when the engine refuses it.
func (s *Service) AddHighlight(ctx context.Context, id, passageID string, start, end int, color highlight.Color) (*highlight.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.passage(ctx, passageID)
	if err != nil {
		return nil, err
	}

	view := s.renderer.Render(p.Content, nil, passage.Mode{})
	s.renderer.ApplyManual(&view, a.Highlights[passageID])
	doc, err := highlight.Parse(view.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing passage %s: %w", passageID, err)
	}
	rng, err := doc.RangeAt(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	rec, ok := s.engine.Apply(doc, rng, color)
	if !ok {
		return nil, fmt.Errorf("%w: selection cannot be highlighted", ErrInvalid)
	}

	a.Highlights[passageID] = append(a.Highlights[passageID], rec)
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	s.record(ctx, a.TakerID, audit.ActionHighlightAdded, a.ID, fmt.Sprintf("Highlighted %q", rec.Text))
	return &rec, nil
}

// RemoveHighlight deletes one of the taker's highlights from a passage.
func (s *Service) RemoveHighlight(ctx context.Context, id, passageID, highlightID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.editable(ctx, id)
	if err != nil {
		return err
	}
	records := a.Highlights[passageID]
	kept := records[:0:0]
	for _, rec := range records {
		if rec.ID != highlightID {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return fmt.Errorf("highlight %s: %w", highlightID, ErrNotFound)
	}
	if len(kept) == 0 {
		delete(a.Highlights, passageID)
	} else {
		a.Highlights[passageID] = kept
	}
	if err := s.store.Update(ctx, a); err != nil {
		return err
	}
	s.record(ctx, a.TakerID, audit.ActionHighlightRemoved, a.ID, "Removed highlight "+highlightID)
	return nil
}

// UpdateOverlay applies a masking or cross-out action to a question.
func (s *Service) UpdateOverlay(ctx context.Context, id, questionID string, action overlay.Action, option string) (overlay.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.editable(ctx, id)
	if err != nil {
		return overlay.State{}, err
	}
	q, err := s.question(ctx, a, questionID)
	if err != nil {
		return overlay.State{}, err
	}
	if option != "" && !q.HasOption(option) {
		return overlay.State{}, fmt.Errorf("%w: question %s has no option %s", ErrInvalid, questionID, option)
	}

	st := a.Overlays[questionID]
	if err := st.Apply(action, option); err != nil {
		return overlay.State{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	a.Overlays[questionID] = st
	if err := s.store.Update(ctx, a); err != nil {
		return overlay.State{}, err
	}
	return st, nil
}

// RenderPassage renders a passage with the taker's manual highlights.
func (s *Service) RenderPassage(ctx context.Context, id, passageID string, mode passage.Mode) (passage.View, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return passage.View{}, err
	}
	p, err := s.passage(ctx, passageID)
	if err != nil {
		return passage.View{}, err
	}
	view := s.renderer.Render(p.Content, nil, mode)
	s.renderer.ApplyManual(&view, a.Highlights[passageID])
	return view, nil
}

// RenderQuestion renders a question with the taker's overlay state and,
// through its passage, their manual highlights. Once the attempt is
// submitted the passage also shows the question's sentence references.
func (s *Service) RenderQuestion(ctx context.Context, id, questionID string, mode passage.Mode) (passage.QuestionView, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return passage.QuestionView{}, err
	}
	q, err := s.question(ctx, a, questionID)
	if err != nil {
		return passage.QuestionView{}, err
	}
	qv, err := s.exams.RenderQuestion(ctx, s.renderer, *q, a.Overlays[questionID], mode, a.Submitted())
	if err != nil {
		return passage.QuestionView{}, err
	}
	if qv.Passage != nil {
		s.renderer.ApplyManual(qv.Passage, a.Highlights[q.PassageID])
	}
	return qv, nil
}

func (s *Service) editable(ctx context.Context, id string) (*Attempt, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Submitted() {
		return nil, ErrSubmitted
	}
	return a, nil
}

func (s *Service) passage(ctx context.Context, id string) (*exam.Passage, error) {
	p, err := s.exams.GetPassage(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("passage %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *Service) question(ctx context.Context, a *Attempt, id string) (*exam.Question, error) {
	q, err := s.exams.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil || q.TestID != a.TestID {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return q, nil
}

func (s *Service) questionIndex(ctx context.Context, testID string) (map[string]exam.Question, error) {
	questions, err := s.exams.ListQuestions(ctx, testID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]exam.Question, len(questions))
	for _, q := range questions {
		index[q.ID] = q
	}
	return index, nil
}

func (s *Service) record(ctx context.Context, takerID string, action audit.Action, attemptID, summary string) {
	if s.trail == nil {
		return
	}
	err := s.trail.Log(ctx, audit.Entry{
		ActorType: audit.ActorTaker,
		ActorID:   takerID,
		Action:    action,
		Scope:     audit.ScopeAttempt,
		ScopeID:   attemptID,
		Summary:   summary,
	})
	if err != nil {
		s.log.Warn("audit entry dropped", "action", action, "attempt", attemptID, "error", err)
	}
}
