package exam

import (
	"context"

	"github.com/ziadkadry99/examdesk/internal/overlay"
	"github.com/ziadkadry99/examdesk/internal/passage"
)

// RenderQuestion renders q with the given overlay state. With withRefs set
// the passage shows the question's sentence references; otherwise it is
// rendered plain, as a taker sees it.
func (s *Store) RenderQuestion(ctx context.Context, renderer *passage.Renderer, q Question, st overlay.State, mode passage.Mode, withRefs bool) (passage.QuestionView, error) {
	qv := passage.RenderQuestion(q.Prompt, q.Options, st)
	if q.PassageID == "" {
		return qv, nil
	}
	p, err := s.GetPassage(ctx, q.PassageID)
	if err != nil {
		return qv, err
	}
	if p == nil {
		return qv, nil
	}
	refs := q.References
	if !withRefs {
		refs = nil
	}
	view := renderer.Render(p.Content, refs, mode)
	qv.Passage = &view
	return qv, nil
}
