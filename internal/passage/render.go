// Package passage renders passage and question content with reference
// highlights, manual highlights and option overlays applied.
package passage

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/logger"
	"github.com/ziadkadry99/examdesk/internal/reference"
	"github.com/ziadkadry99/examdesk/internal/sentence"
	"github.com/ziadkadry99/examdesk/internal/textpos"
)

const (
	sentenceClass = "sentence-highlight"
	partialClass  = "sentence-partial"
)

// Mode carries the display toggles that change how a passage renders.
type Mode struct {
	Highlighting bool `json:"highlighting"`
}

// Classes returns the style scope for the passage container. Highlight
// styling is keyed off these classes rather than an injected stylesheet.
func (m Mode) Classes() []string {
	classes := []string{"passage"}
	if m.Highlighting {
		classes = append(classes, "highlighting-enabled")
	}
	return classes
}

// View is one rendered passage.
type View struct {
	HTML          string                   `json:"html"`
	Sentences     []sentence.Sentence      `json:"sentences"`
	Highlighted   []int                    `json:"highlighted"`
	FullSentences []int                    `json:"full_sentences"`
	SubRanges     map[int][]sentence.Range `json:"sub_ranges,omitempty"`
	ScrollTarget  int                      `json:"scroll_target"`
	ScrollDelayMS int64                    `json:"scroll_delay_ms"`
	Classes       []string                 `json:"classes"`
	Highlights    []highlight.Record       `json:"highlights"`
}

// Renderer composes segmentation, resolution and highlighting. Every call
// recomputes from scratch; nothing is cached between renders.
type Renderer struct {
	log         *logger.Logger
	resolver    *reference.Resolver
	engine      *highlight.Engine
	scrollDelay time.Duration
}

func NewRenderer(log *logger.Logger, engine *highlight.Engine, scrollDelay time.Duration) *Renderer {
	log = logger.OrNop(log)
	if engine == nil {
		engine = highlight.NewEngine(log, highlight.DefaultOptions())
	}
	return &Renderer{
		log:         log,
		resolver:    reference.NewResolver(log),
		engine:      engine,
		scrollDelay: scrollDelay,
	}
}

// Render marks the sentences refs point at inside content. Offsets are
// resolved against content as stored; the marked-up result is sanitized.
func (r *Renderer) Render(content string, refs reference.References, mode Mode) View {
	seg := sentence.Split(content)
	res := r.resolver.Resolve(refs, seg)

	v := View{
		HTML:          Sanitize(markSentences(content, seg, res)),
		Sentences:     seg.Sentences,
		Highlighted:   res.Indices(),
		FullSentences: res.FullIndices(),
		SubRanges:     res.SubRanges,
		ScrollTarget:  res.ScrollTarget,
		Classes:       mode.Classes(),
		Highlights:    []highlight.Record{},
	}
	if !res.Empty() {
		v.ScrollDelayMS = r.scrollDelay.Milliseconds()
	}
	if v.Sentences == nil {
		v.Sentences = []sentence.Sentence{}
	}
	return v
}

// ApplyManual layers persisted manual highlights over a rendered view.
// Records that no longer fit the passage are skipped.
func (r *Renderer) ApplyManual(v *View, records []highlight.Record) {
	if len(records) == 0 {
		return
	}
	doc, err := highlight.Parse(v.HTML)
	if err != nil {
		r.log.Warn("manual highlights skipped", "error", err)
		return
	}
	for _, rec := range records {
		r.engine.ApplyRecord(doc, rec)
	}
	out, err := doc.Render()
	if err != nil {
		r.log.Warn("manual highlights skipped", "error", err)
		return
	}
	v.HTML = out
	v.Highlights = doc.Records()
}

type span struct {
	start, end textpos.PlainOffset
	index      int
	partial    bool
}

func collectSpans(seg sentence.Segmentation, res reference.Result) []span {
	units := textpos.Units(seg.Plain)
	var spans []span
	for _, i := range res.Indices() {
		s, ok := seg.Get(i)
		if !ok {
			continue
		}
		if res.IsFull(i) {
			if sp, ok := trimSpan(units, span{start: s.Start, end: s.End, index: i}); ok {
				spans = append(spans, sp)
			}
			continue
		}
		for _, rg := range mergeRanges(res.SubRanges[i]) {
			if sp, ok := trimSpan(units, span{start: rg.Start, end: rg.End, index: i, partial: true}); ok {
				spans = append(spans, sp)
			}
		}
	}
	return spans
}

// markSentences re-slices content at the mapped sentence boundaries and
// wraps each text run inside a highlighted span. Runs stop at tags, so the
// original markup is emitted untouched and stays balanced.
func markSentences(content string, seg sentence.Segmentation, res reference.Result) string {
	spans := collectSpans(seg, res)
	if len(spans) == 0 {
		return content
	}

	var b strings.Builder
	cursor := textpos.HTMLOffset(0)
	scrollMarked := false
	for _, sp := range spans {
		hs := textpos.SkipTags(content, textpos.MapPlainToHTML(content, seg.Plain, sp.start))
		he := textpos.MapPlainToHTML(content, seg.Plain, sp.end-1) + 1
		if hs < cursor {
			hs = cursor
		}
		if he <= hs {
			continue
		}
		b.WriteString(textpos.SliceHTML(content, cursor, hs))

		open := openTag(sp, !scrollMarked && sp.index == res.ScrollTarget)
		scrollMarked = scrollMarked || sp.index == res.ScrollTarget
		wrapRuns(&b, textpos.SliceHTML(content, hs, he), open, func() string {
			return openTag(sp, false)
		})
		cursor = he
	}
	b.WriteString(textpos.SliceHTML(content, cursor, textpos.HTMLOffset(textpos.Len(content))))
	return b.String()
}

// wrapRuns writes fragment with every non-blank text run between tags
// wrapped in a span. first is used for the first run, next for the rest.
func wrapRuns(b *strings.Builder, fragment, first string, next func() string) {
	open := first
	inTag := false
	var run strings.Builder
	flush := func() {
		if run.Len() == 0 {
			return
		}
		text := run.String()
		run.Reset()
		if strings.TrimSpace(text) == "" {
			b.WriteString(text)
			return
		}
		b.WriteString(open)
		b.WriteString(text)
		b.WriteString("</span>")
		open = next()
	}
	for _, c := range fragment {
		switch {
		case c == '<':
			flush()
			inTag = true
			b.WriteRune(c)
		case inTag:
			if c == '>' {
				inTag = false
			}
			b.WriteRune(c)
		default:
			run.WriteRune(c)
		}
	}
	flush()
}

func openTag(sp span, scrollTarget bool) string {
	class := sentenceClass
	if sp.partial {
		class += " " + partialClass
	}
	tag := fmt.Sprintf(`<span class="%s" data-sentence="%d"`, class, sp.index)
	if scrollTarget {
		tag += ` data-scroll-target="true"`
	}
	return tag + ">"
}

// trimSpan drops leading and trailing whitespace from sp.
func trimSpan(units []uint16, sp span) (span, bool) {
	for sp.start < sp.end && int(sp.start) < len(units) && isSpace(units[sp.start]) {
		sp.start++
	}
	for sp.end > sp.start && int(sp.end) <= len(units) && isSpace(units[sp.end-1]) {
		sp.end--
	}
	return sp, sp.end > sp.start
}

func isSpace(u uint16) bool {
	return unicode.IsSpace(rune(u))
}

// mergeRanges sorts ranges and joins overlapping or touching ones.
func mergeRanges(in []sentence.Range) []sentence.Range {
	if len(in) == 0 {
		return nil
	}
	rs := append([]sentence.Range(nil), in...)
	sort.Slice(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })
	out := []sentence.Range{rs[0]}
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
