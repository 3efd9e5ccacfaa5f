// Package sentence splits passage plain text into sentence units with
// offsets in plain-text coordinates.
package sentence

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/examdesk/internal/textpos"
)

// boundaryPattern matches terminal punctuation followed by whitespace. The
// end of each match is a sentence boundary.
var boundaryPattern = regexp.MustCompile(`[.!?]+\s+`)

// Range is a half-open [Start, End) span of plain text.
type Range struct {
	Start textpos.PlainOffset `json:"start"`
	End   textpos.PlainOffset `json:"end"`
}

// Contains reports whether r fully covers [start, end).
func (r Range) Contains(start, end textpos.PlainOffset) bool {
	return start >= r.Start && end <= r.End && start <= end
}

// Sentence is one kept sentence. Index counts kept sentences only.
type Sentence struct {
	Index int                 `json:"index"`
	Start textpos.PlainOffset `json:"start"`
	End   textpos.PlainOffset `json:"end"`
	Text  string              `json:"text"`
}

// Range returns the sentence span.
func (s Sentence) Range() Range {
	return Range{Start: s.Start, End: s.End}
}

// Segmentation is the result of splitting one content string.
type Segmentation struct {
	Plain     string
	Sentences []Sentence
	// Boundaries holds every raw candidate, including the whitespace-only
	// ones dropped from Sentences, so it always covers the plain text
	// without gaps.
	Boundaries []Range
}

// Split strips markup from content and splits the plain text into
// sentences.
func Split(content string) Segmentation {
	return SplitPlain(textpos.StripTags(content))
}

// SplitPlain splits already-stripped text.
func SplitPlain(plain string) Segmentation {
	seg := Segmentation{Plain: plain}
	if plain == "" {
		return seg
	}

	toUnits := textpos.ByteIndex(plain)
	start := 0
	for _, m := range boundaryPattern.FindAllStringIndex(plain, -1) {
		seg.add(plain, start, m[1], toUnits)
		start = m[1]
	}
	if start < len(plain) {
		seg.add(plain, start, len(plain), toUnits)
	}
	return seg
}

func (seg *Segmentation) add(plain string, from, to int, toUnits func(int) int) {
	r := Range{
		Start: textpos.PlainOffset(toUnits(from)),
		End:   textpos.PlainOffset(toUnits(to)),
	}
	seg.Boundaries = append(seg.Boundaries, r)

	text := strings.TrimSpace(plain[from:to])
	if text == "" {
		return
	}
	seg.Sentences = append(seg.Sentences, Sentence{
		Index: len(seg.Sentences),
		Start: r.Start,
		End:   r.End,
		Text:  text,
	})
}

// Texts returns the trimmed sentence strings.
func (seg Segmentation) Texts() []string {
	out := make([]string, len(seg.Sentences))
	for i, s := range seg.Sentences {
		out[i] = s.Text
	}
	return out
}

// Ranges returns the sentence spans, parallel to Texts.
func (seg Segmentation) Ranges() []Range {
	out := make([]Range, len(seg.Sentences))
	for i, s := range seg.Sentences {
		out[i] = s.Range()
	}
	return out
}

// Get returns the sentence at index i.
func (seg Segmentation) Get(i int) (Sentence, bool) {
	if i < 0 || i >= len(seg.Sentences) {
		return Sentence{}, false
	}
	return seg.Sentences[i], true
}

// Containing returns the sentence whose span fully covers [start, end).
func (seg Segmentation) Containing(start, end textpos.PlainOffset) (Sentence, bool) {
	for _, s := range seg.Sentences {
		if s.Range().Contains(start, end) {
			return s, true
		}
	}
	return Sentence{}, false
}
