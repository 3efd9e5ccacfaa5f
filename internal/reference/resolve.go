package reference

import (
	"sort"

	"github.com/ziadkadry99/examdesk/internal/logger"
	"github.com/ziadkadry99/examdesk/internal/sentence"
)

// Result is the resolved highlight set for one render.
type Result struct {
	// Full holds every resolved index, sub-range references included. Use
	// IsFull to tell whole-sentence highlights from partial ones.
	Full      map[int]struct{}         `json:"-"`
	SubRanges map[int][]sentence.Range `json:"sub_ranges"`
	// Order lists resolved sentence indices in the order references
	// first named them.
	Order []int `json:"order"`
	// ScrollTarget is the smallest resolved index, or -1 when empty.
	ScrollTarget int `json:"scroll_target"`
}

func newResult() Result {
	return Result{
		Full:         map[int]struct{}{},
		SubRanges:    map[int][]sentence.Range{},
		ScrollTarget: -1,
	}
}

// Empty reports whether nothing should be highlighted.
func (r Result) Empty() bool {
	return len(r.Order) == 0
}

// IsFull reports whether sentence i is highlighted as a whole. Any
// sub-range for i turns it into a partial highlight.
func (r Result) IsFull(i int) bool {
	_, ok := r.Full[i]
	return ok && len(r.SubRanges[i]) == 0
}

// IsHighlighted reports whether sentence i has any highlight.
func (r Result) IsHighlighted(i int) bool {
	_, ok := r.Full[i]
	return ok || len(r.SubRanges[i]) > 0
}

// Indices returns the resolved indices in ascending order.
func (r Result) Indices() []int {
	out := append([]int(nil), r.Order...)
	sort.Ints(out)
	return out
}

// FullIndices returns the fully highlighted indices in ascending order.
func (r Result) FullIndices() []int {
	var out []int
	for _, i := range r.Indices() {
		if r.IsFull(i) {
			out = append(out, i)
		}
	}
	return out
}

// Resolver turns stored references into a Result.
type Resolver struct {
	log *logger.Logger
}

func NewResolver(log *logger.Logger) *Resolver {
	return &Resolver{log: logger.OrNop(log)}
}

// Resolve validates refs against seg and builds the highlight set. It has
// no state: the same inputs always produce an equal Result.
func (rv *Resolver) Resolve(refs References, seg sentence.Segmentation) Result {
	res := newResult()
	seen := map[int]bool{}

	for _, ref := range refs {
		s, ok := seg.Get(ref.SentenceIndex)
		if !ok {
			rv.log.Debug("dropping sentence reference past end of passage",
				"index", ref.SentenceIndex, "sentences", len(seg.Sentences))
			continue
		}

		if ref.Partial {
			if ref.Start >= ref.End || !s.Range().Contains(ref.Start, ref.End) {
				rv.log.Debug("dropping sub-range outside its sentence",
					"index", ref.SentenceIndex, "start", ref.Start, "end", ref.End,
					"sentence_start", s.Start, "sentence_end", s.End)
				continue
			}
			res.SubRanges[s.Index] = append(res.SubRanges[s.Index], sentence.Range{Start: ref.Start, End: ref.End})
		}
		res.Full[s.Index] = struct{}{}

		if !seen[s.Index] {
			seen[s.Index] = true
			res.Order = append(res.Order, s.Index)
			if res.ScrollTarget < 0 || s.Index < res.ScrollTarget {
				res.ScrollTarget = s.Index
			}
		}
	}

	for i, ranges := range res.SubRanges {
		sort.Slice(ranges, func(a, b int) bool { return ranges[a].Start < ranges[b].Start })
		res.SubRanges[i] = ranges
	}
	return res
}
