// Package highlight inserts and removes highlight markers in a parsed
// passage DOM without disturbing any other node, attribute or text.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/examdesk/internal/logger"
	"github.com/ziadkadry99/examdesk/internal/textpos"
)

const (
	markerClass = "hl-marker"
	attrID      = "data-highlight-id"
	attrColor   = "data-highlight-color"
	attrAction  = "data-action"

	// RemoveAction is the data-action value the client binds clicks to.
	RemoveAction = "remove-highlight"
)

// Range is a DOM selection range. For text containers offsets count UTF-16
// units of the text; for element containers they are child indices.
type Range struct {
	StartContainer *html.Node
	StartOffset    int
	EndContainer   *html.Node
	EndOffset      int
}

// Record is a manual highlight. Start and End are TextContent offsets.
// Identity is the ID: two records may cover adjacent or overlapping text.
type Record struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Color Color  `json:"color"`
	Text  string `json:"text,omitempty"`
}

// Options configures an Engine.
type Options struct {
	DefaultColor Color
	// BlockSpanning allows the structural walk to wrap selections that
	// cross block elements. When false such selections are refused.
	BlockSpanning bool
	NewID         func() string
}

// DefaultOptions returns yellow markers and UUID ids. Selections that
// cross a block boundary are refused.
func DefaultOptions() Options {
	return Options{
		DefaultColor: Yellow,
		NewID:        uuid.NewString,
	}
}

// Engine applies and removes highlight markers. Failures are logged and
// reported as false; they never surface as errors to the caller.
type Engine struct {
	log      *logger.Logger
	opts     Options
	onChange func([]Record)
}

func NewEngine(log *logger.Logger, opts Options) *Engine {
	if !opts.DefaultColor.Valid() {
		opts.DefaultColor = Yellow
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{log: logger.OrNop(log), opts: opts}
}

// OnChange registers fn to receive the document's records after every
// successful apply or remove.
func (e *Engine) OnChange(fn func([]Record)) {
	e.onChange = fn
}

var errNothingSelected = errors.New("selection contains no text")

// Apply highlights rng in doc with a fresh record id.
func (e *Engine) Apply(doc *Document, rng Range, color Color) (Record, bool) {
	return e.apply(doc, rng, color, e.opts.NewID())
}

// ApplyRecord re-applies a persisted record by its text offsets.
func (e *Engine) ApplyRecord(doc *Document, rec Record) bool {
	rng, err := doc.RangeAt(rec.Start, rec.End)
	if err != nil {
		e.log.Debug("stored highlight no longer fits passage", "id", rec.ID, "error", err)
		return false
	}
	_, ok := e.apply(doc, rng, rec.Color, rec.ID)
	return ok
}

func (e *Engine) apply(doc *Document, rng Range, color Color, id string) (rec Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("highlight apply aborted", "id", id, "panic", r)
			rec, ok = Record{}, false
		}
	}()

	if !color.Valid() {
		color = e.opts.DefaultColor
	}
	if !e.opts.BlockSpanning && crossesBlock(doc, rng) {
		e.log.Debug("selection crosses a block boundary", "id", id)
		return Record{}, false
	}

	var start, end int
	segs, err := plan(doc, rng)
	switch {
	case err == nil:
		if start, err = doc.textOffset(rng.StartContainer, rng.StartOffset); err == nil {
			end, err = doc.textOffset(rng.EndContainer, rng.EndOffset)
		}
		if err != nil {
			return Record{}, false
		}
		for i := len(segs) - 1; i >= 0; i-- {
			wrapText(segs[i].node, segs[i].from, segs[i].to, newMarker(id, color))
		}
	case errors.Is(err, errNothingSelected):
		return Record{}, false
	default:
		e.log.Debug("structural highlight failed", "id", id, "error", err)
		if crossesBlock(doc, rng) {
			e.log.Debug("no fallback across block boundary", "id", id)
			return Record{}, false
		}
		start, end, err = wrapSingle(doc, rng, newMarker(id, color))
		if err != nil {
			e.log.Debug("fallback highlight failed", "id", id, "error", err)
			return Record{}, false
		}
	}

	text := textpos.Units(doc.TextContent())
	rec = Record{
		ID:    id,
		Start: start,
		End:   end,
		Color: color,
		Text:  textpos.FromUnits(text[start:end]),
	}
	doc.records = append(doc.records, rec)
	e.notify(doc)
	return rec, true
}

// Remove detaches one marker, putting its children back in its place and
// merging the text around it.
func (e *Engine) Remove(doc *Document, marker *html.Node) bool {
	if !e.unwrap(doc, marker) {
		return false
	}
	e.notify(doc)
	return true
}

// RemoveRecord removes every marker segment of the record id.
func (e *Engine) RemoveRecord(doc *Document, id string) bool {
	markers := doc.MarkersFor(id)
	removed := false
	for _, m := range markers {
		if e.unwrap(doc, m) {
			removed = true
		}
	}
	if !removed {
		return false
	}
	e.notify(doc)
	return true
}

func (e *Engine) unwrap(doc *Document, marker *html.Node) bool {
	if !IsMarker(marker) || !doc.contains(marker) {
		e.log.Debug("remove ignored: not a live marker")
		return false
	}
	parent := marker.Parent
	for c := marker.FirstChild; c != nil; {
		next := c.NextSibling
		marker.RemoveChild(c)
		parent.InsertBefore(c, marker)
		c = next
	}
	parent.RemoveChild(marker)
	normalize(parent)

	id := attr(marker, attrID)
	if len(doc.MarkersFor(id)) == 0 {
		doc.dropRecord(id)
	}
	return true
}

func (e *Engine) notify(doc *Document) {
	if e.onChange != nil {
		e.onChange(doc.Records())
	}
}

// segment is a read-only descriptor of the part of one text leaf that a
// selection covers.
type segment struct {
	node     *html.Node
	from, to int
}

// plan collects the intersecting text leaves of rng without touching the
// tree.
func plan(doc *Document, rng Range) ([]segment, error) {
	idx := doc.index()
	sk, err := idx.key(rng.StartContainer, rng.StartOffset)
	if err != nil {
		return nil, fmt.Errorf("range start: %w", err)
	}
	ek, err := idx.key(rng.EndContainer, rng.EndOffset)
	if err != nil {
		return nil, fmt.Errorf("range end: %w", err)
	}
	if ek.less(sk) {
		return nil, fmt.Errorf("range end precedes start")
	}

	var segs []segment
	for _, n := range textLeaves(doc.Root) {
		i := idx.order[n]
		if i < sk.node || i > ek.node {
			continue
		}
		from, to := 0, textpos.Len(n.Data)
		if i == sk.node {
			from = sk.unit
		}
		if i == ek.node {
			to = ek.unit
		}
		if from >= to || layoutWhitespace(n) {
			continue
		}
		segs = append(segs, segment{node: n, from: from, to: to})
	}
	if len(segs) == 0 {
		return nil, errNothingSelected
	}
	return segs, nil
}

var containerAtoms = map[atom.Atom]bool{
	atom.Div: true, atom.Ul: true, atom.Ol: true, atom.Blockquote: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Nav: true, atom.Aside: true, atom.Main: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true, atom.Tr: true,
}

// layoutWhitespace reports whether n is formatting whitespace between
// block children, where a wrapper span would be invalid markup.
func layoutWhitespace(n *html.Node) bool {
	if strings.TrimSpace(n.Data) != "" {
		return false
	}
	p := n.Parent
	return p != nil && p.Type == html.ElementNode && containerAtoms[p.DataAtom]
}

// wrapText replaces n with before-text, marker(selected text), after-text.
func wrapText(n *html.Node, from, to int, marker *html.Node) {
	units := textpos.Units(n.Data)
	parent := n.Parent
	if from > 0 {
		parent.InsertBefore(textNode(textpos.FromUnits(units[:from])), n)
	}
	marker.AppendChild(textNode(textpos.FromUnits(units[from:to])))
	parent.InsertBefore(marker, n)
	if to < len(units) {
		parent.InsertBefore(textNode(textpos.FromUnits(units[to:])), n)
	}
	parent.RemoveChild(n)
}

// wrapSingle is the degraded path: clamp the offsets and wrap the sibling
// run between two text boundaries of one parent in a single marker.
func wrapSingle(doc *Document, rng Range, marker *html.Node) (int, int, error) {
	sc, ec := rng.StartContainer, rng.EndContainer
	if sc == nil || ec == nil || !doc.contains(sc) || !doc.contains(ec) {
		return 0, 0, fmt.Errorf("range is not attached to the passage")
	}
	if sc.Type != html.TextNode || ec.Type != html.TextNode || sc.Parent != ec.Parent {
		return 0, 0, fmt.Errorf("single wrap needs text boundaries under one parent")
	}
	so := clampUnits(rng.StartOffset, sc.Data)
	eo := clampUnits(rng.EndOffset, ec.Data)

	start, err := doc.textOffset(sc, so)
	if err != nil {
		return 0, 0, err
	}
	end, err := doc.textOffset(ec, eo)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, errNothingSelected
	}

	if sc == ec {
		wrapText(sc, so, eo, marker)
		return start, end, nil
	}

	parent := sc.Parent
	// stop is the first node after the selection; nil runs to the end.
	stop := splitText(ec, eo)
	first := splitText(sc, so)
	if first == nil || first == stop {
		return 0, 0, errNothingSelected
	}
	parent.InsertBefore(marker, first)
	for n := first; n != nil && n != stop; {
		next := n.NextSibling
		parent.RemoveChild(n)
		marker.AppendChild(n)
		n = next
	}
	return start, end, nil
}

// splitText splits n at unit offset at, keeping the head in n, and returns
// the node holding the tail (n itself when at is 0).
func splitText(n *html.Node, at int) *html.Node {
	units := textpos.Units(n.Data)
	if at <= 0 {
		return n
	}
	if at >= len(units) {
		return n.NextSibling
	}
	tail := textNode(textpos.FromUnits(units[at:]))
	n.Data = textpos.FromUnits(units[:at])
	n.Parent.InsertBefore(tail, n.NextSibling)
	return tail
}

func clampUnits(offset int, s string) int {
	if offset < 0 {
		return 0
	}
	if l := textpos.Len(s); offset > l {
		return l
	}
	return offset
}

// normalize merges adjacent text children of n and drops empty ones.
func normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if c.Data == "" {
				n.RemoveChild(c)
			} else {
				for next != nil && next.Type == html.TextNode {
					c.Data += next.Data
					after := next.NextSibling
					n.RemoveChild(next)
					next = after
				}
			}
		}
		c = next
	}
}

func newMarker(id string, color Color) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: markerClass + " hl-" + string(color)},
			{Key: attrID, Val: id},
			{Key: attrColor, Val: string(color)},
			{Key: attrAction, Val: RemoveAction},
			{Key: "style", Val: "background-color: " + color.Background() + "; cursor: pointer"},
		},
	}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// IsMarker reports whether n is a highlight marker element.
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == markerClass {
			return true
		}
	}
	return false
}

// MarkerID returns the record id a marker belongs to.
func MarkerID(n *html.Node) string {
	return attr(n, attrID)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func (d *Document) contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.Root {
			return true
		}
	}
	return false
}

func (d *Document) dropRecord(id string) {
	out := d.records[:0]
	for _, r := range d.records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	d.records = out
}
