package highlight

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/examdesk/internal/textpos"
)

// Document is a parsed passage fragment under a synthetic container
// element. It is the live tree the engine mutates.
type Document struct {
	Root    *html.Node
	records []Record
}

// Parse parses an HTML fragment into a Document.
func Parse(content string) (*Document, error) {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), root)
	if err != nil {
		return nil, fmt.Errorf("parsing passage fragment: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Document{Root: root}, nil
}

// Render serialises the container's children.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("rendering passage: %w", err)
		}
	}
	return buf.String(), nil
}

// TextContent concatenates every text node in document order, the same
// string a browser reports as the container's textContent.
func (d *Document) TextContent() string {
	var b strings.Builder
	for _, n := range textLeaves(d.Root) {
		b.WriteString(n.Data)
	}
	return b.String()
}

// Records returns the manual highlights currently applied to d.
func (d *Document) Records() []Record {
	return append([]Record(nil), d.records...)
}

// Markers returns every highlight marker element in document order.
func (d *Document) Markers() []*html.Node {
	var out []*html.Node
	walk(d.Root, func(n *html.Node) {
		if IsMarker(n) {
			out = append(out, n)
		}
	})
	return out
}

// MarkersFor returns the marker segments belonging to one record.
func (d *Document) MarkersFor(id string) []*html.Node {
	var out []*html.Node
	for _, m := range d.Markers() {
		if attr(m, attrID) == id {
			out = append(out, m)
		}
	}
	return out
}

// RangeAt builds a Range over [start, end) of TextContent, in UTF-16
// units, the way a browser selection lands on text nodes: the start sits
// at the beginning of the following node when it falls on a node
// boundary, the end at the close of the preceding one.
func (d *Document) RangeAt(start, end int) (Range, error) {
	if start >= end {
		return Range{}, fmt.Errorf("empty range [%d, %d)", start, end)
	}
	var rng Range
	pos := 0
	for _, n := range textLeaves(d.Root) {
		l := textpos.Len(n.Data)
		if rng.StartContainer == nil && start >= pos && start < pos+l {
			rng.StartContainer, rng.StartOffset = n, start-pos
		}
		if rng.StartContainer != nil && end > pos && end <= pos+l {
			rng.EndContainer, rng.EndOffset = n, end-pos
			return rng, nil
		}
		pos += l
	}
	return Range{}, fmt.Errorf("range [%d, %d) outside text of length %d", start, end, pos)
}

// textOffset returns the TextContent offset of a boundary point.
func (d *Document) textOffset(container *html.Node, offset int) (int, error) {
	idx := d.index()
	key, err := idx.key(container, offset)
	if err != nil {
		return 0, err
	}
	pos := 0
	for _, n := range textLeaves(d.Root) {
		i := idx.order[n]
		if i >= key.node {
			if i == key.node {
				pos += key.unit
			}
			break
		}
		pos += textpos.Len(n.Data)
	}
	return pos, nil
}

// textLeaves returns the text nodes under root in document order.
func textLeaves(root *html.Node) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n)
		}
	})
	return out
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// treeIndex numbers the nodes of a document in preorder.
type treeIndex struct {
	nodes []*html.Node
	order map[*html.Node]int
	last  map[*html.Node]int
}

func (d *Document) index() *treeIndex {
	idx := &treeIndex{order: map[*html.Node]int{}, last: map[*html.Node]int{}}
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		idx.order[n] = len(idx.nodes)
		idx.nodes = append(idx.nodes, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		idx.last[n] = len(idx.nodes) - 1
	}
	visit(d.Root)
	return idx
}

// pointKey orders boundary points: unit is only meaningful for text nodes.
type pointKey struct {
	node int
	unit int
}

func (k pointKey) less(o pointKey) bool {
	if k.node != o.node {
		return k.node < o.node
	}
	return k.unit < o.unit
}

// key converts a DOM boundary point into a pointKey, rejecting points
// outside the document or past the end of their container.
func (idx *treeIndex) key(container *html.Node, offset int) (pointKey, error) {
	if container == nil {
		return pointKey{}, fmt.Errorf("nil range container")
	}
	i, ok := idx.order[container]
	if !ok {
		return pointKey{}, fmt.Errorf("range container is detached from the passage")
	}
	if offset < 0 {
		return pointKey{}, fmt.Errorf("negative range offset %d", offset)
	}

	if container.Type == html.TextNode {
		if offset > textpos.Len(container.Data) {
			return pointKey{}, fmt.Errorf("offset %d past text length %d", offset, textpos.Len(container.Data))
		}
		return pointKey{node: i, unit: offset}, nil
	}

	k := 0
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if k == offset {
			return pointKey{node: idx.order[c]}, nil
		}
		k++
	}
	if offset > k {
		return pointKey{}, fmt.Errorf("offset %d past %d children", offset, k)
	}
	return pointKey{node: idx.last[container] + 1}, nil
}
