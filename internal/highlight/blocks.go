package highlight

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockAtoms = map[atom.Atom]bool{
	atom.Div: true, atom.P: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Blockquote: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Aside: true, atom.Main: true,
	atom.Br: true,
}

// isBlock returns true for the elements a fallback wrap must never span.
func isBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockAtoms[n.DataAtom]
}

// blockAncestor returns the nearest block element containing n, stopping
// at root. It returns nil when n is not under root.
func blockAncestor(root, n *html.Node) *html.Node {
	if n == root {
		return root
	}
	var block *html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		if block == nil && (isBlock(p) || p == root) {
			block = p
		}
		if p == root {
			return block
		}
	}
	return nil
}

// crossesBlock reports whether rng leaves its starting block or passes
// over a block element on the way to its end.
func crossesBlock(doc *Document, rng Range) bool {
	if rng.StartContainer == nil || rng.EndContainer == nil {
		return true
	}
	startLeaf := pointNode(rng.StartContainer, rng.StartOffset)
	endLeaf := pointNode(rng.EndContainer, rng.EndOffset)

	sb := blockAncestor(doc.Root, startLeaf)
	eb := blockAncestor(doc.Root, endLeaf)
	if sb == nil || eb == nil || sb != eb {
		return true
	}

	idx := doc.index()
	from, okFrom := idx.order[startLeaf]
	to, okTo := idx.order[endLeaf]
	if !okFrom || !okTo {
		return true
	}
	for i := from + 1; i < to; i++ {
		if isBlock(idx.nodes[i]) {
			return true
		}
	}
	return false
}

// pointNode picks the node a boundary point sits in or next to. Element
// points resolve to the child at the offset, or the element itself when
// the offset is past its last child.
func pointNode(container *html.Node, offset int) *html.Node {
	if container.Type != html.ElementNode {
		return container
	}
	i := 0
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if i == offset {
			return c
		}
		i++
	}
	return container
}
