package highlight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func testEngine(blockSpanning bool) *Engine {
	n := 0
	return NewEngine(nil, Options{
		DefaultColor:  Yellow,
		BlockSpanning: blockSpanning,
		NewID: func() string {
			n++
			return fmt.Sprintf("hl-%d", n)
		},
	})
}

func mustParse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Parse(content)
	require.NoError(t, err)
	return doc
}

func mustRender(t *testing.T, doc *Document) string {
	t.Helper()
	out, err := doc.Render()
	require.NoError(t, err)
	return out
}

// findText returns the first text node whose data equals s.
func findText(t *testing.T, doc *Document, s string) *html.Node {
	t.Helper()
	for _, n := range textLeaves(doc.Root) {
		if n.Data == s {
			return n
		}
	}
	t.Fatalf("no text node %q", s)
	return nil
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func TestApply_SingleLeaf(t *testing.T) {
	doc := mustParse(t, "Hello world.")
	eng := testEngine(true)

	rng, err := doc.RangeAt(6, 11)
	require.NoError(t, err)
	rec, ok := eng.Apply(doc, rng, Green)
	require.True(t, ok)

	assert.Equal(t, Record{ID: "hl-1", Start: 6, End: 11, Color: Green, Text: "world"}, rec)

	kids := children(doc.Root)
	require.Len(t, kids, 3)
	assert.Equal(t, "Hello ", kids[0].Data)
	assert.True(t, IsMarker(kids[1]))
	assert.Equal(t, "world", kids[1].FirstChild.Data)
	assert.Equal(t, ".", kids[2].Data)
	assert.Equal(t, "Hello world.", doc.TextContent())
	assert.Contains(t, mustRender(t, doc), `data-highlight-color="green"`)
	assert.Contains(t, mustRender(t, doc), `background-color: #bbf7d0`)

	require.True(t, eng.Remove(doc, kids[1]))
	kids = children(doc.Root)
	require.Len(t, kids, 1)
	assert.Equal(t, html.TextNode, kids[0].Type)
	assert.Equal(t, "Hello world.", kids[0].Data)
	assert.Empty(t, doc.Records())
}

func TestApply_AcrossInlineElements(t *testing.T) {
	const content = "<p>Hello <b>bold</b> world</p>"
	doc := mustParse(t, content)
	eng := testEngine(true)

	rng, err := doc.RangeAt(3, 13)
	require.NoError(t, err)
	rec, ok := eng.Apply(doc, rng, Blue)
	require.True(t, ok)
	assert.Equal(t, "lo bold wo", rec.Text)

	markers := doc.MarkersFor(rec.ID)
	require.Len(t, markers, 3)
	assert.Equal(t, "b", markers[1].Parent.Data, "bold keeps its element and gains an inner marker")

	out := mustRender(t, doc)
	assert.True(t, strings.HasPrefix(out, `<p>Hel<span class="hl-marker hl-blue"`), out)
	assert.Contains(t, out, `">lo </span><b><span`)
	assert.True(t, strings.HasSuffix(out, `"> wo</span>rld</p>`), out)
	assert.Equal(t, "Hello bold world", doc.TextContent())

	require.True(t, eng.RemoveRecord(doc, rec.ID))
	assert.Equal(t, content, mustRender(t, doc))
	assert.Empty(t, doc.Markers())
}

func TestApply_AcrossBlocks(t *testing.T) {
	const content = "<p>A</p><p>B</p>"

	t.Run("walk wraps each leaf", func(t *testing.T) {
		doc := mustParse(t, content)
		rng := Range{
			StartContainer: findText(t, doc, "A"), StartOffset: 0,
			EndContainer: findText(t, doc, "B"), EndOffset: 1,
		}
		rec, ok := testEngine(true).Apply(doc, rng, Yellow)
		require.True(t, ok)
		assert.Len(t, doc.MarkersFor(rec.ID), 2)
		assert.Equal(t, "AB", doc.TextContent())
	})

	t.Run("refused without block spanning", func(t *testing.T) {
		doc := mustParse(t, content)
		rng := Range{
			StartContainer: findText(t, doc, "A"), StartOffset: 0,
			EndContainer: findText(t, doc, "B"), EndOffset: 1,
		}
		_, ok := testEngine(false).Apply(doc, rng, Yellow)
		assert.False(t, ok)
		assert.Equal(t, content, mustRender(t, doc))
	})

	t.Run("refused with default options", func(t *testing.T) {
		doc := mustParse(t, content)
		rng := Range{
			StartContainer: findText(t, doc, "A"), StartOffset: 0,
			EndContainer: findText(t, doc, "B"), EndOffset: 1,
		}
		_, ok := NewEngine(nil, DefaultOptions()).Apply(doc, rng, Yellow)
		assert.False(t, ok)
		assert.Equal(t, content, mustRender(t, doc))
		assert.Empty(t, doc.Markers())
	})

	t.Run("malformed range gets no fallback", func(t *testing.T) {
		doc := mustParse(t, content)
		rng := Range{
			StartContainer: findText(t, doc, "A"), StartOffset: 0,
			EndContainer: findText(t, doc, "B"), EndOffset: 9,
		}
		_, ok := testEngine(true).Apply(doc, rng, Yellow)
		assert.False(t, ok)
		assert.Equal(t, content, mustRender(t, doc))
	})
}

func TestApply_FallbackSingleWrap(t *testing.T) {
	const content = "<p>Hello <b>x</b> world</p>"
	doc := mustParse(t, content)
	eng := testEngine(true)

	rng := Range{
		StartContainer: findText(t, doc, "Hello "), StartOffset: 2,
		EndContainer: findText(t, doc, " world"), EndOffset: 99,
	}
	rec, ok := eng.Apply(doc, rng, Pink)
	require.True(t, ok)
	assert.Equal(t, 2, rec.Start)
	assert.Equal(t, 13, rec.End)
	assert.Equal(t, "llo x world", rec.Text)

	markers := doc.MarkersFor(rec.ID)
	require.Len(t, markers, 1)
	out := mustRender(t, doc)
	assert.True(t, strings.HasPrefix(out, `<p>He<span class="hl-marker hl-pink"`), out)
	assert.True(t, strings.HasSuffix(out, `">llo <b>x</b> world</span></p>`), out)

	require.True(t, eng.Remove(doc, markers[0]))
	assert.Equal(t, content, mustRender(t, doc))

	t.Run("end at start of text node", func(t *testing.T) {
		const content = "<p>abc<b>XY</b>def</p>"
		doc := mustParse(t, content)
		rng := Range{
			StartContainer: findText(t, doc, "abc"), StartOffset: 99,
			EndContainer: findText(t, doc, "def"), EndOffset: 0,
		}
		rec, ok := eng.Apply(doc, rng, Pink)
		require.True(t, ok)
		assert.Equal(t, 3, rec.Start)
		assert.Equal(t, 5, rec.End)
		assert.Equal(t, "XY", rec.Text)

		out := mustRender(t, doc)
		assert.True(t, strings.HasPrefix(out, `<p>abc<span class="hl-marker hl-pink"`), out)
		assert.True(t, strings.HasSuffix(out, `"><b>XY</b></span>def</p>`), out)

		markers := doc.MarkersFor(rec.ID)
		require.Len(t, markers, 1)
		require.True(t, eng.Remove(doc, markers[0]))
		assert.Equal(t, content, mustRender(t, doc))
	})
}

func TestApply_ElementBoundaries(t *testing.T) {
	doc := mustParse(t, "<p>one</p><p>two</p>")
	rng := Range{StartContainer: doc.Root, StartOffset: 0, EndContainer: doc.Root, EndOffset: 1}

	rec, ok := testEngine(true).Apply(doc, rng, Orange)
	require.True(t, ok)
	assert.Equal(t, "one", rec.Text)
	assert.Equal(t, `<p><span class="hl-marker hl-orange" data-highlight-id="hl-1" data-highlight-color="orange" data-action="remove-highlight" style="background-color: #fed7aa; cursor: pointer">one</span></p><p>two</p>`, mustRender(t, doc))
}

func TestApply_Rejections(t *testing.T) {
	const content = "<p>Hello world.</p>"
	detached := &html.Node{Type: html.TextNode, Data: "elsewhere"}

	cases := map[string]func(doc *Document) Range{
		"collapsed": func(doc *Document) Range {
			n := findText(t, doc, "Hello world.")
			return Range{StartContainer: n, StartOffset: 3, EndContainer: n, EndOffset: 3}
		},
		"inverted": func(doc *Document) Range {
			n := findText(t, doc, "Hello world.")
			return Range{StartContainer: n, StartOffset: 5, EndContainer: n, EndOffset: 2}
		},
		"detached": func(doc *Document) Range {
			return Range{StartContainer: detached, StartOffset: 0, EndContainer: detached, EndOffset: 4}
		},
		"nil": func(doc *Document) Range {
			return Range{}
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			doc := mustParse(t, content)
			var calls int
			eng := testEngine(true)
			eng.OnChange(func([]Record) { calls++ })

			_, ok := eng.Apply(doc, build(doc), Yellow)
			assert.False(t, ok)
			assert.Equal(t, content, mustRender(t, doc))
			assert.Zero(t, calls)
		})
	}
}

func TestApply_SkipsLayoutWhitespace(t *testing.T) {
	doc := mustParse(t, "<ul>\n<li>one</li>\n<li>two</li>\n</ul>")
	rng, err := doc.RangeAt(0, len("\none\ntwo"))
	require.NoError(t, err)

	rec, ok := testEngine(true).Apply(doc, rng, Yellow)
	require.True(t, ok)
	for _, m := range doc.MarkersFor(rec.ID) {
		assert.Equal(t, "li", m.Parent.Data)
	}
	assert.Len(t, doc.MarkersFor(rec.ID), 2)
}

func TestApply_InvalidColorFallsBack(t *testing.T) {
	doc := mustParse(t, "abc")
	rng, _ := doc.RangeAt(0, 2)
	rec, ok := testEngine(true).Apply(doc, rng, Color("teal"))
	require.True(t, ok)
	assert.Equal(t, Yellow, rec.Color)
}

func TestOnChangeReportsRecords(t *testing.T) {
	doc := mustParse(t, "One two three four.")
	eng := testEngine(true)
	var seen [][]Record
	eng.OnChange(func(rs []Record) { seen = append(seen, rs) })

	r1, _ := doc.RangeAt(0, 3)
	first, ok := eng.Apply(doc, r1, Yellow)
	require.True(t, ok)
	r2, _ := doc.RangeAt(4, 7)
	second, ok := eng.Apply(doc, r2, Purple)
	require.True(t, ok)
	require.True(t, eng.RemoveRecord(doc, first.ID))

	require.Len(t, seen, 3)
	assert.Len(t, seen[1], 2)
	assert.Equal(t, []Record{second}, seen[2])
}

func TestRemove_IgnoresNonMarkers(t *testing.T) {
	doc := mustParse(t, "<p><span class=\"note\">x</span></p>")
	eng := testEngine(true)

	span := doc.Root.FirstChild.FirstChild
	assert.False(t, eng.Remove(doc, span))
	assert.False(t, eng.Remove(doc, nil))
	assert.False(t, eng.RemoveRecord(doc, "missing"))
}

func TestApplyRecord_Reapplies(t *testing.T) {
	doc := mustParse(t, "<p>Alpha <i>beta</i> gamma.</p>")
	eng := testEngine(true)

	ok := eng.ApplyRecord(doc, Record{ID: "stored", Start: 6, End: 10, Color: Green})
	require.True(t, ok)
	require.Len(t, doc.MarkersFor("stored"), 1)
	assert.Equal(t, "beta", doc.Records()[0].Text)

	assert.False(t, eng.ApplyRecord(doc, Record{ID: "late", Start: 40, End: 50}))
}

func TestApplyRemove_PreservesContent(t *testing.T) {
	const content = `<p>One <em>two</em> three.</p><ul><li>four</li><li>five <strong class="k">six</strong></li></ul>`
	base := mustParse(t, content)
	want := mustRender(t, base)
	text := base.TextContent()
	n := len(text)

	for start := 0; start < n; start++ {
		for end := start + 1; end <= n; end++ {
			doc := mustParse(t, content)
			eng := testEngine(true)
			rng, err := doc.RangeAt(start, end)
			require.NoError(t, err)

			rec, ok := eng.Apply(doc, rng, Yellow)
			assert.Equal(t, text, doc.TextContent(), "apply [%d,%d)", start, end)
			if !ok {
				continue
			}
			assert.Equal(t, text[start:end], rec.Text)
			require.True(t, eng.RemoveRecord(doc, rec.ID))
			assert.Equal(t, text, doc.TextContent(), "remove [%d,%d)", start, end)
			assert.Equal(t, want, mustRender(t, doc), "remove [%d,%d)", start, end)
		}
	}
}

func TestParseColor(t *testing.T) {
	for _, c := range Colors() {
		got, err := ParseColor(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.NotEmpty(t, c.Background())
	}
	_, err := ParseColor("teal")
	assert.Error(t, err)
}
