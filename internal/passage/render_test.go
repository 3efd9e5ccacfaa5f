package passage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/reference"
	"github.com/ziadkadry99/examdesk/internal/sentence"
)

func testRenderer() *Renderer {
	return NewRenderer(nil, nil, 50*time.Millisecond)
}

func TestRender_FullSentence(t *testing.T) {
	v := testRenderer().Render("Hello world. This is a test.", reference.References{reference.Full(1)}, Mode{Highlighting: true})

	assert.Equal(t, `Hello world. <span class="sentence-highlight" data-sentence="1" data-scroll-target="true">This is a test.</span>`, v.HTML)
	assert.Equal(t, []int{1}, v.Highlighted)
	assert.Equal(t, []int{1}, v.FullSentences)
	assert.Equal(t, 1, v.ScrollTarget)
	assert.Equal(t, int64(50), v.ScrollDelayMS)
	assert.Equal(t, []string{"passage", "highlighting-enabled"}, v.Classes)
	require.Len(t, v.Sentences, 2)
	assert.Equal(t, "Hello world.", v.Sentences[0].Text)
}

func TestRender_EmptyReferencesClearMarkers(t *testing.T) {
	content := "<p>Hello world. This is a test.</p>"
	r := testRenderer()

	before := r.Render(content, reference.References{reference.Full(0)}, Mode{})
	require.Contains(t, before.HTML, sentenceClass)

	after := r.Render(content, nil, Mode{})
	assert.Equal(t, content, after.HTML)
	assert.Empty(t, after.Highlighted)
	assert.Equal(t, -1, after.ScrollTarget)
	assert.Zero(t, after.ScrollDelayMS)
	assert.Equal(t, []string{"passage"}, after.Classes)
}

func TestRender_KeepsInlineMarkupBalanced(t *testing.T) {
	v := testRenderer().Render("<p><b>Hi</b> there. Bye.</p>", reference.References{reference.Full(0)}, Mode{})

	assert.Equal(t, `<p><b><span class="sentence-highlight" data-sentence="0" data-scroll-target="true">Hi</span></b>`+
		`<span class="sentence-highlight" data-sentence="0"> there.</span> Bye.</p>`, v.HTML)
}

func TestRender_SubRanges(t *testing.T) {
	content := "Hello world. This is a test."
	refs := reference.References{
		reference.Sub(1, 13, 17),
		reference.Sub(1, 15, 20),
		reference.Sub(1, 26, 28),
	}
	v := testRenderer().Render(content, refs, Mode{})

	assert.Equal(t, `Hello world. <span class="sentence-highlight sentence-partial" data-sentence="1" data-scroll-target="true">This is</span> a tes`+
		`<span class="sentence-highlight sentence-partial" data-sentence="1">t.</span>`, v.HTML)
	assert.Equal(t, []int{1}, v.Highlighted)
	assert.Empty(t, v.FullSentences)
}

func TestRender_ScrollTargetOnSmallestIndex(t *testing.T) {
	v := testRenderer().Render("One. Two. Three.", reference.References{reference.Full(2), reference.Full(0)}, Mode{})

	assert.Equal(t, `<span class="sentence-highlight" data-sentence="0" data-scroll-target="true">One.</span> Two. `+
		`<span class="sentence-highlight" data-sentence="2">Three.</span>`, v.HTML)
	assert.Equal(t, 0, v.ScrollTarget)
}

func TestRender_OutOfRangeReferenceIgnored(t *testing.T) {
	content := "Only one sentence."
	v := testRenderer().Render(content, reference.References{reference.Full(4)}, Mode{})

	assert.Equal(t, content, v.HTML)
	assert.Equal(t, -1, v.ScrollTarget)
}

func TestRender_EmptyContent(t *testing.T) {
	v := testRenderer().Render("", reference.References{reference.Full(0)}, Mode{})

	assert.Equal(t, "", v.HTML)
	assert.NotNil(t, v.Sentences)
	assert.Empty(t, v.Sentences)
}

func TestRender_PreservesTextContent(t *testing.T) {
	contents := []string{
		"Hello world. This is a test.",
		"<p><b>Hi</b> there. Bye.</p>",
		"<ul><li>First item. Second</li><li>item.</li></ul> Tail &amp; more.",
	}
	r := testRenderer()
	for _, content := range contents {
		seg := sentence.Split(content)
		var refs reference.References
		for i := range seg.Sentences {
			refs = append(refs, reference.Full(i))
		}
		v := r.Render(content, refs, Mode{})

		want, err := highlight.Parse(content)
		require.NoError(t, err)
		got, err := highlight.Parse(v.HTML)
		require.NoError(t, err)
		assert.Equal(t, want.TextContent(), got.TextContent(), content)
	}
}

func TestApplyManual(t *testing.T) {
	r := testRenderer()
	v := r.Render("Hello world. This is a test.", reference.References{reference.Full(1)}, Mode{})

	r.ApplyManual(&v, []highlight.Record{
		{ID: "m1", Start: 0, End: 5, Color: highlight.Green},
		{ID: "gone", Start: 100, End: 120, Color: highlight.Green},
	})

	assert.Contains(t, v.HTML, `data-highlight-id="m1"`)
	assert.Contains(t, v.HTML, `>Hello</span> world.`)
	assert.Contains(t, v.HTML, `data-sentence="1"`)
	assert.NotContains(t, v.HTML, "gone")
	require.Len(t, v.Highlights, 1)
	assert.Equal(t, "m1", v.Highlights[0].ID)
	assert.Equal(t, "Hello", v.Highlights[0].Text)
}

func TestApplyManual_NoRecordsLeavesHTML(t *testing.T) {
	r := testRenderer()
	v := r.Render("<p>Keep <br> this.</p>", nil, Mode{})
	r.ApplyManual(&v, nil)

	assert.Equal(t, "<p>Keep <br> this.</p>", v.HTML)
	assert.Empty(t, v.Highlights)
}

func TestMergeRanges(t *testing.T) {
	got := mergeRanges([]sentence.Range{{Start: 8, End: 10}, {Start: 0, End: 3}, {Start: 2, End: 5}, {Start: 5, End: 6}})
	assert.Equal(t, []sentence.Range{{Start: 0, End: 6}, {Start: 8, End: 10}}, got)
	assert.Nil(t, mergeRanges(nil))
}

func TestRender_SanitizesOutput(t *testing.T) {
	v := testRenderer().Render(`<p onclick="steal()">Hi there.<script>alert(1)</script></p>`, nil, Mode{})

	assert.Equal(t, "<p>Hi there.</p>", v.HTML)
}

func TestRender_QuotesKeepSourceOffsets(t *testing.T) {
	// Sentence 1 is "Now the key part." at [13,30); "key part" is [21,29).
	content := `<p>It's "here". Now the key part.</p>`
	v := testRenderer().Render(content, reference.References{reference.Sub(1, 21, 29)}, Mode{})

	require.Len(t, v.Sentences, 2)
	assert.Equal(t, `It's "here".`, v.Sentences[0].Text)
	assert.Equal(t, sentence.Range{Start: 13, End: 30}, v.Sentences[1].Range())
	assert.Equal(t, []int{1}, v.Highlighted)
	assert.Contains(t, v.HTML, `data-sentence="1" data-scroll-target="true">key part</span>.</p>`)
}
