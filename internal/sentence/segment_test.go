package sentence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/examdesk/internal/textpos"
)

func TestSplit_TwoSentences(t *testing.T) {
	seg := Split("Hello world. This is a test.")

	assert.Equal(t, []string{"Hello world.", "This is a test."}, seg.Texts())
	assert.Equal(t, []Range{{Start: 0, End: 13}, {Start: 13, End: 28}}, seg.Ranges())
}

func TestSplit_TrailingSentenceWithoutPunctuation(t *testing.T) {
	seg := Split("First one! Second one? and a tail")

	require.Len(t, seg.Sentences, 3)
	assert.Equal(t, "and a tail", seg.Sentences[2].Text)
	assert.Equal(t, textpos.PlainOffset(len("First one! Second one? and a tail")), seg.Sentences[2].End)
}

func TestSplit_StripsMarkup(t *testing.T) {
	seg := Split("<p><b>Hi</b> there.</p> <p>Bye.</p>")

	assert.Equal(t, "Hi there. Bye.", seg.Plain)
	assert.Equal(t, []string{"Hi there.", "Bye."}, seg.Texts())
}

func TestSplit_RepeatedPunctuation(t *testing.T) {
	seg := Split("Wait... What?! Yes.")
	assert.Equal(t, []string{"Wait...", "What?!", "Yes."}, seg.Texts())
}

func TestSplit_NoBoundaryWithoutWhitespace(t *testing.T) {
	seg := Split("v1.2 is out.Really")
	assert.Equal(t, []string{"v1.2 is out.Really"}, seg.Texts())
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("").Sentences)
	assert.Empty(t, Split("<p></p>").Sentences)
}

func TestSplit_WhitespaceOnlyDropped(t *testing.T) {
	seg := SplitPlain("   \n\t ")

	assert.Empty(t, seg.Sentences)
	require.Len(t, seg.Boundaries, 1)
	assert.Equal(t, Range{Start: 0, End: 6}, seg.Boundaries[0])
}

func TestSplit_OffsetsInUTF16Units(t *testing.T) {
	seg := SplitPlain("Café \U0001F600. Next.")

	require.Len(t, seg.Sentences, 2)
	assert.Equal(t, textpos.PlainOffset(9), seg.Sentences[0].End)
	assert.Equal(t, "Next.", textpos.SlicePlain(seg.Plain, seg.Sentences[1].Start, seg.Sentences[1].End))
}

func TestSplit_CoverageMatchesTrimmedInput(t *testing.T) {
	inputs := []string{
		"Hello world. This is a test.",
		"One. Two!  Three? Four",
		"  Leading space. trailing space.   ",
		"Single",
	}
	for _, in := range inputs {
		seg := SplitPlain(in)
		var b strings.Builder
		for _, r := range seg.Ranges() {
			b.WriteString(textpos.SlicePlain(seg.Plain, r.Start, r.End))
		}
		assert.Equal(t, strings.TrimSpace(in), strings.TrimSpace(b.String()), "input %q", in)

		// Raw boundaries are contiguous.
		for i := 1; i < len(seg.Boundaries); i++ {
			assert.Equal(t, seg.Boundaries[i-1].End, seg.Boundaries[i].Start)
		}
	}
}

func TestContaining(t *testing.T) {
	seg := Split("Hello world. This is a test.")

	s, ok := seg.Containing(15, 19)
	require.True(t, ok)
	assert.Equal(t, 1, s.Index)

	_, ok = seg.Containing(10, 15)
	assert.False(t, ok, "range spanning two sentences")
}

func TestGet(t *testing.T) {
	seg := Split("A. B.")
	_, ok := seg.Get(2)
	assert.False(t, ok)
	s, ok := seg.Get(1)
	require.True(t, ok)
	assert.Equal(t, "B.", s.Text)
}
