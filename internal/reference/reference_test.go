package reference

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ziadkadry99/examdesk/internal/logger"
	"github.com/ziadkadry99/examdesk/internal/sentence"
)

func TestParse_MixedShapes(t *testing.T) {
	refs, err := Parse([]byte(`[1, {"sentenceIndex": 0, "start": 2, "end": 5}, "bad", {"sentenceIndex": 3}, 2.5, null]`))
	require.NoError(t, err)

	assert.Equal(t, References{Full(1), Sub(0, 2, 5)}, refs)
}

func TestParse_EmptyAndNull(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "[]"} {
		refs, err := Parse([]byte(in))
		require.NoError(t, err, "input %q", in)
		assert.Empty(t, refs, "input %q", in)
	}
}

func TestParse_NotAnArray(t *testing.T) {
	_, err := Parse([]byte(`{"sentenceIndex": 1}`))
	assert.Error(t, err)
}

func TestMarshalRoundTripShapes(t *testing.T) {
	data, err := json.Marshal(References{Full(4), Sub(1, 3, 9)})
	require.NoError(t, err)
	assert.JSONEq(t, `[4, {"sentenceIndex": 1, "start": 3, "end": 9}]`, string(data))
}

func TestResolve_FullSentence(t *testing.T) {
	seg := sentence.Split("Hello world. This is a test.")
	res := NewResolver(nil).Resolve(References{Full(1)}, seg)

	assert.True(t, res.IsFull(1))
	assert.False(t, res.IsHighlighted(0))
	assert.Equal(t, []int{1}, res.FullIndices())
	assert.Equal(t, 1, res.ScrollTarget)
}

func TestResolve_SubRangeOverridesFull(t *testing.T) {
	seg := sentence.Split("Hello world. This is a test.")
	res := NewResolver(nil).Resolve(References{Full(1), Sub(1, 13, 17)}, seg)

	assert.True(t, res.IsHighlighted(1))
	assert.False(t, res.IsFull(1))
	assert.Equal(t, []sentence.Range{{Start: 13, End: 17}}, res.SubRanges[1])
}

func TestResolve_SubRangeListsSentence(t *testing.T) {
	seg := sentence.Split("Hello world. This is a test.")
	res := NewResolver(nil).Resolve(References{Sub(1, 13, 17)}, seg)

	assert.Contains(t, res.Full, 1)
	assert.Contains(t, res.SubRanges, 1)
	assert.False(t, res.IsFull(1))
	assert.Empty(t, res.FullIndices())
	assert.Equal(t, []int{1}, res.Indices())
}

func TestResolve_DropsInvalidReferences(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	seg := sentence.Split("Hello world. This is a test.")
	res := NewResolver(log).Resolve(References{
		Full(7),
		Full(-1),
		Sub(0, 10, 20), // crosses into sentence 1
		Sub(0, 5, 5),   // empty
		Full(0),
	}, seg)

	assert.Equal(t, []int{0}, res.Order)
	assert.Empty(t, res.SubRanges)
	assert.Equal(t, 4, logs.Len())
}

func TestResolve_EmptyClears(t *testing.T) {
	seg := sentence.Split("Hello world. This is a test.")
	rv := NewResolver(nil)

	prev := rv.Resolve(References{Full(0), Full(1)}, seg)
	require.False(t, prev.Empty())

	for _, refs := range []References{nil, {}} {
		res := rv.Resolve(refs, seg)
		assert.True(t, res.Empty())
		assert.Equal(t, -1, res.ScrollTarget)
		assert.False(t, res.IsHighlighted(0))
		assert.False(t, res.IsHighlighted(1))
	}
}

func TestResolve_OrderAndScrollTarget(t *testing.T) {
	seg := sentence.Split("A one. B two. C three. D four.")
	res := NewResolver(nil).Resolve(References{Full(3), Sub(2, 14, 15), Full(1), Full(3)}, seg)

	assert.Equal(t, []int{3, 2, 1}, res.Order)
	assert.Equal(t, []int{1, 2, 3}, res.Indices())
	assert.Equal(t, 1, res.ScrollTarget)
}

func TestResolve_Idempotent(t *testing.T) {
	seg := sentence.Split("A one. B two. C three.")
	refs := References{Full(2), Sub(0, 0, 1), Sub(0, 2, 5), Full(1)}
	rv := NewResolver(nil)

	assert.Equal(t, rv.Resolve(refs, seg), rv.Resolve(refs, seg))
}

func TestResolve_SubRangesSorted(t *testing.T) {
	seg := sentence.Split("A long first sentence here.")
	res := NewResolver(nil).Resolve(References{Sub(0, 10, 14), Sub(0, 2, 6)}, seg)

	assert.Equal(t, []sentence.Range{{Start: 2, End: 6}, {Start: 10, End: 14}}, res.SubRanges[0])
}
