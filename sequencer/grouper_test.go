package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBuildsEventsInStepOrder(t *testing.T) {
	g := NewGrid(MelodyRows)
	g.Set(5, 0, true)
	g.Set(2, 0, true)
	g.Set(1, 4, true)

	seq := Group(g, nil)
	require.Len(t, seq, 2)

	assert.Equal(t, 0, seq[0].Step)
	assert.Equal(t, []int{2, 5}, seq[0].Rows())
	assert.Equal(t, "r5@0", seq[0].AnchorID)
	assert.Equal(t, 5, seq[0].Anchor().Row)

	assert.Equal(t, 4, seq[1].Step)
	assert.Equal(t, "r1@4", seq[1].AnchorID)
	assert.Equal(t, []string{"r2@0", "r5@0", "r1@4"}, seq.CellIDs())
}

func TestGroupSameRowTwoStepsAreDistinct(t *testing.T) {
	g := NewGrid(PercussionRows)
	g.Set(0, 0, true)
	g.Set(0, 8, true)

	seq := Group(g, func(row int) string { return "Kick" })
	assert.Equal(t, []string{"Kick@0", "Kick@8"}, seq.CellIDs())
}

func TestSequenceAtAndDistance(t *testing.T) {
	g := NewGrid(MelodyRows)
	g.Set(0, 3, true)
	g.Set(0, 10, true)
	seq := Group(g, nil)

	_, ok := seq.At(4)
	assert.False(t, ok)
	ev, ok := seq.At(10)
	require.True(t, ok)
	assert.Equal(t, 10, ev.Step)
	assert.Equal(t, 1, seq.Index(10))

	assert.Equal(t, 7, seq.Distance(0))
	assert.Equal(t, 9, seq.Distance(1)) // wraps 10 -> 3

	single := Group(func() *Grid { g := NewGrid(1); g.Set(0, 6, true); return g }(), nil)
	assert.Equal(t, NumSteps, single.Distance(0))
}

func TestGroupEmptyGrid(t *testing.T) {
	assert.Empty(t, Group(NewGrid(MelodyRows), nil))
}
