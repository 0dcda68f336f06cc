package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stepgraph/sequencer"
)

func TestLayoutRing(t *testing.T) {
	geo := DefaultGeometry()
	c := geo.Center()
	r := geo.Radius()

	pos := Layout(seqOf(
		sequencer.Cell{Row: 12, Step: 0},
		sequencer.Cell{Row: 3, Step: 4},
		sequencer.Cell{Row: 7, Step: 4},
	), geo)
	require.Len(t, pos, 3)

	top := pos["r12@0"]
	assert.InDelta(t, c.X, top.X, 1e-9)
	assert.InDelta(t, c.Y-r, top.Y, 1e-9, "step 0 is at 12 o'clock")

	anchor := pos["r7@4"]
	assert.InDelta(t, c.X+r, anchor.X, 1e-9, "step 4 is at 3 o'clock")
	assert.InDelta(t, c.Y, anchor.Y, 1e-9)

	stacked := pos["r3@4"]
	assert.InDelta(t, c.X+r+geo.StackSpacing, stacked.X, 1e-9)
	assert.InDelta(t, -math.Pi/2, Angle(0), 1e-12)
}

func TestProjectorRebuild(t *testing.T) {
	store := NewMemStore()
	p := NewProjector(store, store, DefaultGeometry())

	p.Rebuild(nil)
	assert.Equal(t, 0, store.Fits)

	p.Rebuild(seqOf(sequencer.Cell{Row: 0, Step: 0}))
	assert.Equal(t, []string{"r0@0"}, store.NodeIDs())
	assert.Empty(t, store.EdgeIDs())
	assert.Equal(t, 1, store.Fits, "fit when the first node appears")

	patch := p.Rebuild(seqOf(sequencer.Cell{Row: 0, Step: 0}, sequencer.Cell{Row: 0, Step: 4}))
	assert.Len(t, patch.AddNodes, 1)
	assert.Equal(t, []string{"r0@0", "r0@4"}, store.NodeIDs())
	assert.Equal(t, []string{"seq:r0@0>r0@4", "seq:r0@4>r0@0"}, store.EdgeIDs())
	assert.Equal(t, 1, store.Fits)

	p.Rebuild(seqOf(sequencer.Cell{Row: 0, Step: 4}))
	assert.Equal(t, []string{"r0@4"}, store.NodeIDs())
	assert.Empty(t, store.EdgeIDs())

	assert.True(t, p.Rebuild(p.Sequence()).Empty())
}

func TestProjectorHighlight(t *testing.T) {
	store := NewMemStore()
	p := NewProjector(store, store, DefaultGeometry())
	p.Rebuild(seqOf(
		sequencer.Cell{Row: 1, Step: 0},
		sequencer.Cell{Row: 2, Step: 0},
		sequencer.Cell{Row: 5, Step: 8},
	))

	p.Highlight(0)
	assert.Equal(t, []string{"r1@0", "r2@0"}, store.Highlighted())
	p.Highlight(3)
	assert.Empty(t, store.Highlighted())
	p.Highlight(8)
	assert.Equal(t, []string{"r5@8"}, store.Highlighted())

	p.Clear()
	assert.Empty(t, store.Highlighted())
	assert.Nil(t, store.Indicator)
}

func TestProjectorIndicatorFollowsSteps(t *testing.T) {
	store := NewMemStore()
	p := NewProjector(store, store, DefaultGeometry())
	seq := seqOf(sequencer.Cell{Row: 0, Step: 0}, sequencer.Cell{Row: 0, Step: 6})
	p.Rebuild(seq)

	ev0, _ := seq.At(0)
	ev6, _ := seq.At(6)
	p.OnStep(sequencer.StepInfo{Step: 0, Event: &ev0, Next: &ev6, Distance: 6, SecondsPerStep: 0.125})

	require.NotNil(t, store.Indicator)
	assert.Equal(t, "r0@0", store.Indicator.From)
	assert.Equal(t, "r0@6", store.Indicator.To)
	assert.InDelta(t, 0.75, store.Indicator.Duration, 1e-12)
	assert.Equal(t, p.Positions()["r0@6"], store.Indicator.ToPos)
	assert.Equal(t, []string{"r0@0"}, store.Highlighted())

	// a single event never moves the indicator
	store.Indicator = nil
	p.OnStep(sequencer.StepInfo{Step: 0, Event: &ev0, Next: &ev0, Distance: 16, SecondsPerStep: 0.125})
	assert.Nil(t, store.Indicator)

	// empty steps only update the highlight
	p.OnStep(sequencer.StepInfo{Step: 3, Next: &ev6, Distance: 3, SecondsPerStep: 0.125})
	assert.Nil(t, store.Indicator)
	assert.Empty(t, store.Highlighted())
}

func TestAdvanceIndicatorMinimumDistance(t *testing.T) {
	p := NewProjector(NewMemStore(), nil, DefaultGeometry())
	m := p.AdvanceIndicator("a", "b", 0, 0.2)
	assert.Equal(t, 0.2, m.Duration)
}

func TestProjectorResize(t *testing.T) {
	store := NewMemStore()
	p := NewProjector(store, store, DefaultGeometry())
	p.Rebuild(seqOf(sequencer.Cell{Row: 0, Step: 0}))

	geo := Geometry{Width: 200, Height: 100, RingRatio: 0.3, StackSpacing: 10}
	p.Resize(geo)
	n := store.Nodes["r0@0"]
	assert.InDelta(t, 100, n.Pos.X, 1e-9)
	assert.InDelta(t, 50-30, n.Pos.Y, 1e-9)
	assert.Equal(t, 2, store.Fits)
}
