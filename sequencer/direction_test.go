package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pingPongPass is the step order of one ping-pong pass: no repeated ends
var pingPongPass = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

func TestBuildTraversal(t *testing.T) {
	fwd := BuildTraversal(ModeForward)
	require.Len(t, fwd, NumSteps)
	assert.Equal(t, 0, fwd[0])
	assert.Equal(t, 15, fwd[15])

	rev := BuildTraversal(ModeReverse)
	assert.Equal(t, 15, rev[0])
	assert.Equal(t, 0, rev[15])

	pp := BuildTraversal(ModePingPong)
	require.Len(t, pp, 2*NumSteps)
	assert.Equal(t, 15, pp[15])
	assert.Equal(t, 15, pp[16])
	assert.Equal(t, 0, pp[31])
	assert.True(t, Suppressed(ModePingPong, 16))
	assert.True(t, Suppressed(ModePingPong, 31))
	assert.False(t, Suppressed(ModePingPong, 0))
	assert.False(t, Suppressed(ModeForward, 16))
}

func TestCursorPingPongSkipsTurnarounds(t *testing.T) {
	c := NewCursor(ModePingPong)
	var steps []int
	boundaries := 0
	for i := 0; i < 2*len(pingPongPass); i++ {
		c.SkipSuppressed()
		if c.AtBoundary() {
			boundaries++
		}
		steps = append(steps, c.Advance())
	}
	assert.Equal(t, append(append([]int{}, pingPongPass...), pingPongPass...), steps)
	assert.Equal(t, 2, boundaries)
}

func TestCursorStagedModeWaitsForApply(t *testing.T) {
	c := NewCursor(ModeForward)
	for i := 0; i < 7; i++ {
		c.Advance()
	}
	c.Stage(ModeReverse)
	pending, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, ModeReverse, pending)
	assert.Equal(t, ModeForward, c.Mode())
	assert.Equal(t, 7, c.Advance())

	c.Stage(ModeForward)
	_, ok = c.Pending()
	assert.False(t, ok, "staging the running mode cancels")

	c.Stage(ModePingPong)
	assert.True(t, c.ApplyPending())
	assert.Equal(t, ModePingPong, c.Mode())
	assert.Len(t, c.Traversal(), 2*NumSteps)
	assert.False(t, c.ApplyPending())
}

func TestNextEvent(t *testing.T) {
	g := NewGrid(MelodyRows)
	g.Set(0, 3, true)
	g.Set(0, 10, true)
	seq := Group(g, nil)

	ev, ticks, ok := NextEvent(ModeForward, 0, seq)
	require.True(t, ok)
	assert.Equal(t, 3, ev.Step)
	assert.Equal(t, 4, ticks)

	ev, ticks, _ = NextEvent(ModeForward, 4, seq)
	assert.Equal(t, 10, ev.Step)
	assert.Equal(t, 7, ticks)

	ev, ticks, _ = NextEvent(ModeForward, 11, seq)
	assert.Equal(t, 3, ev.Step)
	assert.Equal(t, 9, ticks)

	// position 16 is the silent second 15 and takes no tick
	ev, ticks, _ = NextEvent(ModePingPong, 16, seq)
	assert.Equal(t, 10, ev.Step)
	assert.Equal(t, 5, ticks)

	_, _, ok = NextEvent(ModeForward, 0, nil)
	assert.False(t, ok)
}

func TestLookaheadAcrossBoundary(t *testing.T) {
	g := NewGrid(MelodyRows)
	g.Set(0, 3, true)
	seq := Group(g, nil)

	// reverse reaches step 3 at its 13th position
	ev, ticks, ok := LookaheadAcross(ModeForward, 12, seq, ModeReverse, seq)
	require.True(t, ok)
	assert.Equal(t, 3, ev.Step)
	assert.Equal(t, 4+13, ticks)

	// position 0 already plays the next pass
	_, ticks, _ = LookaheadAcross(ModeForward, 0, seq, ModeReverse, seq)
	assert.Equal(t, 13, ticks)

	g.Set(0, 14, true)
	seq = Group(g, nil)
	ev, ticks, _ = LookaheadAcross(ModeForward, 12, seq, ModeReverse, seq)
	assert.Equal(t, 14, ev.Step, "rest of the current pass first")
	assert.Equal(t, 3, ticks)

	next := NewGrid(MelodyRows)
	next.Set(0, 5, true)
	ev, ticks, ok = LookaheadAcross(ModeForward, 15, Group(NewGrid(MelodyRows), nil), ModeForward, Group(next, nil))
	require.True(t, ok)
	assert.Equal(t, 5, ev.Step)
	assert.Equal(t, 1+6, ticks)
}

func TestCursorLookaheadFollowsStagedMode(t *testing.T) {
	g := NewGrid(MelodyRows)
	g.Set(0, 3, true)
	seq := Group(g, nil)

	c := NewCursor(ModeForward)
	for range 12 {
		c.Advance()
	}
	_, ticks, _ := c.Lookahead(seq)
	assert.Equal(t, 8, ticks)

	c.Stage(ModeReverse)
	_, ticks, _ = c.Lookahead(seq)
	assert.Equal(t, 17, ticks)
}

func TestParsePlayMode(t *testing.T) {
	m, err := ParsePlayMode(" PingPong ")
	require.NoError(t, err)
	assert.Equal(t, ModePingPong, m)

	_, err = ParsePlayMode("sideways")
	assert.Error(t, err)
}

func TestNormalizeMode(t *testing.T) {
	assert.Equal(t, ModeForward, normalizeMode(FamilyPercussion, ModeReverse))
	assert.Equal(t, ModeLinked, normalizeMode(FamilyPercussion, ModeLinked))
	assert.Equal(t, ModeForward, normalizeMode(FamilyMelody, ModeLinked))
	assert.Equal(t, ModePingPong, normalizeMode(FamilyMelody, ModePingPong))
	assert.Equal(t, []PlayMode{ModeForward, ModeLinked}, ModesFor(FamilyPercussion))
}
