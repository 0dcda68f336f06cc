package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClockRepeat(t *testing.T) {
	c := NewManualClock()
	var fired []float64
	c.Repeat(0.5, func(at float64) { fired = append(fired, at) })

	c.AdvanceTo(1.0)
	assert.Equal(t, []float64{0, 0.5, 1.0}, fired)
	assert.Equal(t, 1.0, c.Now())

	c.Advance(0.25)
	assert.Len(t, fired, 3)
	assert.Equal(t, 1.25, c.Now())
}

func TestManualClockReplaceKeepsPhase(t *testing.T) {
	c := NewManualClock()
	var fired []float64
	id := c.Repeat(1.0, func(at float64) { fired = append(fired, at) })
	c.AdvanceTo(0)
	c.Replace(id, 0.25)
	c.AdvanceTo(0.6)
	assert.Equal(t, []float64{0, 0.25, 0.5}, fired)
}

func TestManualClockCancelFromCallback(t *testing.T) {
	c := NewManualClock()
	n := 0
	var id TimerID
	id = c.Repeat(0.1, func(float64) {
		n++
		if n == 3 {
			c.Cancel(id)
		}
	})
	c.AdvanceTo(2)
	assert.Equal(t, 3, n)
}

func TestManualClockScheduleOrder(t *testing.T) {
	c := NewManualClock()
	var order []string
	c.ScheduleAt(0.3, func() { order = append(order, "b") })
	c.ScheduleAt(0.1, func() { order = append(order, "a") })
	c.ScheduleAt(0.3, func() { order = append(order, "c") })
	c.AdvanceTo(0.2)
	assert.Equal(t, []string{"a"}, order)
	c.AdvanceTo(0.3)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

// A callback scheduled by a tick for the next tick's time runs before that
// tick, so a note-off never lands after the next note-on at the same time.
func TestManualClockScheduledBeforeNextRepeat(t *testing.T) {
	c := NewManualClock()
	var order []string
	c.Repeat(0.5, func(at float64) {
		order = append(order, "tick")
		c.ScheduleAt(at+0.5, func() { order = append(order, "off") })
	})
	c.AdvanceTo(0.5)
	assert.Equal(t, []string{"tick", "off", "tick"}, order)
}

func TestWallClockRunsScheduledCallbacks(t *testing.T) {
	c := NewWallClock()
	defer c.Close()

	done := make(chan float64, 1)
	c.Do(func() {
		at := c.Now() + 0.02
		c.ScheduleAt(at, func() { done <- c.Now() - at })
	})

	select {
	case late := <-done:
		assert.GreaterOrEqual(t, late, 0.0)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never ran")
	}
}

func TestWallClockRepeatAndCancel(t *testing.T) {
	c := NewWallClock()
	defer c.Close()

	ticks := make(chan float64, 64)
	var id TimerID
	c.Do(func() {
		id = c.Repeat(0.01, func(at float64) {
			select {
			case ticks <- at:
			default:
			}
		})
	})

	var got []float64
	for len(got) < 3 {
		select {
		case at := <-ticks:
			got = append(got, at)
		case <-time.After(2 * time.Second):
			t.Fatal("timer stalled")
		}
	}
	c.Do(func() { c.Cancel(id) })

	require.Len(t, got, 3)
	assert.InDelta(t, 0.01, got[1]-got[0], 1e-9, "ticks are spaced on the audio timeline")
	assert.InDelta(t, 0.01, got[2]-got[1], 1e-9)
}
