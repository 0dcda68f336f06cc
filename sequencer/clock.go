package sequencer

import (
	"container/heap"
	"sync"
	"time"
)

// TimerID identifies a repeating callback
type TimerID int

// Clock is the audio-time base. Times are seconds on a monotonic timeline.
// Every callback, and every fn passed to Do, runs on one cooperative
// timeline: never two at once, and in audio-time order.
type Clock interface {
	Now() float64
	// Repeat calls fn every interval seconds, starting now
	Repeat(interval float64, fn func(at float64)) TimerID
	// Replace changes the interval of a running timer without restarting it
	Replace(id TimerID, interval float64)
	Cancel(id TimerID)
	// ScheduleAt runs fn no earlier than audio time at
	ScheduleAt(at float64, fn func())
	// Do runs fn on the clock's timeline
	Do(fn func())
}

type entry struct {
	at       float64
	seq      uint64
	interval float64 // > 0 for repeating timers
	last     float64
	id       TimerID
	fn       func(at float64)
	index    int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// timeline is the shared scheduling core of both clocks. Not safe for
// concurrent use on its own.
type timeline struct {
	queue  entryHeap
	timers map[TimerID]*entry
	nextID TimerID
	seq    uint64
}

func newTimeline() *timeline {
	return &timeline{timers: make(map[TimerID]*entry)}
}

func (t *timeline) push(e *entry) {
	t.seq++
	e.seq = t.seq
	heap.Push(&t.queue, e)
}

func (t *timeline) repeat(now, interval float64, fn func(float64)) TimerID {
	t.nextID++
	e := &entry{at: now, interval: interval, last: now - interval, id: t.nextID, fn: fn}
	t.timers[e.id] = e
	t.push(e)
	return e.id
}

func (t *timeline) replace(id TimerID, interval float64) {
	e, ok := t.timers[id]
	if !ok || interval <= 0 {
		return
	}
	e.interval = interval
	if e.index >= 0 {
		e.at = e.last + interval
		heap.Fix(&t.queue, e.index)
	}
}

func (t *timeline) cancel(id TimerID) {
	e, ok := t.timers[id]
	if !ok {
		return
	}
	delete(t.timers, id)
	if e.index >= 0 {
		heap.Remove(&t.queue, e.index)
	}
}

func (t *timeline) scheduleAt(at float64, fn func()) {
	t.push(&entry{at: at, fn: func(float64) { fn() }})
}

// next returns the earliest entry without removing it
func (t *timeline) next() (*entry, bool) {
	if len(t.queue) == 0 {
		return nil, false
	}
	return t.queue[0], true
}

// fire pops the earliest entry and runs it, re-arming repeating timers
func (t *timeline) fire() {
	e := heap.Pop(&t.queue).(*entry)
	at := e.at
	if e.interval > 0 {
		if _, live := t.timers[e.id]; !live {
			return
		}
		e.last = at
		e.fn(at)
		// fn may have cancelled or replaced this timer
		if _, live := t.timers[e.id]; live && e.index < 0 {
			e.at = e.last + e.interval
			t.push(e)
		}
		return
	}
	e.fn(at)
}

// ManualClock is a deterministic clock advanced explicitly. Used by tests
// and offline rendering.
type ManualClock struct {
	now float64
	tl  *timeline
}

// NewManualClock creates a clock at time 0
func NewManualClock() *ManualClock {
	return &ManualClock{tl: newTimeline()}
}

func (c *ManualClock) Now() float64 { return c.now }

func (c *ManualClock) Repeat(interval float64, fn func(at float64)) TimerID {
	return c.tl.repeat(c.now, interval, fn)
}

func (c *ManualClock) Replace(id TimerID, interval float64) { c.tl.replace(id, interval) }
func (c *ManualClock) Cancel(id TimerID)                    { c.tl.cancel(id) }
func (c *ManualClock) ScheduleAt(at float64, fn func())     { c.tl.scheduleAt(at, fn) }
func (c *ManualClock) Do(fn func())                         { fn() }

// AdvanceTo runs every callback due at or before t, in order
func (c *ManualClock) AdvanceTo(t float64) {
	for {
		e, ok := c.tl.next()
		if !ok || e.at > t+timeEpsilon {
			break
		}
		if e.at > c.now {
			c.now = e.at
		}
		c.tl.fire()
	}
	if t > c.now {
		c.now = t
	}
}

// Advance moves the clock forward by d seconds
func (c *ManualClock) Advance(d float64) {
	c.AdvanceTo(c.now + d)
}

// timeEpsilon absorbs float accumulation when comparing audio times
const timeEpsilon = 1e-9

// WallClock runs callbacks on a single dispatcher goroutine against the
// process monotonic clock
type WallClock struct {
	mu     sync.Mutex
	t0     time.Time
	tl     *timeline
	wake   chan struct{}
	stop   chan struct{}
	closed bool
}

// NewWallClock starts a dispatcher. Close stops it.
func NewWallClock() *WallClock {
	c := &WallClock{
		t0:   time.Now(),
		tl:   newTimeline(),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *WallClock) Now() float64 {
	return time.Since(c.t0).Seconds()
}

// The scheduling methods are called from callbacks already holding mu, or
// through Do; callers outside the timeline must use Do.

func (c *WallClock) Repeat(interval float64, fn func(at float64)) TimerID {
	id := c.tl.repeat(c.Now(), interval, fn)
	c.poke()
	return id
}

func (c *WallClock) Replace(id TimerID, interval float64) {
	c.tl.replace(id, interval)
	c.poke()
}

func (c *WallClock) Cancel(id TimerID) {
	c.tl.cancel(id)
	c.poke()
}

func (c *WallClock) ScheduleAt(at float64, fn func()) {
	c.tl.scheduleAt(at, fn)
	c.poke()
}

// Do runs fn serialized with every timer callback
func (c *WallClock) Do(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Close stops the dispatcher. Pending callbacks are dropped.
func (c *WallClock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.stop)
}

func (c *WallClock) poke() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *WallClock) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		c.mu.Lock()
		wait := time.Hour
		for {
			e, ok := c.tl.next()
			if !ok {
				break
			}
			d := e.at - c.Now()
			if d > 0 {
				wait = time.Duration(d * float64(time.Second))
				break
			}
			c.tl.fire()
		}
		c.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-c.stop:
			return
		case <-c.wake:
		case <-timer.C:
		}
	}
}
