package sequencer

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"
)

// PlayMode is the order in which steps are visited
type PlayMode int

const (
	ModeForward PlayMode = iota
	ModeReverse
	ModePingPong
	ModeLinked // percussion only: follow the melody cursor
)

var modeNames = []string{"forward", "reverse", "pingpong", "linked"}

func (m PlayMode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParsePlayMode accepts the names produced by String
func ParsePlayMode(s string) (PlayMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == s {
			return PlayMode(i), nil
		}
	}
	return ModeForward, fault.New(fmt.Sprintf("unknown play mode %q", s), ftag.With(ftag.InvalidArgument))
}

func (m PlayMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *PlayMode) UnmarshalText(b []byte) error {
	p, err := ParsePlayMode(string(b))
	if err != nil {
		return err
	}
	*m = p
	return nil
}

// ModesFor lists the modes selectable for a family
func ModesFor(f Family) []PlayMode {
	if f == FamilyPercussion {
		return []PlayMode{ModeForward, ModeLinked}
	}
	return []PlayMode{ModeForward, ModeReverse, ModePingPong}
}

// normalizeMode keeps a family inside its selectable modes. Percussion only
// ever runs forward on its own cursor; linked is meaningless for melody.
func normalizeMode(f Family, m PlayMode) PlayMode {
	switch f {
	case FamilyPercussion:
		if m == ModeLinked {
			return ModeLinked
		}
		return ModeForward
	default:
		if m == ModeLinked || m < ModeForward || m > ModePingPong {
			return ModeForward
		}
		return m
	}
}

// BuildTraversal returns the step indices visited in one pass. Linked has no
// traversal of its own and yields the forward order; the transport never
// asks a linked cursor for its step.
func BuildTraversal(mode PlayMode) []int {
	switch mode {
	case ModeReverse:
		t := make([]int, NumSteps)
		for i := range t {
			t[i] = NumSteps - 1 - i
		}
		return t
	case ModePingPong:
		t := make([]int, 0, 2*NumSteps)
		for i := 0; i < NumSteps; i++ {
			t = append(t, i)
		}
		for i := NumSteps - 1; i >= 0; i-- {
			t = append(t, i)
		}
		return t
	default:
		t := make([]int, NumSteps)
		for i := range t {
			t[i] = i
		}
		return t
	}
}

// Suppressed reports whether position pos of a traversal is the silent twin
// of a turnaround. In ping-pong the second 15 (position 16) is dropped, while
// at the wrap the old pass's 0 (position 31) is dropped so that position 0,
// where pending changes land, still fires.
func Suppressed(mode PlayMode, pos int) bool {
	if mode != ModePingPong {
		return false
	}
	return pos == NumSteps || pos == 2*NumSteps-1
}

// Cursor walks a traversal. Mode changes are staged and only take effect
// when the position is back at 0.
type Cursor struct {
	mode      PlayMode
	position  int
	traversal []int
	pending   PlayMode
	hasPend   bool
}

// NewCursor creates a cursor at position 0
func NewCursor(mode PlayMode) *Cursor {
	return &Cursor{mode: mode, traversal: BuildTraversal(mode)}
}

// Mode returns the mode in effect
func (c *Cursor) Mode() PlayMode {
	return c.mode
}

// Position returns the index of the next position to play
func (c *Cursor) Position() int {
	return c.position
}

// Traversal returns the traversal in effect
func (c *Cursor) Traversal() []int {
	return c.traversal
}

// Stage queues a mode change for the next boundary. Staging the mode already
// in effect cancels any pending change.
func (c *Cursor) Stage(mode PlayMode) {
	if mode == c.mode {
		c.hasPend = false
		return
	}
	c.pending = mode
	c.hasPend = true
}

// Pending returns the staged mode, if any
func (c *Cursor) Pending() (PlayMode, bool) {
	return c.pending, c.hasPend
}

// ApplyPending swaps in a staged mode. Reports whether anything changed.
func (c *Cursor) ApplyPending() bool {
	if !c.hasPend {
		return false
	}
	c.mode = c.pending
	c.traversal = BuildTraversal(c.mode)
	c.hasPend = false
	if c.position >= len(c.traversal) {
		c.position = 0
	}
	return true
}

// SetMode replaces the mode immediately (used while stopped)
func (c *Cursor) SetMode(mode PlayMode) {
	c.Stage(mode)
	c.ApplyPending()
}

// Reset rewinds to position 0
func (c *Cursor) Reset() {
	c.position = 0
}

// SkipSuppressed moves past silent turnaround twins. Returns the number of
// positions skipped; they take no time.
func (c *Cursor) SkipSuppressed() int {
	n := 0
	for Suppressed(c.mode, c.position) && n < len(c.traversal) {
		c.position = (c.position + 1) % len(c.traversal)
		n++
	}
	return n
}

// AtBoundary reports whether the next tick starts a fresh pass
func (c *Cursor) AtBoundary() bool {
	return c.position == 0
}

// Advance returns the step at the current position and moves to the next
func (c *Cursor) Advance() int {
	step := c.traversal[c.position]
	c.position = (c.position + 1) % len(c.traversal)
	return step
}

// Lookahead scans forward from the current position for the next step
// that has an event in seq. Past the end of the pass it follows the staged
// mode, if any.
func (c *Cursor) Lookahead(seq Sequence) (ev Event, ticks int, ok bool) {
	next := c.mode
	if c.hasPend {
		next = c.pending
	}
	return LookaheadAcross(c.mode, c.position, seq, next, seq)
}

// NextEvent scans the traversal of mode from position pos, skipping silent
// positions, for the first step that has an event in seq. ticks is how many
// ticks away it fires, counting the tick at pos as 1.
func NextEvent(mode PlayMode, pos int, seq Sequence) (ev Event, ticks int, ok bool) {
	return LookaheadAcross(mode, pos, seq, mode, seq)
}

// LookaheadAcross is NextEvent across a loop boundary: the rest of the
// current pass is scanned with mode and seq, the following pass with
// nextMode and nextSeq. Position 0 already belongs to the following pass.
func LookaheadAcross(mode PlayMode, pos int, seq Sequence, nextMode PlayMode, nextSeq Sequence) (ev Event, ticks int, ok bool) {
	if pos > 0 {
		traversal := BuildTraversal(mode)
		for p := pos; p < len(traversal); p++ {
			if Suppressed(mode, p) {
				continue
			}
			ticks++
			if e, found := seq.At(traversal[p]); found {
				return e, ticks, true
			}
		}
	}
	traversal := BuildTraversal(nextMode)
	for p := range traversal {
		if Suppressed(nextMode, p) {
			continue
		}
		ticks++
		if e, found := nextSeq.At(traversal[p]); found {
			return e, ticks, true
		}
	}
	return Event{}, 0, false
}
