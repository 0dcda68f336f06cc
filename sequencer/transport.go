package sequencer

import (
	"math"

	"go-stepgraph/debug"
)

// Engine is the audio side of the transport. Times are audio-clock seconds.
type Engine interface {
	// TriggerNotes plays notes together for duration seconds
	TriggerNotes(notes []Note, duration, at, velocity float64)
	// TriggerOneShot starts a sample at audio time at, skipping offset
	// seconds of leading silence
	TriggerOneShot(ref BufferRef, at, offset, gain float64)
	// Target returns the setter for a parameter, or nil while it is not
	// available
	Target(id ParamID) ApplyFunc
}

// VoiceSetter is implemented by engines that can switch the melody
// waveform and static parameter levels
type VoiceSetter interface {
	SetVoice(v Voice)
}

// StepInfo describes one tick for observers. It is delivered at the tick's
// audio time, not when the tick was computed.
type StepInfo struct {
	Time     float64
	Step     int // melody step
	PercStep int
	Position int // melody traversal position that fired

	Event *Event // melody event at Step, nil when the step is empty
	// Next is the next melody event the cursor will reach and Distance the
	// number of ticks until it fires
	Next           *Event
	Distance       int
	SecondsPerStep float64
}

const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// TransportState is Stopped or Running
type TransportState int

const (
	Stopped TransportState = iota
	Running
)

func (s TransportState) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Transport is the sixteenth-note clock. Every tick resolves the melody and
// percussion steps, fires notes, one-shots and automation, then schedules
// observers at the tick's audio time.
type Transport struct {
	clock   Clock
	store   *Store
	bank    *Bank
	engine  Engine
	buffers Buffers

	state TransportState
	timer TimerID
	tempo int
	run   int // bumped by Stop; stale visual callbacks compare against it

	melody *Cursor
	perc   *Cursor

	onStep []func(StepInfo)
	onStop []func()
}

// NewTransport creates a stopped transport. bank may be nil until
// SetBank is called.
func NewTransport(clock Clock, store *Store, engine Engine, buffers Buffers) *Transport {
	return &Transport{
		clock:   clock,
		store:   store,
		engine:  engine,
		buffers: buffers,
		tempo:   DefaultTempo,
		melody:  NewCursor(store.Mode(FamilyMelody)),
		perc:    NewCursor(store.Mode(FamilyPercussion)),
	}
}

// SetBank attaches the pattern bank whose pending switches land on loop
// boundaries
func (t *Transport) SetBank(b *Bank) {
	t.bank = b
}

// SetBuffers replaces the percussion buffer source
func (t *Transport) SetBuffers(b Buffers) {
	t.buffers = b
}

// OnStep registers fn to run at the audio time of every tick
func (t *Transport) OnStep(fn func(StepInfo)) {
	t.onStep = append(t.onStep, fn)
}

// OnStop registers fn to run after playback stops
func (t *Transport) OnStop(fn func()) {
	t.onStop = append(t.onStop, fn)
}

// State returns Stopped or Running
func (t *Transport) State() TransportState {
	return t.state
}

// Running reports whether the clock is ticking
func (t *Transport) Running() bool {
	return t.state == Running
}

// Tempo returns the BPM
func (t *Transport) Tempo() int {
	return t.tempo
}

// SecondsPerStep is the length of one sixteenth at the current tempo
func (t *Transport) SecondsPerStep() float64 {
	return secondsPerStep(t.tempo)
}

func secondsPerStep(bpm int) float64 {
	return 60 / float64(bpm) / 4
}

// SetTempo changes the BPM. A running clock keeps its phase: only the
// interval of the repeating timer is replaced.
func (t *Transport) SetTempo(bpm int) {
	bpm = min(max(bpm, MinTempo), MaxTempo)
	if bpm == t.tempo {
		return
	}
	t.tempo = bpm
	if t.state == Running {
		t.clock.Replace(t.timer, t.SecondsPerStep())
	}
	debug.Log("transport", "tempo=%d", bpm)
}

// Cursor returns the live cursor of a family
func (t *Transport) Cursor(f Family) *Cursor {
	if f == FamilyPercussion {
		return t.perc
	}
	return t.melody
}

// SetMode selects a family's play mode. While running the change is staged
// until the family's next loop boundary.
func (t *Transport) SetMode(f Family, m PlayMode) {
	m = t.store.setMode(f, m)
	c := t.Cursor(f)
	if t.state == Running {
		c.Stage(m)
		debug.Log("transport", "%s mode %s staged at pos %d", f, m, c.Position())
		return
	}
	c.SetMode(m)
}

// PendingMode returns a staged mode change, if any
func (t *Transport) PendingMode(f Family) (PlayMode, bool) {
	return t.Cursor(f).Pending()
}

// Play resets the cursors and starts the repeating tick. No-op if running.
func (t *Transport) Play() {
	if t.state == Running {
		return
	}
	t.syncCursor(FamilyMelody)
	t.syncCursor(FamilyPercussion)
	t.melody.Reset()
	t.perc.Reset()
	t.state = Running
	t.timer = t.clock.Repeat(t.SecondsPerStep(), t.tick)
	debug.Log("transport", "play tempo=%d melody=%s perc=%s", t.tempo, t.melody.Mode(), t.perc.Mode())
}

// Stop cancels the tick, applies everything that was waiting for a loop
// boundary and rewinds the cursors. Calling it while stopped does nothing.
func (t *Transport) Stop() {
	if t.state == Stopped {
		return
	}
	t.clock.Cancel(t.timer)
	t.timer = 0
	t.state = Stopped
	t.run++

	for _, f := range Families {
		if t.bank != nil {
			t.bank.ApplyPending(f)
		}
		t.syncCursor(f)
	}
	t.melody.Reset()
	t.perc.Reset()
	debug.Log("transport", "stop")

	for _, fn := range t.onStop {
		fn()
	}
}

// syncCursor makes a cursor run the store's selected mode. Reports whether
// the mode changed.
func (t *Transport) syncCursor(f Family) bool {
	c := t.Cursor(f)
	c.Stage(t.store.Mode(f))
	return c.ApplyPending()
}

// boundary applies a family's pending pattern switch and mode change. A
// cursor whose mode changed starts a fresh pass.
func (t *Transport) boundary(f Family) {
	if t.bank != nil {
		t.bank.ApplyPending(f)
	}
	if t.syncCursor(f) {
		t.Cursor(f).Reset()
	}
}

func (t *Transport) tick(at float64) {
	spm := t.SecondsPerStep()

	// Melody: turnaround twins take no time, so skip them before looking
	// for the boundary. The wrap twin lands the cursor on position 0.
	m := t.melody
	m.SkipSuppressed()
	melodyBoundary := m.AtBoundary()
	if melodyBoundary {
		t.boundary(FamilyMelody)
		m.SkipSuppressed()
	}
	pos := m.Position()
	step := m.Advance()

	// Percussion: its own forward cursor always advances once per tick.
	// When linked it takes the melody step and the melody boundary.
	p := t.perc
	percBoundary := p.AtBoundary()
	if p.Mode() == ModeLinked {
		percBoundary = melodyBoundary
	}
	if percBoundary {
		t.boundary(FamilyPercussion)
	}
	percStep := p.Advance()
	if p.Mode() == ModeLinked {
		percStep = step
	}

	t.playMelody(step, at, spm)
	t.applyAutomation(step, at)
	t.playPercussion(percStep, at)

	info := StepInfo{
		Time:           at,
		Step:           step,
		PercStep:       percStep,
		Position:       pos,
		SecondsPerStep: spm,
	}
	seq := t.store.Sequence(FamilyMelody)
	if ev, ok := seq.At(step); ok {
		info.Event = &ev
	}
	nextMode, nextSeq := t.nextPass(seq)
	if next, ticks, ok := LookaheadAcross(m.Mode(), m.Position(), seq, nextMode, nextSeq); ok {
		info.Next = &next
		info.Distance = ticks
	}
	debug.LogEvery(16, "tick", "pos=%d step=%d perc=%d t=%.3f", pos, step, percStep, at)

	if len(t.onStep) == 0 {
		return
	}
	observers := t.onStep
	run := t.run
	t.clock.ScheduleAt(at, func() {
		if run != t.run {
			return
		}
		for _, fn := range observers {
			fn(info)
		}
	})
}

// nextPass returns the melody mode and sequence the next loop boundary will
// put in effect: a pending pattern brings its own, otherwise a staged mode.
func (t *Transport) nextPass(seq Sequence) (PlayMode, Sequence) {
	mode := t.melody.Mode()
	if pm, ok := t.melody.Pending(); ok {
		mode = pm
	}
	if t.bank == nil {
		return mode, seq
	}
	id := t.bank.Pending(FamilyMelody)
	if id == "" {
		return mode, seq
	}
	snap, ok := t.bank.Get(FamilyMelody, id)
	if !ok {
		return mode, seq
	}
	pitches := PitchMap(snap.State.Key, snap.State.Octave)
	next := Group(snap.State.Grid, func(row int) string { return pitches[row].String() })
	return normalizeMode(FamilyMelody, snap.State.Mode), next
}

func (t *Transport) playMelody(step int, at, spm float64) {
	track := t.store.Track(FamilyMelody)
	if track.Muted {
		return
	}
	ev, ok := t.store.Sequence(FamilyMelody).At(step)
	if !ok {
		return
	}
	pitches := t.store.Pitches()
	notes := make([]Note, 0, len(ev.Occurrences))
	for _, o := range ev.Occurrences {
		if t.store.Row(FamilyMelody, o.Row).Muted {
			continue
		}
		notes = append(notes, pitches[o.Row])
	}
	if len(notes) == 0 {
		return
	}
	t.engine.TriggerNotes(notes, spm, at, Velocity(len(notes))*track.Volume)
}

// Velocity is the equal-power velocity for a chord of n voices
func Velocity(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1 / math.Sqrt(float64(n))
}

func (t *Transport) applyAutomation(step int, at float64) {
	curves := t.store.State(FamilyMelody).Curves
	if curves == nil {
		return
	}
	for i := range curves {
		c := &curves[i]
		if !c.Enabled {
			continue
		}
		id := ParamID(i)
		apply := t.engine.Target(id)
		if apply == nil {
			debug.LogEvery(64, "transport", "no target for %s", id)
			continue
		}
		apply(Params[id].Scale(c.Values[step]), at)
	}
}

func (t *Transport) playPercussion(step int, at float64) {
	track := t.store.Track(FamilyPercussion)
	if track.Muted || t.buffers == nil {
		return
	}
	ev, ok := t.store.Sequence(FamilyPercussion).At(step)
	if !ok {
		return
	}
	for _, o := range ev.Occurrences {
		row := t.store.Row(FamilyPercussion, o.Row)
		if row.Muted {
			continue
		}
		ref, ok := t.buffers.Buffer(o.Row)
		if !ok {
			debug.LogEvery(16, "transport", "buffer for row %d not loaded", o.Row)
			continue
		}
		offset := ref.Offset
		if row.Offset > 0 {
			offset = row.Offset
		}
		t.engine.TriggerOneShot(ref, at, offset, row.Volume*track.Volume)
	}
}
