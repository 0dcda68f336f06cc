package midi

import (
	"math"
	"sync"

	"go-stepgraph/debug"
	"go-stepgraph/sequencer"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// CC numbers the automation parameters are sent on
var ParamCC = [sequencer.NumParams]uint8{
	sequencer.ParamCutoff:      74,
	sequencer.ParamResonance:   71,
	sequencer.ParamReverbSend:  91,
	sequencer.ParamReverbDecay: 92,
	sequencer.ParamAttack:      73,
	sequencer.ParamDecay:       75,
	sequencer.ParamSustain:     79,
	sequencer.ParamRelease:     72,
}

// Program numbers (zero based GM) used for the melody waveforms
var WaveformProgram = map[string]uint8{
	"sine":     73, // flute
	"triangle": 79, // ocarina
	"square":   80, // lead 1
	"sawtooth": 81, // lead 2
}

// drum hits are released after a fixed gate
const drumGate = 0.05

// Engine plays the sequencer on a MIDI output. Notes and one-shots become
// note on/off pairs, automation becomes control changes. Note offs are
// scheduled on the sequencer clock so they stay in audio time.
type Engine struct {
	clock sequencer.Clock

	mu   sync.Mutex
	send func(gomidi.Message) error
	port string

	MelodyChannel     uint8 // zero based
	PercussionChannel uint8
}

// NewEngine creates an engine with no output. Until SetOutput is called
// every trigger is dropped and Target returns nil.
func NewEngine(clock sequencer.Clock, melodyCh, percCh uint8) *Engine {
	return &Engine{
		clock:             clock,
		MelodyChannel:     melodyCh,
		PercussionChannel: percCh,
	}
}

// SetOutput routes the engine to a port. A nil send disconnects.
func (e *Engine) SetOutput(port string, send func(gomidi.Message) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.port = port
	e.send = send
	debug.Log("midi", "output=%q", port)
}

// Port returns the connected output name, or ""
func (e *Engine) Port() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.send == nil {
		return ""
	}
	return e.port
}

func (e *Engine) write(msg gomidi.Message) bool {
	e.mu.Lock()
	send := e.send
	e.mu.Unlock()
	if send == nil {
		return false
	}
	if err := send(msg); err != nil {
		debug.LogEvery(32, "midi", "send failed: %v", err)
		return false
	}
	return true
}

// at runs fn at audio time t, or right away when t has passed
func (e *Engine) at(t float64, fn func()) {
	if t <= e.clock.Now() {
		fn()
		return
	}
	e.clock.ScheduleAt(t, fn)
}

func (e *Engine) TriggerNotes(notes []sequencer.Note, duration, at, velocity float64) {
	ch := e.MelodyChannel
	vel := toVelocity(velocity)
	e.at(at, func() {
		for _, n := range notes {
			e.write(gomidi.NoteOn(ch, uint8(n), vel))
		}
	})
	e.clock.ScheduleAt(at+duration, func() {
		for _, n := range notes {
			e.write(gomidi.NoteOff(ch, uint8(n)))
		}
	})
}

// TriggerOneShot plays a drum note. A drum machine has no buffer to seek,
// so the offset is not used; it is only logged.
func (e *Engine) TriggerOneShot(ref sequencer.BufferRef, at, offset, gain float64) {
	if offset > 0 {
		debug.LogEvery(16, "midi", "one-shot %s: offset %.3fs not applied over MIDI", ref.Name, offset)
	}
	ch := e.PercussionChannel
	note := uint8(ref.Note)
	vel := toVelocity(gain)
	e.at(at, func() {
		e.write(gomidi.NoteOn(ch, note, vel))
	})
	e.clock.ScheduleAt(at+drumGate, func() {
		e.write(gomidi.NoteOff(ch, note))
	})
}

func (e *Engine) Target(id sequencer.ParamID) sequencer.ApplyFunc {
	if e.Port() == "" || id < 0 || id >= sequencer.NumParams {
		return nil
	}
	desc := sequencer.Params[id]
	cc := ParamCC[id]
	ch := e.MelodyChannel
	return func(value, at float64) {
		v := uint8(math.Round(desc.Normalize(value) * 127))
		e.at(at, func() {
			e.write(gomidi.ControlChange(ch, cc, v))
		})
	}
}

// SetVoice sends the waveform as a program change and the static levels as
// control changes
func (e *Engine) SetVoice(v sequencer.Voice) {
	ch := e.MelodyChannel
	if prog, ok := WaveformProgram[v.Waveform]; ok {
		e.write(gomidi.ProgramChange(ch, prog))
	}
	for id, level := range v.Levels {
		e.write(gomidi.ControlChange(ch, ParamCC[id], uint8(math.Round(level*127))))
	}
}

// Panic silences both channels
func (e *Engine) Panic() {
	for _, ch := range []uint8{e.MelodyChannel, e.PercussionChannel} {
		e.write(gomidi.ControlChange(ch, 123, 0)) // all notes off
	}
}

func toVelocity(v float64) uint8 {
	b := math.Round(v * 127)
	return uint8(min(max(b, 1), 127))
}
