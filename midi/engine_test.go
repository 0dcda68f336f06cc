package midi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-stepgraph/debug"
	"go-stepgraph/sequencer"
)

type sent struct {
	at  float64
	msg gomidi.Message
}

func newTestEngine(t *testing.T) (*Engine, *sequencer.ManualClock, *[]sent) {
	t.Helper()
	clk := sequencer.NewManualClock()
	e := NewEngine(clk, 0, 9)
	var out []sent
	e.SetOutput("test", func(m gomidi.Message) error {
		out = append(out, sent{at: clk.Now(), msg: m})
		return nil
	})
	return e, clk, &out
}

func TestTriggerNotes(t *testing.T) {
	e, clk, out := newTestEngine(t)
	e.TriggerNotes([]sequencer.Note{60, 64}, 0.1, 0.5, 1)
	assert.Empty(t, *out, "nothing before the note time")

	clk.AdvanceTo(1)
	require.Len(t, *out, 4)

	var ch, key, vel uint8
	require.True(t, (*out)[0].msg.GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(0), ch)
	assert.Equal(t, uint8(60), key)
	assert.Equal(t, uint8(127), vel)
	assert.InDelta(t, 0.5, (*out)[0].at, 1e-9)

	require.True(t, (*out)[3].msg.GetNoteOff(&ch, &key, &vel))
	assert.Equal(t, uint8(64), key)
	assert.InDelta(t, 0.6, (*out)[3].at, 1e-9)
}

func TestTriggerOneShot(t *testing.T) {
	e, clk, out := newTestEngine(t)
	e.TriggerOneShot(sequencer.BufferRef{Name: "kick", Note: 36}, 0, 0.01, 0.5)
	require.Len(t, *out, 1, "past times play immediately")

	var ch, key, vel uint8
	require.True(t, (*out)[0].msg.GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(9), ch)
	assert.Equal(t, uint8(36), key)
	assert.Equal(t, uint8(64), vel)

	clk.Advance(drumGate)
	require.Len(t, *out, 2)
	assert.True(t, (*out)[1].msg.GetNoteOff(&ch, &key, &vel))
}

func TestTriggerOneShotLogsUnusedOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	require.NoError(t, debug.EnableFile(path))
	t.Cleanup(debug.Disable)

	e, _, out := newTestEngine(t)
	for range 16 {
		e.TriggerOneShot(sequencer.BufferRef{Name: "kick", Note: 36}, 0, 0.012, 1)
	}
	assert.Len(t, *out, 16, "offset does not delay the note")
	debug.Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "one-shot kick: offset 0.012s not applied")
}

func TestTargetSendsControlChange(t *testing.T) {
	e, clk, out := newTestEngine(t)
	apply := e.Target(sequencer.ParamReverbSend)
	require.NotNil(t, apply)

	apply(1, 0.25)
	clk.AdvanceTo(0.25)
	require.Len(t, *out, 1)

	var ch, cc, val uint8
	require.True(t, (*out)[0].msg.GetControlChange(&ch, &cc, &val))
	assert.Equal(t, ParamCC[sequencer.ParamReverbSend], cc)
	assert.Equal(t, uint8(127), val)

	assert.Nil(t, e.Target(sequencer.NumParams))
}

func TestNoOutput(t *testing.T) {
	clk := sequencer.NewManualClock()
	e := NewEngine(clk, 0, 9)
	assert.Empty(t, e.Port())
	assert.Nil(t, e.Target(sequencer.ParamCutoff))

	e.TriggerNotes([]sequencer.Note{60}, 0.1, 0, 1)
	clk.Advance(1)
}

func TestSetVoice(t *testing.T) {
	e, _, out := newTestEngine(t)
	v := sequencer.DefaultVoice()
	v.Waveform = "square"
	e.SetVoice(v)
	require.Len(t, *out, 1+int(sequencer.NumParams))

	var ch, prog uint8
	require.True(t, (*out)[0].msg.GetProgramChange(&ch, &prog))
	assert.Equal(t, WaveformProgram["square"], prog)
}

func TestToVelocity(t *testing.T) {
	assert.Equal(t, uint8(1), toVelocity(0))
	assert.Equal(t, uint8(127), toVelocity(2))
	assert.Equal(t, uint8(64), toVelocity(0.5))
}

func TestMatchPort(t *testing.T) {
	names := []string{"IAC Driver Bus 1", "USB MIDI", "usb midi"}
	assert.Equal(t, 2, matchPort(names, "usb midi"))
	assert.Equal(t, 0, matchPort(names, "iac"))
	assert.Equal(t, -1, matchPort(names, "launchpad"))
}
