package samples

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stepgraph/sequencer"
)

const testRate = beep.SampleRate(44100)

// silenceThenTone streams `silent` zero frames followed by `loud` frames
// at half scale
func silenceThenTone(silent, loud int) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		total := silent + loud
		if pos >= total {
			return 0, false
		}
		n := 0
		for n < len(buf) && pos < total {
			v := 0.0
			if pos >= silent {
				v = 0.5
			}
			buf[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})
}

func writeWAV(t *testing.T, path string, s beep.Streamer) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, wav.Encode(f, s, beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}))
}

func TestMeasureFindsOnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kick.wav")
	writeWAV(t, path, silenceThenTone(1000, 3000))

	info, err := MeasureFile(path, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, testRate, info.SampleRate)
	assert.Equal(t, 4000, info.Frames)
	assert.Equal(t, 1000, info.Onset)
	assert.InDelta(t, 1000.0/44100, info.Offset, 1e-6)
	assert.InDelta(t, 4000.0/44100, info.Length, 1e-6)
}

func TestMeasureSilentSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silent.wav")
	writeWAV(t, path, silenceThenTone(600, 0))

	info, err := MeasureFile(path, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, info.Frames, info.Onset)
	assert.InDelta(t, info.Length, info.Offset, 1e-9)
}

func TestMeasureErrors(t *testing.T) {
	_, err := Measure(bytes.NewReader([]byte("not a wav file at all")), DefaultThreshold)
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))

	_, err = MeasureFile(filepath.Join(t.TempDir(), "missing.wav"), DefaultThreshold)
	require.Error(t, err)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))
}

func TestLibraryLoadsKit(t *testing.T) {
	dir := t.TempDir()
	kit := sequencer.GetKit(sequencer.DefaultKit)
	writeWAV(t, filepath.Join(dir, kit.Slots[0].Sample), silenceThenTone(441, 441))

	lib := NewLibrary(dir, kit)
	ref, ok := lib.Buffer(0)
	require.True(t, ok)
	assert.Equal(t, kit.Slots[0].Name, ref.Name)
	assert.Equal(t, kit.Slots[0].Note, ref.Note)
	assert.InDelta(t, 0.01, ref.Offset, 1e-6)

	_, ok = lib.Buffer(1)
	assert.False(t, ok, "sample file missing")
	_, ok = lib.Buffer(99)
	assert.False(t, ok)

	info, ok := lib.Info(0)
	require.True(t, ok)
	assert.Equal(t, 882, info.Frames)
	assert.Equal(t, kit.Name, lib.Kit().Name)
}

func TestLibraryFollowsSession(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir, sequencer.GetKit(sequencer.DefaultKit))
	s := sequencer.NewSession(sequencer.Options{Buffers: lib})

	s.SetKit("rd8")
	assert.Equal(t, sequencer.GetKit("rd8").Name, lib.Kit().Name)
}
