package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitchMap(t *testing.T) {
	p := PitchMap(0, 4)
	assert.Equal(t, Note(72), p[0])
	assert.Equal(t, Note(60), p[12])
	assert.Equal(t, "C4", p[12].String())
	assert.Equal(t, "C5", RowLabel(p, 0))
	assert.Equal(t, "B", RowLabel(p, 1))

	high := PitchMap(11, MaxOctave)
	assert.Equal(t, Note(119), high[0])
	assert.Equal(t, PitchMap(11, MaxOctave), PitchMap(11, MaxOctave+3), "octave clamped")
}

func TestCellIDsUniqueForEveryKey(t *testing.T) {
	s := NewStore()
	for r := 0; r < MelodyRows; r++ {
		s.Toggle(FamilyMelody, r, 3)
	}
	for octave := MinOctave; octave <= MaxOctave; octave++ {
		for key := 0; key < 12; key++ {
			s.SetKey(key, octave)
			ids := s.Sequence(FamilyMelody).CellIDs()
			require.Len(t, ids, MelodyRows)

			seen := make(map[string]bool)
			for _, id := range ids {
				assert.False(t, seen[id], "key %d octave %d repeats %s", key, octave, id)
				seen[id] = true
			}
		}
	}

	s.SetKey(11, 9)
	assert.Equal(t, MaxOctave, s.State(FamilyMelody).Octave)
}

func TestParseKey(t *testing.T) {
	k, ok := ParseKey("f#")
	require.True(t, ok)
	assert.Equal(t, 6, k)
	assert.Equal(t, "F#", KeyName(k))
	assert.Equal(t, "B", KeyName(-1))

	_, ok = ParseKey("H")
	assert.False(t, ok)
}

func TestParamScale(t *testing.T) {
	cutoff := Param(ParamCutoff)
	assert.InDelta(t, cutoff.Min, cutoff.Scale(0), 1e-9)
	assert.InDelta(t, cutoff.Max, cutoff.Scale(1), 1e-6)
	assert.InDelta(t, 0.4, cutoff.Normalize(cutoff.Scale(0.4)), 1e-9)
	assert.InDelta(t, cutoff.Max, cutoff.Scale(7), 1e-6, "clamped")

	sustain := Param(ParamSustain)
	assert.Equal(t, 0.5, sustain.Scale(0.5))
	assert.Equal(t, "0.50", sustain.Format(0.5))
	assert.Equal(t, "12.0kHz", cutoff.Format(1))

	p, ok := ParamByKey("reverb-decay")
	require.True(t, ok)
	assert.Equal(t, ParamReverbDecay, p.ID)
	assert.Equal(t, "release", ParamRelease.String())
}

func TestStoreRegroupsAfterEdits(t *testing.T) {
	s := NewStore()
	changes := 0
	s.OnChange(func(Family) { changes++ })

	s.Toggle(FamilyMelody, 12, 2)
	seq := s.Sequence(FamilyMelody)
	require.Len(t, seq, 1)
	assert.Equal(t, "C4@2", seq[0].AnchorID)

	s.SetKey(2, 4)
	assert.Equal(t, "D4@2", s.Sequence(FamilyMelody)[0].AnchorID, "labels follow the key")
	assert.True(t, s.Grid(FamilyMelody).Active(12, 2), "grid untouched by key change")

	s.SetRange(FamilyPercussion, []Cell{{0, 0}, {1, 0}}, true)
	assert.Equal(t, "snare@0", s.Sequence(FamilyPercussion)[0].AnchorID)
	assert.Equal(t, 3, changes)
}
