package sequencer

import (
	"fmt"
	"strings"
)

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a MIDI note number
type Note uint8

// String formats the note in scientific pitch notation, C4 = 60
func (n Note) String() string {
	return fmt.Sprintf("%s%d", noteNames[int(n)%12], int(n)/12-1)
}

// PitchClass returns the note name without octave
func (n Note) PitchClass() string {
	return noteNames[int(n)%12]
}

// ParseKey converts a pitch class name ("C", "F#") to 0..11
func ParseKey(name string) (int, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range noteNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// KeyName is the inverse of ParseKey
func KeyName(key int) string {
	return noteNames[((key%12)+12)%12]
}

// Octave limits. At MaxOctave the top row of key B is note 119, so every
// key keeps 13 distinct notes and row labels stay unique.
const (
	MinOctave = 0
	MaxOctave = 7
)

// PitchMap returns the note for each melody row. Row 0 is the octave above
// the root, row 12 is the root itself, so the grid reads high to low.
func PitchMap(key, octave int) [MelodyRows]Note {
	var m [MelodyRows]Note
	octave = min(max(octave, MinOctave), MaxOctave)
	root := 12*(octave+1) + ((key%12)+12)%12
	for r := 0; r < MelodyRows; r++ {
		m[r] = Note(root + MelodyRows - 1 - r)
	}
	return m
}

// RowLabel returns the short label shown next to a melody row: full names
// at the octave ends, pitch class only in between
func RowLabel(pitches [MelodyRows]Note, row int) string {
	if row == 0 || row == MelodyRows-1 {
		return pitches[row].String()
	}
	return pitches[row].PitchClass()
}
