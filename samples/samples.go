// Package samples loads the one-shot percussion samples and measures how
// much leading silence each one carries.
package samples

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"go-stepgraph/debug"
	"go-stepgraph/sequencer"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// DefaultThreshold is the absolute amplitude treated as the onset
const DefaultThreshold = 0.01

// Info describes a decoded sample
type Info struct {
	SampleRate beep.SampleRate
	Frames     int
	Onset      int     // first frame above the threshold
	Offset     float64 // leading silence, seconds
	Length     float64 // seconds
}

// Measure decodes a WAV stream and finds its onset. A sample that never
// crosses the threshold has its onset at the end.
func Measure(r io.Reader, threshold float64) (Info, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return Info{}, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("decode wav"))
	}
	defer streamer.Close()

	info := Info{SampleRate: format.SampleRate, Onset: -1}
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		if info.Onset < 0 {
			for i := 0; i < n; i++ {
				if math.Abs(buf[i][0]) > threshold || math.Abs(buf[i][1]) > threshold {
					info.Onset = info.Frames + i
					break
				}
			}
		}
		info.Frames += n
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return Info{}, fault.Wrap(err, fmsg.With("read wav"))
	}
	if info.Onset < 0 {
		info.Onset = info.Frames
	}
	info.Offset = format.SampleRate.D(info.Onset).Seconds()
	info.Length = format.SampleRate.D(info.Frames).Seconds()
	return info, nil
}

// MeasureFile is Measure on a file
func MeasureFile(path string, threshold float64) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fault.Wrap(err, ftag.With(ftag.NotFound), fmsg.With("sample not found"))
		}
		return Info{}, fault.Wrap(err, fmsg.With("open sample"))
	}
	defer f.Close()
	return Measure(f, threshold)
}

type slot struct {
	ref    sequencer.BufferRef
	info   Info
	loaded bool
}

// Library holds the samples of one kit, read from Dir. Rows whose file is
// missing or unreadable stay unavailable.
type Library struct {
	Dir       string
	Threshold float64

	kit   sequencer.Kit
	slots [sequencer.PercussionRows]slot
}

// NewLibrary creates a library and loads kit from dir
func NewLibrary(dir string, kit sequencer.Kit) *Library {
	l := &Library{Dir: dir, Threshold: DefaultThreshold}
	l.SetKit(kit)
	return l
}

// SetKit reloads every row for kit
func (l *Library) SetKit(kit sequencer.Kit) {
	l.kit = kit
	for row, s := range kit.Slots {
		l.slots[row] = slot{ref: sequencer.BufferRef{Row: row, Name: s.Name, Note: s.Note}}
		if l.Dir == "" || s.Sample == "" {
			continue
		}
		info, err := MeasureFile(filepath.Join(l.Dir, s.Sample), l.Threshold)
		if err != nil {
			debug.Log("samples", "row %d %s: %v", row, s.Sample, err)
			continue
		}
		l.slots[row].info = info
		l.slots[row].ref.Offset = info.Offset
		l.slots[row].loaded = true
		debug.Log("samples", "row %d %s offset=%.4fs len=%.3fs", row, s.Sample, info.Offset, info.Length)
	}
}

// Kit returns the loaded kit
func (l *Library) Kit() sequencer.Kit {
	return l.kit
}

// Info returns what was measured for a row
func (l *Library) Info(row int) (Info, bool) {
	if row < 0 || row >= sequencer.PercussionRows || !l.slots[row].loaded {
		return Info{}, false
	}
	return l.slots[row].info, true
}

// Buffer implements sequencer.Buffers
func (l *Library) Buffer(row int) (sequencer.BufferRef, bool) {
	if row < 0 || row >= sequencer.PercussionRows || !l.slots[row].loaded {
		return sequencer.BufferRef{}, false
	}
	return l.slots[row].ref, true
}
