package sequencer

import (
	"io"
	"math"
	"sort"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	exportResolution = 960
	ticksPerStep     = exportResolution / 4
)

// ExportOptions controls SMF rendering
type ExportOptions struct {
	Passes            int   // melody passes to render, default 1
	MelodyChannel     uint8 // zero based
	PercussionChannel uint8 // zero based, default 9 (GM drums)
}

// PassLength is the number of ticks one pass of mode takes
func PassLength(mode PlayMode) int {
	n := 0
	for pos := range BuildTraversal(mode) {
		if !Suppressed(mode, pos) {
			n++
		}
	}
	return n
}

type smfEvent struct {
	tick  uint32
	order int // note-offs sort before note-ons at the same tick
	msg   gomidi.Message
}

// ExportSMF renders the payload's live patterns offline and writes them as
// a Standard MIDI File: a tempo track, a melody track and a percussion
// track. Pattern switches pending in the payload are not played.
func ExportSMF(p *Payload, w io.Writer, opts ExportOptions) error {
	if opts.Passes <= 0 {
		opts.Passes = 1
	}
	if opts.PercussionChannel == 0 && opts.MelodyChannel == 0 {
		opts.PercussionChannel = 9
	}
	if opts.MelodyChannel > 15 || opts.PercussionChannel > 15 {
		return fault.New("midi channel out of range", ftag.With(ftag.InvalidArgument))
	}

	clk := NewManualClock()
	rec := &Recorder{}
	sess := NewSession(Options{Clock: clk, Engine: rec})
	if err := sess.Import(p); err != nil {
		return err
	}
	tr := sess.Transport
	spm := tr.SecondsPerStep()
	ticks := opts.Passes * PassLength(sess.Store.Mode(FamilyMelody))

	tr.Play()
	clk.AdvanceTo(float64(ticks-1) * spm)
	tr.Stop()

	toTick := func(at float64) uint32 {
		return uint32(math.Round(at / spm * ticksPerStep))
	}

	var melody []smfEvent
	for _, hit := range rec.Notes {
		on := toTick(hit.At)
		vel := velocityByte(hit.Velocity)
		for _, n := range hit.Notes {
			melody = append(melody,
				smfEvent{tick: on, order: 1, msg: gomidi.NoteOn(opts.MelodyChannel, uint8(n), vel)},
				smfEvent{tick: on + ticksPerStep - 1, order: 0, msg: gomidi.NoteOff(opts.MelodyChannel, uint8(n))},
			)
		}
	}

	var perc []smfEvent
	for _, hit := range rec.Shots {
		on := toTick(hit.At)
		vel := velocityByte(hit.Gain)
		perc = append(perc,
			smfEvent{tick: on, order: 1, msg: gomidi.NoteOn(opts.PercussionChannel, uint8(hit.Ref.Note), vel)},
			smfEvent{tick: on + ticksPerStep/2, order: 0, msg: gomidi.NoteOff(opts.PercussionChannel, uint8(hit.Ref.Note))},
		)
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(exportResolution)

	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(float64(tr.Tempo())))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return fault.Wrap(err, fmsg.With("add tempo track"))
	}

	end := uint32(ticks) * ticksPerStep
	for _, events := range [][]smfEvent{melody, perc} {
		if err := sm.Add(buildTrack(events, end)); err != nil {
			return fault.Wrap(err, fmsg.With("add track"))
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fault.Wrap(err, fmsg.With("write midi file"))
	}
	return nil
}

func buildTrack(events []smfEvent, end uint32) smf.Track {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].order < events[j].order
	})
	var track smf.Track
	var last uint32
	for _, ev := range events {
		track.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	var tail uint32
	if end > last {
		tail = end - last
	}
	track.Close(tail)
	return track
}

func velocityByte(v float64) uint8 {
	b := math.Round(v * 127)
	return uint8(min(max(b, 1), 127))
}
