package midi

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// NoteEvent is sent when a note is played on a keyboard
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// Keyboard listens to a MIDI keyboard for step entry
type Keyboard struct {
	name     string
	stopFunc func()
	noteChan chan NoteEvent
}

// OpenKeyboard starts listening on an input port matched by name
func OpenKeyboard(name string) (*Keyboard, error) {
	r, err := scan(scanTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(r.inPorts))
	for i, p := range r.inPorts {
		names[i] = p.String()
	}
	idx := matchPort(names, name)
	if idx < 0 {
		return nil, fault.New("midi input "+name+" not found", ftag.With(ftag.NotFound))
	}
	return newKeyboard(r.inPorts[idx])
}

func newKeyboard(inPort drivers.In) (*Keyboard, error) {
	kb := &Keyboard{
		name:     inPort.String(),
		noteChan: make(chan NoteEvent, 32),
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		var channel, note, velocity uint8
		if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
			select {
			case kb.noteChan <- NoteEvent{Note: note, Velocity: velocity, Channel: channel}:
			default:
			}
		}
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open midi input "+kb.name))
	}
	kb.stopFunc = stop
	return kb, nil
}

// Name returns the input port name
func (kb *Keyboard) Name() string {
	return kb.name
}

// NoteEvents delivers note-ons; events are dropped while the reader lags
func (kb *Keyboard) NoteEvents() <-chan NoteEvent {
	return kb.noteChan
}

func (kb *Keyboard) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.noteChan)
	return nil
}
