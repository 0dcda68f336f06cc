package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-stepgraph/debug"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// scanTimeout bounds a port listing. CoreMIDI can hang.
const scanTimeout = 3 * time.Second

type portsResult struct {
	inPorts  []drivers.In
	outPorts []drivers.Out
}

// scan lists ports, giving up after timeout
func scan(timeout time.Duration) (portsResult, error) {
	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return portsResult{}, fault.New("midi port scan timed out", fmsg.With("MIDI system is not responding"))
	}
}

// OutPorts lists the output port names
func OutPorts() ([]string, error) {
	r, err := scan(scanTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(r.outPorts))
	for i, p := range r.outPorts {
		names[i] = p.String()
	}
	return names, nil
}

// InPorts lists the input port names
func InPorts() ([]string, error) {
	r, err := scan(scanTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(r.inPorts))
	for i, p := range r.inPorts {
		names[i] = p.String()
	}
	return names, nil
}

// matchPort prefers an exact name and falls back to a case-insensitive
// substring, so "iac" finds "IAC Driver Bus 1"
func matchPort(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	want = strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}

// OpenOut opens an output port by name. An empty name picks the first port.
func OpenOut(name string) (string, func(gomidi.Message) error, error) {
	r, err := scan(scanTimeout)
	if err != nil {
		return "", nil, err
	}
	if len(r.outPorts) == 0 {
		return "", nil, fault.New("no midi outputs", ftag.With(ftag.NotFound),
			fmsg.WithDesc("no midi outputs", "No MIDI output ports found"))
	}
	idx := 0
	if name != "" {
		names := make([]string, len(r.outPorts))
		for i, p := range r.outPorts {
			names[i] = p.String()
		}
		if idx = matchPort(names, name); idx < 0 {
			return "", nil, fault.New("midi output "+name+" not found", ftag.With(ftag.NotFound))
		}
	}
	port := r.outPorts[idx]
	send, err := gomidi.SendTo(port)
	if err != nil {
		return "", nil, fault.Wrap(err, fmsg.With("open midi output "+port.String()))
	}
	return port.String(), send, nil
}

// PortEvent is emitted when the watched output appears or disappears
type PortEvent struct {
	Type PortEventType
	Name string
	Send func(gomidi.Message) error // set on PortConnected
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

// PortWatcher handles hot-plug of one output port
type PortWatcher struct {
	want     string
	mu       sync.RWMutex
	current  string
	events   chan PortEvent
	pollRate time.Duration
}

// NewPortWatcher watches for an output matching name ("" = any)
func NewPortWatcher(name string) *PortWatcher {
	return &PortWatcher{
		want:     name,
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
	}
}

// Events returns a channel of connect/disconnect events
func (pw *PortWatcher) Events() <-chan PortEvent {
	return pw.events
}

// Current returns the connected port name, or ""
func (pw *PortWatcher) Current() string {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.current
}

// Run starts the polling loop (blocking - run in goroutine)
func (pw *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(pw.pollRate)
	defer ticker.Stop()

	pw.poll()

	for {
		select {
		case <-ctx.Done():
			close(pw.events)
			return
		case <-ticker.C:
			pw.poll()
		}
	}
}

func (pw *PortWatcher) poll() {
	names, err := OutPorts()
	if err != nil {
		// skip this scan
		debug.Log("midi", "scan: %v", err)
		return
	}

	pw.mu.RLock()
	current := pw.current
	pw.mu.RUnlock()

	if current != "" {
		for _, n := range names {
			if n == current {
				return
			}
		}
		pw.mu.Lock()
		pw.current = ""
		pw.mu.Unlock()
		pw.events <- PortEvent{Type: PortDisconnected, Name: current}
		return
	}

	if len(names) == 0 || (pw.want != "" && matchPort(names, pw.want) < 0) {
		return
	}
	name, send, err := OpenOut(pw.want)
	if err != nil {
		debug.Log("midi", "open: %v", err)
		return
	}
	pw.mu.Lock()
	pw.current = name
	pw.mu.Unlock()
	pw.events <- PortEvent{Type: PortConnected, Name: name, Send: send}
}
