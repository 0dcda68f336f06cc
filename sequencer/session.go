package sequencer

import (
	"time"

	"go-stepgraph/debug"
)

// Options configures a Session. Zero values pick defaults.
type Options struct {
	Clock   Clock   // default: a fresh ManualClock
	Engine  Engine  // default: a Recorder
	Buffers Buffers // default: KitBuffers for the live kit
	Now     func() time.Time
	Tempo   int
}

// Session owns the whole sequencer: edit store, pattern bank and transport.
// All methods must run on the clock's timeline; input handlers outside it
// go through Do.
type Session struct {
	Store     *Store
	Bank      *Bank
	Transport *Transport

	clock   Clock
	engine  Engine
	buffers Buffers

	voice    Voice // last voice sent to the engine
	hasVoice bool
}

// KitSetter is implemented by buffer sources that follow the live kit
type KitSetter interface {
	SetKit(k Kit)
}

// NewSession builds a stopped session
func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = NewManualClock()
	}
	if opts.Engine == nil {
		opts.Engine = &Recorder{}
	}
	store := NewStore()
	s := &Session{
		Store:  store,
		clock:  opts.Clock,
		engine: opts.Engine,
	}
	s.buffers = opts.Buffers
	if s.buffers == nil {
		s.buffers = &KitBuffers{Kit: GetKit(store.State(FamilyPercussion).Kit)}
	}
	s.Transport = NewTransport(opts.Clock, store, opts.Engine, s.buffers)
	s.Bank = NewBank(store, s.Transport.Running, opts.Now)
	s.Transport.SetBank(s.Bank)
	if opts.Tempo != 0 {
		s.Transport.SetTempo(opts.Tempo)
	}

	store.OnChange(func(f Family) {
		switch f {
		case FamilyMelody:
			s.pushVoice()
		case FamilyPercussion:
			s.followKit()
		}
		// a restored snapshot brings its own mode; a stopped cursor follows it
		if !s.Transport.Running() {
			s.Transport.syncCursor(f)
		}
	})
	s.pushVoice()
	return s
}

func (s *Session) followKit() {
	ks, ok := s.buffers.(KitSetter)
	if !ok {
		return
	}
	kit := GetKit(s.Store.State(FamilyPercussion).Kit)
	if cur, ok := s.buffers.(interface{ Kit() Kit }); ok && cur.Kit().Name == kit.Name {
		return
	}
	ks.SetKit(kit)
}

func (s *Session) pushVoice() {
	vs, ok := s.engine.(VoiceSetter)
	if !ok {
		return
	}
	v := s.Store.Voice()
	if s.hasVoice && v == s.voice {
		return
	}
	s.voice, s.hasVoice = v, true
	vs.SetVoice(v)
}

// Clock returns the session's clock
func (s *Session) Clock() Clock {
	return s.clock
}

// Engine returns the session's audio engine
func (s *Session) Engine() Engine {
	return s.engine
}

// Do runs fn on the session's timeline
func (s *Session) Do(fn func()) {
	s.clock.Do(fn)
}

// Close stops playback and releases the clock
func (s *Session) Close() {
	s.clock.Do(s.Transport.Stop)
	if c, ok := s.clock.(interface{ Close() }); ok {
		c.Close()
	}
}

// SetKit changes the percussion kit
func (s *Session) SetKit(name string) {
	s.Store.SetKit(name)
}

// Export captures everything a Payload holds
func (s *Session) Export() *Payload {
	p := &Payload{
		Version:    PayloadVersion,
		Tempo:      s.Transport.Tempo(),
		Melody:     s.Store.Snapshot(FamilyMelody),
		Percussion: s.Store.Snapshot(FamilyPercussion),
		Rows:       make([][]TrackMeta, numFamilies),
	}
	for _, f := range Families {
		p.Tracks[f] = s.Store.Track(f)
		p.Rows[f] = make([]TrackMeta, f.Rows())
		for r := range p.Rows[f] {
			p.Rows[f][r] = s.Store.Row(f, r)
		}
		p.Banks[f] = s.Bank.Export(f)
	}
	return p
}

// Encode exports the session as a URL-fragment-safe string
func (s *Session) Encode() (string, error) {
	return s.Export().Marshal()
}

// Import replaces the live state with a validated payload. Playback is
// stopped first. On error the session is left untouched.
func (s *Session) Import(p *Payload) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.Transport.Stop()
	s.Transport.SetTempo(p.Tempo)
	for _, f := range Families {
		s.Bank.Import(f, p.Banks[f])
		s.Store.Restore(f, p.Live(f))
		s.Store.SetTrack(f, p.Tracks[f])
		if p.Rows != nil {
			for r, m := range p.Rows[f] {
				s.Store.SetRow(f, r, m)
			}
		}
	}
	debug.Log("session", "imported payload tempo=%d", p.Tempo)
	return nil
}

// Load decodes and imports an encoded payload
func (s *Session) Load(encoded string) error {
	p, err := Decode(encoded)
	if err != nil {
		return err
	}
	return s.Import(p)
}
