package sequencer

// FamilyState is the full editable state of one family: everything a
// pattern snapshot captures
type FamilyState struct {
	Grid   *Grid             `json:"grid"`
	Curves *[NumParams]Curve `json:"curves,omitempty"` // melody only
	Voice  *Voice            `json:"voice,omitempty"`  // melody only
	Mode   PlayMode          `json:"mode"`
	Key    int               `json:"key,omitempty"`
	Octave int               `json:"octave,omitempty"`
	Kit    string            `json:"kit,omitempty"` // percussion only
}

// NewFamilyState creates the empty state for a family
func NewFamilyState(f Family) *FamilyState {
	st := &FamilyState{
		Grid: NewGrid(f.Rows()),
		Mode: ModeForward,
	}
	switch f {
	case FamilyMelody:
		st.Octave = 4
		st.Curves = &[NumParams]Curve{}
		for i, p := range Params {
			for s := 0; s < NumSteps; s++ {
				st.Curves[i].Values[s] = p.Default
			}
		}
		v := DefaultVoice()
		st.Voice = &v
	case FamilyPercussion:
		st.Kit = DefaultKit
	}
	return st
}

// Clone returns a deep copy
func (st *FamilyState) Clone() *FamilyState {
	c := *st
	c.Grid = st.Grid.Clone()
	if st.Curves != nil {
		curves := *st.Curves
		c.Curves = &curves
	}
	if st.Voice != nil {
		v := *st.Voice
		c.Voice = &v
	}
	return &c
}

// Store is the live edit surface. All mutation goes through it so derived
// sequences stay in step with the grids.
type Store struct {
	states [numFamilies]*FamilyState
	tracks [numFamilies]TrackMeta
	rows   [numFamilies][]TrackMeta

	seq   [numFamilies]Sequence
	dirty [numFamilies]bool

	observers []func(Family)
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{}
	for _, f := range Families {
		s.states[f] = NewFamilyState(f)
		s.tracks[f] = TrackMeta{Volume: 1}
		s.rows[f] = make([]TrackMeta, f.Rows())
		for r := range s.rows[f] {
			s.rows[f][r] = TrackMeta{Volume: 1}
		}
		s.dirty[f] = true
	}
	return s
}

// OnChange registers fn to run after every edit of a family
func (s *Store) OnChange(fn func(Family)) {
	s.observers = append(s.observers, fn)
}

func (s *Store) changed(f Family) {
	s.dirty[f] = true
	for _, fn := range s.observers {
		fn(f)
	}
}

// State returns the live state of a family. Callers must not mutate it
// directly; use the Store methods.
func (s *Store) State(f Family) *FamilyState {
	return s.states[f]
}

// Grid returns the live grid of a family
func (s *Store) Grid(f Family) *Grid {
	return s.states[f].Grid
}

// Toggle flips one cell
func (s *Store) Toggle(f Family, row, step int) bool {
	v := s.states[f].Grid.Toggle(row, step)
	s.changed(f)
	return v
}

// SetRange paints cells (drag painting)
func (s *Store) SetRange(f Family, cells []Cell, v bool) {
	s.states[f].Grid.SetRange(cells, v)
	s.changed(f)
}

// Clear empties a family's grid
func (s *Store) Clear(f Family) {
	s.states[f].Grid.Clear()
	s.changed(f)
}

// Snapshot deep copies a family's state
func (s *Store) Snapshot(f Family) *FamilyState {
	return s.states[f].Clone()
}

// Restore replaces a family's state with a deep copy of st
func (s *Store) Restore(f Family, st *FamilyState) {
	c := st.Clone()
	c.Mode = normalizeMode(f, c.Mode)
	if f == FamilyMelody {
		def := NewFamilyState(f)
		if c.Curves == nil {
			c.Curves = def.Curves
		}
		if c.Voice == nil {
			c.Voice = def.Voice
		}
	}
	s.states[f] = c
	s.changed(f)
}

// Sequence returns the grouped events of a family, regrouping after edits
func (s *Store) Sequence(f Family) Sequence {
	if s.dirty[f] {
		s.seq[f] = Group(s.states[f].Grid, s.labeler(f))
		s.dirty[f] = false
	}
	return s.seq[f]
}

func (s *Store) labeler(f Family) func(int) string {
	if f == FamilyPercussion {
		kit := GetKit(s.states[f].Kit)
		return func(row int) string { return kit.Slots[row].Name }
	}
	pitches := s.Pitches()
	return func(row int) string { return pitches[row].String() }
}

// Pitches returns the current row to note mapping of the melody grid
func (s *Store) Pitches() [MelodyRows]Note {
	st := s.states[FamilyMelody]
	return PitchMap(st.Key, st.Octave)
}

// Label returns the display label of a row
func (s *Store) Label(f Family, row int) string {
	if f == FamilyPercussion {
		return GetKit(s.states[f].Kit).Slots[row].Name
	}
	return RowLabel(s.Pitches(), row)
}

// SetKey relabels the melody rows. The grid is untouched.
func (s *Store) SetKey(key, octave int) {
	st := s.states[FamilyMelody]
	st.Key = ((key % 12) + 12) % 12
	st.Octave = min(max(octave, MinOctave), MaxOctave)
	s.changed(FamilyMelody)
}

// SetKit changes the percussion kit
func (s *Store) SetKit(name string) {
	if _, ok := Kits[name]; !ok {
		name = DefaultKit
	}
	s.states[FamilyPercussion].Kit = name
	s.changed(FamilyPercussion)
}

// Mode returns the selected play mode of a family
func (s *Store) Mode(f Family) PlayMode {
	return s.states[f].Mode
}

func (s *Store) setMode(f Family, m PlayMode) PlayMode {
	m = normalizeMode(f, m)
	s.states[f].Mode = m
	return m
}

// Curve returns an automation lane
func (s *Store) Curve(id ParamID) Curve {
	return s.states[FamilyMelody].Curves[id]
}

// SetCurveValue sets one step of an automation lane (normalized)
func (s *Store) SetCurveValue(id ParamID, step int, v float64) {
	s.states[FamilyMelody].Curves[id].Values[step] = clamp01(v)
	s.changed(FamilyMelody)
}

// EnableCurve switches an automation lane on or off
func (s *Store) EnableCurve(id ParamID, on bool) {
	s.states[FamilyMelody].Curves[id].Enabled = on
	s.changed(FamilyMelody)
}

// Voice returns the melody voice
func (s *Store) Voice() Voice {
	return *s.states[FamilyMelody].Voice
}

// SetWaveform selects the melody waveform
func (s *Store) SetWaveform(w string) {
	s.states[FamilyMelody].Voice.Waveform = w
	s.changed(FamilyMelody)
}

// SetLevel sets the static (non-automated) value of a parameter
func (s *Store) SetLevel(id ParamID, norm float64) {
	s.states[FamilyMelody].Voice.Levels[id] = clamp01(norm)
	s.changed(FamilyMelody)
}

// Track returns family level mix settings
func (s *Store) Track(f Family) TrackMeta {
	return s.tracks[f]
}

// SetTrack replaces family level mix settings
func (s *Store) SetTrack(f Family, m TrackMeta) {
	s.tracks[f] = m
}

// Row returns per row mix settings
func (s *Store) Row(f Family, row int) TrackMeta {
	return s.rows[f][row]
}

// SetRow replaces per row mix settings
func (s *Store) SetRow(f Family, row int, m TrackMeta) {
	s.rows[f][row] = m
}
