package sequencer

// NoteHit is one recorded TriggerNotes call
type NoteHit struct {
	Notes    []Note
	Duration float64
	At       float64
	Velocity float64
}

// ShotHit is one recorded TriggerOneShot call
type ShotHit struct {
	Ref    BufferRef
	At     float64
	Offset float64
	Gain   float64
}

// ParamHit is one recorded parameter application
type ParamHit struct {
	ID    ParamID
	Value float64
	At    float64
}

// Recorder is an Engine that keeps every call. Used for offline rendering
// and tests. Targets lists the parameters that accept values; nil means all.
type Recorder struct {
	Notes   []NoteHit
	Shots   []ShotHit
	Params  []ParamHit
	Voices  []Voice
	Targets map[ParamID]bool
}

func (r *Recorder) TriggerNotes(notes []Note, duration, at, velocity float64) {
	r.Notes = append(r.Notes, NoteHit{
		Notes:    append([]Note(nil), notes...),
		Duration: duration,
		At:       at,
		Velocity: velocity,
	})
}

func (r *Recorder) TriggerOneShot(ref BufferRef, at, offset, gain float64) {
	r.Shots = append(r.Shots, ShotHit{Ref: ref, At: at, Offset: offset, Gain: gain})
}

func (r *Recorder) Target(id ParamID) ApplyFunc {
	if r.Targets != nil && !r.Targets[id] {
		return nil
	}
	return func(v, at float64) {
		r.Params = append(r.Params, ParamHit{ID: id, Value: v, At: at})
	}
}

func (r *Recorder) SetVoice(v Voice) {
	r.Voices = append(r.Voices, v)
}

// Reset forgets everything recorded
func (r *Recorder) Reset() {
	r.Notes = nil
	r.Shots = nil
	r.Params = nil
	r.Voices = nil
}
