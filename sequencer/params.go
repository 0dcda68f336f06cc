package sequencer

import (
	"fmt"
	"math"
)

// ParamID identifies an automatable instrument parameter
type ParamID int

const (
	ParamCutoff ParamID = iota
	ParamResonance
	ParamReverbSend
	ParamReverbDecay
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	NumParams
)

// ParamDesc describes the range and display of a parameter. Curve and level
// values are stored normalized (0..1) and mapped into Min..Max by Scale.
type ParamDesc struct {
	ID      ParamID
	Key     string
	Name    string
	Min     float64
	Max     float64
	Default float64 // normalized
	Unit    string
	Log     bool // exponential mapping (frequencies, times)
}

// Params is the parameter registry, indexed by ParamID
var Params = [NumParams]ParamDesc{
	{ID: ParamCutoff, Key: "cutoff", Name: "Cutoff", Min: 80, Max: 12000, Default: 0.8, Unit: "Hz", Log: true},
	{ID: ParamResonance, Key: "resonance", Name: "Reso", Min: 0.1, Max: 18, Default: 0.1, Unit: "Q"},
	{ID: ParamReverbSend, Key: "reverb", Name: "Reverb", Min: 0, Max: 1, Default: 0.2},
	{ID: ParamReverbDecay, Key: "reverb-decay", Name: "Decay Time", Min: 0.2, Max: 8, Default: 0.3, Unit: "s", Log: true},
	{ID: ParamAttack, Key: "attack", Name: "Attack", Min: 0.001, Max: 2, Default: 0.2, Unit: "s", Log: true},
	{ID: ParamDecay, Key: "decay", Name: "Decay", Min: 0.01, Max: 2, Default: 0.25, Unit: "s", Log: true},
	{ID: ParamSustain, Key: "sustain", Name: "Sustain", Min: 0, Max: 1, Default: 0.5},
	{ID: ParamRelease, Key: "release", Name: "Release", Min: 0.01, Max: 4, Default: 0.4, Unit: "s", Log: true},
}

func (id ParamID) String() string {
	if id >= 0 && id < NumParams {
		return Params[id].Key
	}
	return fmt.Sprintf("param(%d)", int(id))
}

// Param returns the descriptor for id
func Param(id ParamID) ParamDesc {
	return Params[id]
}

// ParamByKey looks up a descriptor by its key
func ParamByKey(key string) (ParamDesc, bool) {
	for _, p := range Params {
		if p.Key == key {
			return p, true
		}
	}
	return ParamDesc{}, false
}

// Scale maps a normalized value into the parameter range
func (d ParamDesc) Scale(norm float64) float64 {
	norm = clamp01(norm)
	if d.Log && d.Min > 0 {
		return d.Min * math.Pow(d.Max/d.Min, norm)
	}
	return d.Min + (d.Max-d.Min)*norm
}

// Normalize is the inverse of Scale
func (d ParamDesc) Normalize(v float64) float64 {
	if d.Log && d.Min > 0 {
		if v <= d.Min {
			return 0
		}
		return clamp01(math.Log(v/d.Min) / math.Log(d.Max/d.Min))
	}
	if d.Max == d.Min {
		return 0
	}
	return clamp01((v - d.Min) / (d.Max - d.Min))
}

// Format renders a normalized value in display units
func (d ParamDesc) Format(norm float64) string {
	v := d.Scale(norm)
	switch {
	case d.Unit == "Hz" && v >= 1000:
		return fmt.Sprintf("%.1fkHz", v/1000)
	case d.Unit == "":
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.2f%s", v, d.Unit)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Waveforms selectable for the melody voice
var Waveforms = []string{"sine", "triangle", "square", "sawtooth"}

// Voice is the melody instrument's static settings. Levels are the
// normalized parameter values used whenever a lane's curve is disabled.
type Voice struct {
	Waveform string             `json:"waveform"`
	Levels   [NumParams]float64 `json:"levels"`
}

// DefaultVoice returns a sine voice with every parameter at its default
func DefaultVoice() Voice {
	v := Voice{Waveform: Waveforms[0]}
	for i, p := range Params {
		v.Levels[i] = p.Default
	}
	return v
}

// ApplyFunc sets a parameter on the audio engine, in the parameter's units,
// at audio time at
type ApplyFunc func(value float64, at float64)
