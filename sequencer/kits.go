package sequencer

// KitSlot is one percussion row: display name, MIDI note and sample file
type KitSlot struct {
	Name   string
	Note   Note
	Sample string
}

// Kit maps the percussion rows to sounds
type Kit struct {
	Name  string
	Slots [PercussionRows]KitSlot
}

// Kits contains all available kit mappings. Row order is fixed per kit.
var Kits = map[string]Kit{
	"gm": {
		Name: "General MIDI",
		Slots: [PercussionRows]KitSlot{
			{Name: "kick", Note: 36, Sample: "kick.wav"},
			{Name: "snare", Note: 38, Sample: "snare.wav"},
			{Name: "clap", Note: 39, Sample: "clap.wav"},
			{Name: "closed-hh", Note: 42, Sample: "hh-closed.wav"},
			{Name: "open-hh", Note: 46, Sample: "hh-open.wav"},
			{Name: "rim", Note: 37, Sample: "rim.wav"},
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Slots: [PercussionRows]KitSlot{
			{Name: "kick", Note: 36, Sample: "kick.wav"},
			{Name: "snare", Note: 40, Sample: "snare.wav"}, // RD-8 uses 40, not 38
			{Name: "clap", Note: 39, Sample: "clap.wav"},
			{Name: "closed-hh", Note: 42, Sample: "hh-closed.wav"},
			{Name: "open-hh", Note: 46, Sample: "hh-open.wav"},
			{Name: "rim", Note: 37, Sample: "rim.wav"},
		},
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Slots: [PercussionRows]KitSlot{
			{Name: "kick", Note: 36, Sample: "kick.wav"},
			{Name: "snare", Note: 38, Sample: "snare.wav"},
			{Name: "clap", Note: 39, Sample: "clap.wav"},
			{Name: "closed-hh", Note: 42, Sample: "hh-closed.wav"},
			{Name: "open-hh", Note: 46, Sample: "hh-open.wav"},
			{Name: "ride", Note: 51, Sample: "ride.wav"},
		},
	},
	"er1": {
		Name: "Korg ER-1",
		Slots: [PercussionRows]KitSlot{
			{Name: "synth-1", Note: 36, Sample: "kick.wav"},
			{Name: "synth-2", Note: 38, Sample: "snare.wav"},
			{Name: "clap", Note: 39, Sample: "clap.wav"},
			{Name: "closed-hh", Note: 42, Sample: "hh-closed.wav"},
			{Name: "open-hh", Note: 46, Sample: "hh-open.wav"},
			{Name: "crash", Note: 49, Sample: "crash.wav"},
		},
	},
}

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) Kit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// BufferRef identifies a playable one-shot
type BufferRef struct {
	Row    int
	Name   string
	Note   Note
	Offset float64 // leading silence to skip, seconds
}

// Buffers resolves a percussion row to a loaded one-shot. ok is false while
// the row's buffer is not available.
type Buffers interface {
	Buffer(row int) (ref BufferRef, ok bool)
}

// KitBuffers serves every slot of a kit without audio data, for engines that
// address sounds by note (MIDI drum machines, file export)
type KitBuffers struct {
	Kit Kit
}

func (k *KitBuffers) SetKit(kit Kit) {
	k.Kit = kit
}

func (k *KitBuffers) Buffer(row int) (BufferRef, bool) {
	if row < 0 || row >= PercussionRows {
		return BufferRef{}, false
	}
	slot := k.Kit.Slots[row]
	return BufferRef{Row: row, Name: slot.Name, Note: slot.Note}, true
}
