package config

import (
	"os"
	"path/filepath"

	"go-stepgraph/sequencer"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"
)

// OutputConfig selects the MIDI output and channels (1-16)
type OutputConfig struct {
	PortName          string `yaml:"port,omitempty"`
	MelodyChannel     int    `yaml:"melodyChannel"`
	PercussionChannel int    `yaml:"percussionChannel"`
}

// InputConfig selects a MIDI keyboard for step entry
type InputConfig struct {
	PortName string `yaml:"port,omitempty"`
}

// SessionConfig holds the start-up musical settings
type SessionConfig struct {
	Tempo          int    `yaml:"tempo"`
	Key            string `yaml:"key"`
	Octave         int    `yaml:"octave"`
	MelodyMode     string `yaml:"melodyMode"`
	PercussionMode string `yaml:"percussionMode"`
	Kit            string `yaml:"kit"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette   string `yaml:"palette,omitempty"` // GPL file, empty for the built-in colours
	SampleDir string `yaml:"sampleDir,omitempty"`
	Project   string `yaml:"project,omitempty"`
	Log       bool   `yaml:"log,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Input   InputConfig   `yaml:"input,omitempty"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			MelodyChannel:     1,
			PercussionChannel: 10,
		},
		Session: SessionConfig{
			Tempo:          sequencer.DefaultTempo,
			Key:            "C",
			Octave:         4,
			MelodyMode:     sequencer.ModeForward.String(),
			PercussionMode: sequencer.ModeForward.String(),
			Kit:            sequencer.DefaultKit,
		},
		UI: UIConfig{
			Project: "untitled",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("locate home directory"))
	}
	return filepath.Join(home, ".config", "go-stepgraph"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Fields missing from the file keep their
// defaults; a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("parse config "+path))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	for _, ch := range []int{c.Output.MelodyChannel, c.Output.PercussionChannel} {
		if ch < 1 || ch > 16 {
			return fault.New("midi channels must be 1-16", ftag.With(ftag.InvalidArgument))
		}
	}
	if c.Session.Tempo < sequencer.MinTempo || c.Session.Tempo > sequencer.MaxTempo {
		return fault.New("tempo out of range", ftag.With(ftag.InvalidArgument))
	}
	if _, ok := sequencer.ParseKey(c.Session.Key); !ok {
		return fault.New("unknown key "+c.Session.Key, ftag.With(ftag.InvalidArgument))
	}
	if c.Session.Octave < sequencer.MinOctave || c.Session.Octave > sequencer.MaxOctave {
		return fault.New("octave out of range", ftag.With(ftag.InvalidArgument))
	}
	for _, m := range []string{c.Session.MelodyMode, c.Session.PercussionMode} {
		if _, err := sequencer.ParsePlayMode(m); err != nil {
			return fault.Wrap(err, ftag.With(ftag.InvalidArgument))
		}
	}
	if _, ok := sequencer.Kits[c.Session.Kit]; !ok {
		return fault.New("unknown kit "+c.Session.Kit, ftag.With(ftag.InvalidArgument))
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config directory"))
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	return fault.Wrap(os.WriteFile(path, data, 0644), fmsg.With("write config"))
}

// Apply configures a fresh session from the start-up settings. Names were
// checked by Validate.
func (c *Config) Apply(s *sequencer.Session) {
	key, _ := sequencer.ParseKey(c.Session.Key)
	s.Store.SetKey(key, c.Session.Octave)
	s.SetKit(c.Session.Kit)
	s.Transport.SetTempo(c.Session.Tempo)
	if m, err := sequencer.ParsePlayMode(c.Session.MelodyMode); err == nil {
		s.Transport.SetMode(sequencer.FamilyMelody, m)
	}
	if m, err := sequencer.ParsePlayMode(c.Session.PercussionMode); err == nil {
		s.Transport.SetMode(sequencer.FamilyPercussion, m)
	}
}
