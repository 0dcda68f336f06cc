package sequencer

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// PayloadVersion is the only payload layout Decode accepts
const PayloadVersion = 1

// Payload is the complete exported state of a session: live edit state,
// mix settings, tempo and both pattern banks
type Payload struct {
	Version int `json:"v"`
	Tempo   int `json:"tempo"`

	Melody     *FamilyState `json:"melody"`
	Percussion *FamilyState `json:"percussion"`

	Tracks [numFamilies]TrackMeta `json:"tracks"`
	Rows   [][]TrackMeta          `json:"rows,omitempty"`

	Banks [numFamilies]BankState `json:"banks"`
}

// Live returns the payload's live state of a family
func (p *Payload) Live(f Family) *FamilyState {
	if f == FamilyPercussion {
		return p.Percussion
	}
	return p.Melody
}

// Marshal encodes a payload as base64url(zlib(json)), safe for a URL
// fragment
func (p *Payload) Marshal() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("encode payload"))
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", fault.Wrap(err, fmsg.With("compress payload"))
	}
	if err := zw.Close(); err != nil {
		return "", fault.Wrap(err, fmsg.With("compress payload"))
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses and fully validates an encoded payload. Nothing is applied
// anywhere; a payload that decodes without error is safe to Import.
func Decode(s string) (*Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("payload is not base64url"))
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("payload is not compressed"))
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("payload is truncated"))
	}
	return DecodeJSON(data)
}

// DecodeJSON is Decode for an uncompressed payload (project files)
func DecodeJSON(data []byte) (*Payload, error) {
	// Peek at the version first so a newer layout is reported as such
	// instead of as whatever field fails to parse.
	var head struct {
		Version int `json:"v"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("payload is not valid JSON"))
	}
	if head.Version != PayloadVersion {
		return nil, fault.New(fmt.Sprintf("unsupported payload version %d", head.Version),
			ftag.With(ftag.InvalidArgument))
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("payload is corrupt"))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the shape of every grid and snapshot
func (p *Payload) Validate() error {
	if p.Tempo < MinTempo || p.Tempo > MaxTempo {
		return invalid("tempo %d out of range", p.Tempo)
	}
	for _, f := range Families {
		if err := validateState(f, p.Live(f), "live"); err != nil {
			return err
		}
		bank := p.Banks[f]
		if len(bank.Snapshots) > BankCapacity {
			return invalid("%s bank holds %d snapshots", f, len(bank.Snapshots))
		}
		seen := make(map[string]bool)
		for _, s := range bank.Snapshots {
			if s == nil || s.ID == "" {
				return invalid("%s snapshot without id", f)
			}
			if seen[s.ID] {
				return invalid("duplicate %s snapshot %s", f, s.ID)
			}
			seen[s.ID] = true
			if err := validateState(f, s.State, s.ID); err != nil {
				return err
			}
		}
	}
	if p.Rows != nil {
		if len(p.Rows) != int(numFamilies) {
			return invalid("row settings for %d families", len(p.Rows))
		}
		for _, f := range Families {
			if len(p.Rows[f]) != f.Rows() {
				return invalid("%s row settings have %d rows", f, len(p.Rows[f]))
			}
		}
	}
	return nil
}

func validateState(f Family, st *FamilyState, where string) error {
	if st == nil || st.Grid == nil {
		return invalid("%s %s state is missing", where, f)
	}
	if st.Grid.Rows() != f.Rows() {
		return invalid("%s %s grid has %d rows, want %d", where, f, st.Grid.Rows(), f.Rows())
	}
	if st.Key < 0 || st.Key > 11 {
		return invalid("%s key %d out of range", where, st.Key)
	}
	if st.Octave < MinOctave || st.Octave > MaxOctave {
		return invalid("%s octave %d out of range", where, st.Octave)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fault.New(fmt.Sprintf(format, args...), ftag.With(ftag.InvalidArgument))
}
