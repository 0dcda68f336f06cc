package sequencer

import (
	"encoding/json"
	"fmt"
)

// NumSteps is the fixed pattern length: one bar of sixteenth notes
const NumSteps = 16

// Row counts per track family, fixed for the process lifetime
const (
	MelodyRows     = 13
	PercussionRows = 6
)

// Family identifies an independently saved and clocked group of tracks
type Family int

const (
	FamilyMelody Family = iota
	FamilyPercussion
)

const numFamilies = 2

// Families lists every family in display order
var Families = [numFamilies]Family{FamilyMelody, FamilyPercussion}

func (f Family) String() string {
	switch f {
	case FamilyMelody:
		return "melody"
	case FamilyPercussion:
		return "percussion"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Rows returns the grid height for this family
func (f Family) Rows() int {
	if f == FamilyPercussion {
		return PercussionRows
	}
	return MelodyRows
}

// Cell addresses one grid cell
type Cell struct {
	Row  int
	Step int
}

// Grid is a rows x 16 boolean matrix. Row 0 is the highest pitch or the
// first instrument. Out of range indices panic.
type Grid struct {
	cells [][NumSteps]bool
}

// NewGrid creates an empty grid with the given row count
func NewGrid(rows int) *Grid {
	return &Grid{cells: make([][NumSteps]bool, rows)}
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return len(g.cells)
}

// Active reports whether a cell is on
func (g *Grid) Active(row, step int) bool {
	return g.cells[row][step]
}

// Set turns a cell on or off
func (g *Grid) Set(row, step int, v bool) {
	g.cells[row][step] = v
}

// Toggle flips a cell and returns its new value
func (g *Grid) Toggle(row, step int) bool {
	g.cells[row][step] = !g.cells[row][step]
	return g.cells[row][step]
}

// SetRange paints every listed cell with v (drag painting)
func (g *Grid) SetRange(cells []Cell, v bool) {
	for _, c := range cells {
		g.cells[c.Row][c.Step] = v
	}
}

// Clear turns every cell off
func (g *Grid) Clear() {
	for r := range g.cells {
		g.cells[r] = [NumSteps]bool{}
	}
}

// Column returns the active rows at step in ascending row order
func (g *Grid) Column(step int) []int {
	var rows []int
	for r := range g.cells {
		if g.cells[r][step] {
			rows = append(rows, r)
		}
	}
	return rows
}

// Count returns the number of active cells at step
func (g *Grid) Count(step int) int {
	n := 0
	for r := range g.cells {
		if g.cells[r][step] {
			n++
		}
	}
	return n
}

// Empty reports whether no cell is on
func (g *Grid) Empty() bool {
	for r := range g.cells {
		for s := 0; s < NumSteps; s++ {
			if g.cells[r][s] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy
func (g *Grid) Clone() *Grid {
	c := &Grid{cells: make([][NumSteps]bool, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// Equal reports whether both grids have the same shape and cells
func (g *Grid) Equal(o *Grid) bool {
	if o == nil || len(g.cells) != len(o.cells) {
		return false
	}
	for r := range g.cells {
		if g.cells[r] != o.cells[r] {
			return false
		}
	}
	return true
}

// Masks packs each row into a 16-bit mask, bit n = step n
func (g *Grid) Masks() []uint16 {
	masks := make([]uint16, len(g.cells))
	for r := range g.cells {
		for s := 0; s < NumSteps; s++ {
			if g.cells[r][s] {
				masks[r] |= 1 << s
			}
		}
	}
	return masks
}

// GridFromMasks is the inverse of Masks
func GridFromMasks(masks []uint16) *Grid {
	g := NewGrid(len(masks))
	for r, m := range masks {
		for s := 0; s < NumSteps; s++ {
			g.cells[r][s] = m&(1<<s) != 0
		}
	}
	return g
}

// MarshalJSON encodes the grid as row masks to keep payloads compact
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Masks())
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var masks []uint16
	if err := json.Unmarshal(data, &masks); err != nil {
		return err
	}
	*g = *GridFromMasks(masks)
	return nil
}

// Curve is one automation lane: a normalized 0..1 value per step
type Curve struct {
	Enabled bool              `json:"enabled"`
	Values  [NumSteps]float64 `json:"values"`
}

// TrackMeta holds mix settings for a family or a single percussion row
type TrackMeta struct {
	Muted  bool    `json:"muted"`
	Volume float64 `json:"volume"`
	Offset float64 `json:"offset,omitempty"` // leading silence of the row's sample, seconds
}

// Gain returns the volume or zero when muted
func (m TrackMeta) Gain() float64 {
	if m.Muted {
		return 0
	}
	return m.Volume
}
