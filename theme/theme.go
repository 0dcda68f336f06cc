package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Grid states (no cursor)
	StepEmpty    rune // · inactive cell
	StepActive   rune // ● active cell
	StepPlayhead rune // ▶ playhead on empty cell
	StepHit      rune // ◆ playhead on active cell

	// Grid states (with cursor)
	CursorEmpty  rune // ○ cursor on empty
	CursorActive rune // ◉ cursor on active

	// Graph view
	Anchor    rune // ◎ anchor node
	Stacked   rune // ∘ stacked occurrence
	Lit       rune // ✱ highlighted node
	Indicator rune // ◇ traversal indicator target
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepPlayhead: '▶',
			StepHit:      '◆',

			CursorEmpty:  '○',
			CursorActive: '◉',

			Anchor:    '◎',
			Stacked:   '∘',
			Lit:       '✱',
			Indicator: '◇',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.25
	RoleFG      = 0.45
	RoleAccent  = 0.6
	RoleCursor  = 0.7
	RoleActive  = 0.75
	RoleWarning = 0.85
	RoleSuccess = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
