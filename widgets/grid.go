package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-stepgraph/sequencer"
	"go-stepgraph/theme"
)

// GridView is what RenderGrid needs to draw one family's grid
type GridView struct {
	Grid     *sequencer.Grid
	Labels   []string
	Playhead int // step under the playhead, -1 when stopped
	Row      int // cursor row, -1 when the cursor is elsewhere
	Step     int // cursor step
	Muted    []bool
}

// RenderGrid draws one character per cell, one line per row
func RenderGrid(v GridView, th *theme.Theme) string {
	sym := th.Symbols
	cursor := lipgloss.NewStyle().Foreground(th.Cursor())
	hit := lipgloss.NewStyle().Foreground(th.Active())
	dim := lipgloss.NewStyle().Foreground(th.Muted())

	var out strings.Builder
	for r := 0; r < v.Grid.Rows(); r++ {
		label := ""
		if r < len(v.Labels) {
			label = v.Labels[r]
		}
		line := fmt.Sprintf("%-10s", label)
		if r < len(v.Muted) && v.Muted[r] {
			line = dim.Render(line)
		}
		out.WriteString(line)

		for s := 0; s < sequencer.NumSteps; s++ {
			if s > 0 && s%4 == 0 {
				out.WriteString(" ")
			}
			active := v.Grid.Active(r, s)
			isCursor := r == v.Row && s == v.Step

			switch {
			case isCursor && active:
				out.WriteString(cursor.Render(string(sym.CursorActive)))
			case isCursor:
				out.WriteString(cursor.Render(string(sym.CursorEmpty)))
			case s == v.Playhead && active:
				out.WriteString(hit.Render(string(sym.StepHit)))
			case s == v.Playhead:
				out.WriteString(dim.Render(string(sym.StepPlayhead)))
			case active:
				out.WriteString(string(sym.StepActive))
			default:
				out.WriteString(dim.Render(string(sym.StepEmpty)))
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}

// RenderCurve draws an automation lane as a bar per step
func RenderCurve(name string, c sequencer.Curve, cursorStep int, th *theme.Theme) string {
	bars := []rune(" ▁▂▃▄▅▆▇█")
	style := lipgloss.NewStyle().Foreground(th.Accent())
	if !c.Enabled {
		style = lipgloss.NewStyle().Foreground(th.Muted())
	}
	cursor := lipgloss.NewStyle().Foreground(th.Cursor())

	var out strings.Builder
	out.WriteString(fmt.Sprintf("%-10s", name))
	for s, v := range c.Values {
		if s > 0 && s%4 == 0 {
			out.WriteString(" ")
		}
		ch := string(bars[int(v*float64(len(bars)-1)+0.5)])
		if s == cursorStep {
			out.WriteString(cursor.Render(ch))
		} else {
			out.WriteString(style.Render(ch))
		}
	}
	return out.String()
}

// Slot is one pattern bank entry as shown in the slot strip
type Slot struct {
	Name      string
	Thumbnail string
	Active    bool
	Pending   bool
	Armed     bool
}

// RenderSlots draws the bank of one family, numbered from 1
func RenderSlots(slots []Slot, capacity int, th *theme.Theme) string {
	active := lipgloss.NewStyle().Foreground(th.Success())
	pending := lipgloss.NewStyle().Foreground(th.Accent()).Blink(true)
	armed := lipgloss.NewStyle().Foreground(th.Warning())
	dim := lipgloss.NewStyle().Foreground(th.Muted())

	var lines []string
	for i := 0; i < capacity; i++ {
		if i >= len(slots) {
			lines = append(lines, dim.Render(fmt.Sprintf("%d  (empty)", i+1)))
			continue
		}
		s := slots[i]
		line := fmt.Sprintf("%d  %-12s %s", i+1, s.Name, s.Thumbnail)
		switch {
		case s.Armed:
			lines = append(lines, armed.Render(line+"  press d again to delete"))
		case s.Active:
			lines = append(lines, active.Render(line+"  *"))
		case s.Pending:
			lines = append(lines, pending.Render(line+"  queued"))
		default:
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
