package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-stepgraph/graph"
	"go-stepgraph/theme"
)

// RenderGraph rasterizes the projected graph into a cols x rows character
// canvas. Terminal cells are about twice as tall as wide, so x is stretched.
func RenderGraph(store *graph.MemStore, geo graph.Geometry, cols, rows int, th *theme.Theme) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	sym := th.Symbols
	canvas := make([][]rune, rows)
	for r := range canvas {
		canvas[r] = []rune(strings.Repeat(" ", cols))
	}
	place := func(p graph.Point) (int, int, bool) {
		x := int(p.X / geo.Width * float64(cols))
		y := int(p.Y / geo.Height * float64(rows))
		return x, y, x >= 0 && x < cols && y >= 0 && y < rows
	}

	// sequence edges first so nodes draw on top
	for _, id := range store.EdgeIDs() {
		e := store.Edges[id]
		if e.Kind != graph.EdgeSequence {
			continue
		}
		a, okA := store.Nodes[e.Source]
		b, okB := store.Nodes[e.Target]
		if !okA || !okB {
			continue
		}
		const dots = 12
		for i := 1; i < dots; i++ {
			t := float64(i) / dots
			p := graph.Point{X: a.Pos.X + (b.Pos.X-a.Pos.X)*t, Y: a.Pos.Y + (b.Pos.Y-a.Pos.Y)*t}
			if x, y, ok := place(p); ok && canvas[y][x] == ' ' {
				canvas[y][x] = '.'
			}
		}
	}

	// stack edges run from the top of a chord down to its anchor
	stacked := make(map[string]bool)
	for _, id := range store.EdgeIDs() {
		if e := store.Edges[id]; e.Kind == graph.EdgeStack {
			stacked[e.Source] = true
		}
	}

	lit := make(map[[2]int]bool)
	for _, id := range store.NodeIDs() {
		n := store.Nodes[id]
		x, y, ok := place(n.Pos)
		if !ok {
			continue
		}
		switch {
		case n.Highlight:
			canvas[y][x] = sym.Lit
			lit[[2]int{x, y}] = true
		case stacked[id]:
			canvas[y][x] = sym.Stacked
		default:
			canvas[y][x] = sym.Anchor
		}
	}
	if ind := store.Indicator; ind != nil {
		if x, y, ok := place(ind.ToPos); ok && !lit[[2]int{x, y}] {
			canvas[y][x] = sym.Indicator
		}
	}

	hi := lipgloss.NewStyle().Foreground(th.Active())
	var out strings.Builder
	for y, line := range canvas {
		for x, ch := range line {
			if lit[[2]int{x, y}] {
				out.WriteString(hi.Render(string(ch)))
			} else {
				out.WriteRune(ch)
			}
		}
		if y < rows-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}
