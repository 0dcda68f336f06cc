package graph

import (
	"math"

	"go-stepgraph/sequencer"
)

// Point is a position in viewport coordinates
type Point struct {
	X, Y float64
}

// Geometry describes the viewport the ring is laid out in
type Geometry struct {
	Width, Height float64
	RingRatio     float64 // ring radius as a fraction of the shorter side
	StackSpacing  float64 // distance between stacked occurrences
}

// DefaultGeometry is a square viewport
func DefaultGeometry() Geometry {
	return Geometry{Width: 600, Height: 600, RingRatio: 0.28, StackSpacing: 52}
}

// Center returns the middle of the viewport
func (g Geometry) Center() Point {
	return Point{g.Width / 2, g.Height / 2}
}

// Radius returns the anchor ring radius
func (g Geometry) Radius() float64 {
	return math.Min(g.Width, g.Height) * g.RingRatio
}

// Angle is the ray of a step: step 0 at 12 o'clock, clockwise
func Angle(step int) float64 {
	return -math.Pi/2 + float64(step)/sequencer.NumSteps*2*math.Pi
}

// Layout positions every occurrence of seq. Anchors sit on the ring at
// their step's angle; the k-th occurrence above the anchor sits k spacings
// further out on the same ray.
func Layout(seq sequencer.Sequence, geo Geometry) map[string]Point {
	pos := make(map[string]Point)
	c := geo.Center()
	r := geo.Radius()
	for _, ev := range seq {
		a := Angle(ev.Step)
		cos, sin := math.Cos(a), math.Sin(a)
		last := len(ev.Occurrences) - 1
		for i, o := range ev.Occurrences {
			d := r + float64(last-i)*geo.StackSpacing
			pos[o.CellID] = Point{c.X + d*cos, c.Y + d*sin}
		}
	}
	return pos
}
