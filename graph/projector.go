package graph

import (
	"go-stepgraph/debug"
	"go-stepgraph/sequencer"
)

// Store is the rendering side of the graph: a retained node/edge set with
// positions and highlight state
type Store interface {
	AddNode(id, label string, pos Point)
	RemoveNode(id string)
	AddEdge(id, source, target string, kind EdgeKind)
	RemoveEdge(id string)
	SetPosition(id string, pos Point)
	SetHighlight(id string, on bool)
	FitToViewport()
}

// IndicatorMove is one leg of the traversal indicator
type IndicatorMove struct {
	From, To       string
	FromPos, ToPos Point
	Duration       float64 // seconds
}

// Animator moves the traversal indicator
type Animator interface {
	Move(m IndicatorMove)
	Hide()
}

// Projector keeps a Store equal to the graph of the live sequence
type Projector struct {
	store Store
	anim  Animator
	geo   Geometry

	seq   sequencer.Sequence
	graph Graph
	pos   map[string]Point
	lit   map[string]bool
}

// NewProjector creates a projector over an empty store. anim may be nil.
func NewProjector(store Store, anim Animator, geo Geometry) *Projector {
	return &Projector{
		store: store,
		anim:  anim,
		geo:   geo,
		pos:   make(map[string]Point),
		lit:   make(map[string]bool),
	}
}

// Sequence returns the sequence last projected
func (p *Projector) Sequence() sequencer.Sequence {
	return p.seq
}

// Positions returns the laid out node positions
func (p *Projector) Positions() map[string]Point {
	return p.pos
}

// Rebuild brings the store in line with seq and returns the patch applied
func (p *Projector) Rebuild(seq sequencer.Sequence) Patch {
	next := Build(seq)
	patch := DiffGraphs(p.graph, next)
	wasEmpty := len(p.graph.Nodes) == 0

	for _, id := range patch.RemoveEdges {
		p.store.RemoveEdge(id)
	}
	for _, id := range patch.RemoveNodes {
		p.store.RemoveNode(id)
		delete(p.lit, id)
	}

	p.pos = Layout(seq, p.geo)
	for _, n := range patch.AddNodes {
		p.store.AddNode(n.ID, n.Label, p.pos[n.ID])
	}
	for _, e := range patch.AddEdges {
		p.store.AddEdge(e.ID, e.Source, e.Target, e.Kind)
	}
	// stacks above an edited chord shift outward, so reposition everything
	for _, n := range next.Nodes {
		p.store.SetPosition(n.ID, p.pos[n.ID])
	}

	p.seq = seq
	p.graph = next
	if wasEmpty && len(next.Nodes) > 0 {
		p.store.FitToViewport()
	}
	if !patch.Empty() {
		debug.Log("graph", "rebuild +%dn -%dn +%de -%de", len(patch.AddNodes), len(patch.RemoveNodes), len(patch.AddEdges), len(patch.RemoveEdges))
	}
	return patch
}

// Resize lays the graph out for a new viewport
func (p *Projector) Resize(geo Geometry) {
	p.geo = geo
	p.pos = Layout(p.seq, geo)
	for id, pt := range p.pos {
		p.store.SetPosition(id, pt)
	}
	p.store.FitToViewport()
}

// Highlight lights the nodes of the event at step and dims the rest
func (p *Projector) Highlight(step int) {
	on := make(map[string]bool)
	if ev, ok := p.seq.At(step); ok {
		for _, o := range ev.Occurrences {
			on[o.CellID] = true
		}
	}
	for id := range p.lit {
		if !on[id] {
			p.store.SetHighlight(id, false)
			delete(p.lit, id)
		}
	}
	for id := range on {
		if !p.lit[id] {
			p.store.SetHighlight(id, true)
			p.lit[id] = true
		}
	}
}

// OnStep follows the transport: highlight the sounding event and send the
// indicator toward the next anchor
func (p *Projector) OnStep(info sequencer.StepInfo) {
	p.Highlight(info.Step)
	if info.Event == nil || info.Next == nil || info.Next.AnchorID == info.Event.AnchorID {
		return
	}
	p.AdvanceIndicator(info.Event.AnchorID, info.Next.AnchorID, info.Distance, info.SecondsPerStep)
}

// AdvanceIndicator moves the indicator between two anchors. The duration
// is recomputed from the tempo on every call.
func (p *Projector) AdvanceIndicator(from, to string, distance int, secondsPerStep float64) IndicatorMove {
	m := IndicatorMove{
		From:     from,
		To:       to,
		FromPos:  p.pos[from],
		ToPos:    p.pos[to],
		Duration: float64(max(distance, 1)) * secondsPerStep,
	}
	if p.anim != nil {
		p.anim.Move(m)
	}
	return m
}

// Clear drops all transient highlight and indicator state
func (p *Projector) Clear() {
	for id := range p.lit {
		p.store.SetHighlight(id, false)
	}
	p.lit = make(map[string]bool)
	if p.anim != nil {
		p.anim.Hide()
	}
}
