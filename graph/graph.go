// Package graph projects a step sequence onto a node/edge store: one node
// per active cell, stack edges inside a chord and sequence edges between
// consecutive anchors.
package graph

import (
	"sort"

	"go-stepgraph/sequencer"
)

// EdgeKind distinguishes chord stacks from the rhythmic sequence
type EdgeKind int

const (
	EdgeStack EdgeKind = iota
	EdgeSequence
)

func (k EdgeKind) String() string {
	if k == EdgeSequence {
		return "sequence"
	}
	return "stack"
}

// Node is one cell occurrence
type Node struct {
	ID     string
	Label  string
	Step   int
	Anchor bool
}

// Edge connects two nodes. Weight is the step distance of a sequence edge.
type Edge struct {
	ID     string
	Source string
	Target string
	Kind   EdgeKind
	Weight int
}

// EdgeID names an edge by its kind and endpoints, so identical edges in
// two sequences compare equal
func EdgeID(kind EdgeKind, source, target string) string {
	if kind == EdgeSequence {
		return "seq:" + source + ">" + target
	}
	return "stack:" + source + ">" + target
}

// Graph is the full node/edge set derived from a sequence
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Build derives the graph of seq. Stack edges join consecutive occurrences
// top to anchor; sequence edges join consecutive anchors and wrap from the
// last event to the first. A single event has no sequence edge.
func Build(seq sequencer.Sequence) Graph {
	var g Graph
	for _, ev := range seq {
		for i, o := range ev.Occurrences {
			g.Nodes = append(g.Nodes, Node{
				ID:     o.CellID,
				Label:  o.Label,
				Step:   ev.Step,
				Anchor: o.CellID == ev.AnchorID,
			})
			if i > 0 {
				src := ev.Occurrences[i-1].CellID
				g.Edges = append(g.Edges, Edge{
					ID:     EdgeID(EdgeStack, src, o.CellID),
					Source: src,
					Target: o.CellID,
					Kind:   EdgeStack,
				})
			}
		}
	}
	if len(seq) < 2 {
		return g
	}
	for i, ev := range seq {
		next := seq[(i+1)%len(seq)]
		g.Edges = append(g.Edges, Edge{
			ID:     EdgeID(EdgeSequence, ev.AnchorID, next.AnchorID),
			Source: ev.AnchorID,
			Target: next.AnchorID,
			Kind:   EdgeSequence,
			Weight: seq.Distance(i),
		})
	}
	return g
}

// Patch is the change set turning one graph into another. Removals must be
// applied before additions.
type Patch struct {
	AddNodes    []Node
	RemoveNodes []string
	AddEdges    []Edge
	RemoveEdges []string
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return len(p.AddNodes) == 0 && len(p.RemoveNodes) == 0 &&
		len(p.AddEdges) == 0 && len(p.RemoveEdges) == 0
}

// Diff computes the patch from the graph of old to the graph of new. Nodes
// present in both are left alone. An edge whose weight changed is removed
// and re-added.
func Diff(old, new sequencer.Sequence) Patch {
	return DiffGraphs(Build(old), Build(new))
}

// DiffGraphs is Diff over already built graphs
func DiffGraphs(a, b Graph) Patch {
	var p Patch

	oldNodes := make(map[string]bool, len(a.Nodes))
	for _, n := range a.Nodes {
		oldNodes[n.ID] = true
	}
	newNodes := make(map[string]bool, len(b.Nodes))
	for _, n := range b.Nodes {
		newNodes[n.ID] = true
		if !oldNodes[n.ID] {
			p.AddNodes = append(p.AddNodes, n)
		}
	}
	for _, n := range a.Nodes {
		if !newNodes[n.ID] {
			p.RemoveNodes = append(p.RemoveNodes, n.ID)
		}
	}

	oldEdges := make(map[string]Edge, len(a.Edges))
	for _, e := range a.Edges {
		oldEdges[e.ID] = e
	}
	newEdges := make(map[string]Edge, len(b.Edges))
	for _, e := range b.Edges {
		newEdges[e.ID] = e
		if prev, ok := oldEdges[e.ID]; !ok || prev != e {
			p.AddEdges = append(p.AddEdges, e)
		}
	}
	for _, e := range a.Edges {
		if next, ok := newEdges[e.ID]; !ok || next != e {
			p.RemoveEdges = append(p.RemoveEdges, e.ID)
		}
	}

	sort.Strings(p.RemoveNodes)
	sort.Strings(p.RemoveEdges)
	return p
}
