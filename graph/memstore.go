package graph

import "sort"

// MemNode is a node held by MemStore
type MemNode struct {
	ID        string
	Label     string
	Pos       Point
	Highlight bool
}

// MemEdge is an edge held by MemStore
type MemEdge struct {
	ID     string
	Source string
	Target string
	Kind   EdgeKind
}

// MemStore is an in-memory Store. It also implements Animator so a single
// value can back the terminal view.
type MemStore struct {
	Nodes map[string]*MemNode
	Edges map[string]*MemEdge

	Fits      int
	Indicator *IndicatorMove
}

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		Nodes: make(map[string]*MemNode),
		Edges: make(map[string]*MemEdge),
	}
}

func (s *MemStore) AddNode(id, label string, pos Point) {
	s.Nodes[id] = &MemNode{ID: id, Label: label, Pos: pos}
}

func (s *MemStore) RemoveNode(id string) {
	delete(s.Nodes, id)
}

func (s *MemStore) AddEdge(id, source, target string, kind EdgeKind) {
	s.Edges[id] = &MemEdge{ID: id, Source: source, Target: target, Kind: kind}
}

func (s *MemStore) RemoveEdge(id string) {
	delete(s.Edges, id)
}

func (s *MemStore) SetPosition(id string, pos Point) {
	if n, ok := s.Nodes[id]; ok {
		n.Pos = pos
	}
}

func (s *MemStore) SetHighlight(id string, on bool) {
	if n, ok := s.Nodes[id]; ok {
		n.Highlight = on
	}
}

func (s *MemStore) FitToViewport() {
	s.Fits++
}

func (s *MemStore) Move(m IndicatorMove) {
	s.Indicator = &m
}

func (s *MemStore) Hide() {
	s.Indicator = nil
}

// NodeIDs returns the node ids in sorted order
func (s *MemStore) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EdgeIDs returns the edge ids in sorted order
func (s *MemStore) EdgeIDs() []string {
	ids := make([]string, 0, len(s.Edges))
	for id := range s.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Highlighted returns the ids of lit nodes in sorted order
func (s *MemStore) Highlighted() []string {
	var ids []string
	for id, n := range s.Nodes {
		if n.Highlight {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
