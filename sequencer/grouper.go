package sequencer

import "fmt"

// Occurrence is one active cell inside an Event
type Occurrence struct {
	Row    int
	Label  string
	CellID string
}

// Event is the set of active cells at one step. Occurrences are in row
// order; the last one is the anchor.
type Event struct {
	Step        int
	Occurrences []Occurrence
	AnchorID    string
}

// Anchor returns the anchor occurrence
func (e Event) Anchor() Occurrence {
	return e.Occurrences[len(e.Occurrences)-1]
}

// Rows returns the active rows of the event
func (e Event) Rows() []int {
	rows := make([]int, len(e.Occurrences))
	for i, o := range e.Occurrences {
		rows[i] = o.Row
	}
	return rows
}

// Sequence is the ordered list of events, ascending by step
type Sequence []Event

// CellID builds the node identity for one occurrence. It includes the step
// so the same row at two steps never collapses into one node.
func CellID(label string, step int) string {
	return fmt.Sprintf("%s@%d", label, step)
}

// Group collects the active cells of g into events. label names a row; nil
// falls back to "r<row>".
func Group(g *Grid, label func(row int) string) Sequence {
	if label == nil {
		label = func(row int) string { return fmt.Sprintf("r%d", row) }
	}
	var seq Sequence
	for step := 0; step < NumSteps; step++ {
		rows := g.Column(step)
		if len(rows) == 0 {
			continue
		}
		ev := Event{Step: step, Occurrences: make([]Occurrence, len(rows))}
		for i, r := range rows {
			l := label(r)
			ev.Occurrences[i] = Occurrence{Row: r, Label: l, CellID: CellID(l, step)}
		}
		ev.AnchorID = ev.Occurrences[len(rows)-1].CellID
		seq = append(seq, ev)
	}
	return seq
}

// Index returns the position of the event at step, or -1
func (s Sequence) Index(step int) int {
	for i, ev := range s {
		if ev.Step == step {
			return i
		}
		if ev.Step > step {
			break
		}
	}
	return -1
}

// At returns the event at step
func (s Sequence) At(step int) (Event, bool) {
	if i := s.Index(step); i >= 0 {
		return s[i], true
	}
	return Event{}, false
}

// Distance returns the forward step distance from event i to the next
// event, wrapping at the end of the bar. Never less than 1.
func (s Sequence) Distance(i int) int {
	n := len(s)
	next := s[(i+1)%n]
	var d int
	if i < n-1 {
		d = next.Step - s[i].Step
	} else {
		d = NumSteps - s[i].Step + next.Step
	}
	return max(d, 1)
}

// CellIDs returns every occurrence identity in the sequence
func (s Sequence) CellIDs() []string {
	var ids []string
	for _, ev := range s {
		for _, o := range ev.Occurrences {
			ids = append(ids, o.CellID)
		}
	}
	return ids
}
