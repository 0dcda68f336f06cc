package sequencer

import (
	"fmt"
	"time"

	"go-stepgraph/debug"

	"github.com/google/uuid"
)

const (
	// BankCapacity is the number of snapshot slots per family
	BankCapacity = 6
	// DeleteWindow is how long a delete stays armed waiting for confirmation
	DeleteWindow = 3 * time.Second
)

// Snapshot is a saved copy of one family's edit state
type Snapshot struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Thumbnail string       `json:"thumbnail"`
	State     *FamilyState `json:"state"`
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.State = s.State.Clone()
	return &c
}

// BankState is the persisted form of one family's slots
type BankState struct {
	Snapshots []*Snapshot `json:"snapshots"`
	Active    string      `json:"active,omitempty"`
	Counter   int         `json:"counter"`
}

type familyBank struct {
	snapshots []*Snapshot
	active    string
	pending   string
	counter   int // last auto-name number handed out
}

func (fb *familyBank) find(id string) (int, *Snapshot) {
	for i, s := range fb.snapshots {
		if s.ID == id {
			return i, s
		}
	}
	return -1, nil
}

// Bank holds the pattern snapshots of both families
type Bank struct {
	store   *Store
	running func() bool
	now     func() time.Time

	fams  [numFamilies]*familyBank
	armed map[string]time.Time // snapshot id -> delete deadline

	observers []func(Family)
}

// NewBank creates an empty bank over store. running reports whether the
// transport is playing; switches are deferred while it is. now is the
// clock for delete confirmation; nil uses time.Now.
func NewBank(store *Store, running func() bool, now func() time.Time) *Bank {
	if now == nil {
		now = time.Now
	}
	if running == nil {
		running = func() bool { return false }
	}
	b := &Bank{
		store:   store,
		running: running,
		now:     now,
		armed:   make(map[string]time.Time),
	}
	for _, f := range Families {
		b.fams[f] = &familyBank{}
	}
	return b
}

// OnChange registers fn to run after any change to a family's slots,
// active or pending selection
func (b *Bank) OnChange(fn func(Family)) {
	b.observers = append(b.observers, fn)
}

func (b *Bank) changed(f Family) {
	for _, fn := range b.observers {
		fn(f)
	}
}

// List returns the snapshots of a family in slot order
func (b *Bank) List(f Family) []*Snapshot {
	return b.fams[f].snapshots
}

// Get looks up a snapshot of a family by id
func (b *Bank) Get(f Family, id string) (*Snapshot, bool) {
	_, s := b.fams[f].find(id)
	return s, s != nil
}

// Active returns the id of the active snapshot, or "" when the live state
// is unsaved
func (b *Bank) Active(f Family) string {
	return b.fams[f].active
}

// Pending returns the id queued for the next loop boundary, or ""
func (b *Bank) Pending(f Family) string {
	return b.fams[f].pending
}

// Full reports whether a family has no free slot
func (b *Bank) Full(f Family) bool {
	return len(b.fams[f].snapshots) >= BankCapacity
}

// Save writes the live state into the active snapshot, or into a new one
// when none is active. Returns the snapshot id; ok is false when the bank
// is full.
func (b *Bank) Save(f Family) (id string, ok bool) {
	fb := b.fams[f]
	if _, s := fb.find(fb.active); s != nil {
		s.State = b.store.Snapshot(f)
		s.Thumbnail = Thumbnail(s.State.Grid)
		debug.Log("bank", "save %s over %s (%s)", f, s.Name, s.ID)
		b.changed(f)
		return s.ID, true
	}
	return b.SaveAsNew(f)
}

// SaveAsNew always creates a new snapshot and makes it active. ok is false
// when the bank is full.
func (b *Bank) SaveAsNew(f Family) (id string, ok bool) {
	fb := b.fams[f]
	if len(fb.snapshots) >= BankCapacity {
		debug.Log("bank", "save %s refused: bank full", f)
		return "", false
	}
	fb.counter++
	st := b.store.Snapshot(f)
	s := &Snapshot{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Pattern %d", fb.counter),
		Thumbnail: Thumbnail(st.Grid),
		State:     st,
	}
	fb.snapshots = append(fb.snapshots, s)
	fb.active = s.ID
	if fb.pending == s.ID {
		fb.pending = ""
	}
	debug.Log("bank", "new %s snapshot %s (%s)", f, s.Name, s.ID)
	b.changed(f)
	return s.ID, true
}

// QueueSwitch activates a snapshot. While playing it is held as pending
// until the next loop boundary; while stopped it is restored at once.
// Unknown ids and the active id are ignored.
func (b *Bank) QueueSwitch(f Family, id string) {
	fb := b.fams[f]
	if id == fb.active {
		return
	}
	if _, s := fb.find(id); s == nil {
		return
	}
	if b.running() {
		fb.pending = id
		debug.Log("bank", "queue %s switch to %s", f, id)
		b.changed(f)
		return
	}
	fb.pending = id
	b.ApplyPending(f)
}

// CancelPending drops a queued switch
func (b *Bank) CancelPending(f Family) {
	fb := b.fams[f]
	if fb.pending == "" {
		return
	}
	fb.pending = ""
	b.changed(f)
}

// ApplyPending restores the pending snapshot into the live store and marks
// it active. Reports whether a switch happened.
func (b *Bank) ApplyPending(f Family) bool {
	fb := b.fams[f]
	if fb.pending == "" {
		return false
	}
	id := fb.pending
	fb.pending = ""
	_, s := fb.find(id)
	if s == nil {
		return false
	}
	b.store.Restore(f, s.State)
	fb.active = id
	debug.Log("bank", "switched %s to %s (%s)", f, s.Name, id)
	b.changed(f)
	return true
}

// Delete is two-phase: the first call arms the snapshot, a second call
// within DeleteWindow removes it. Reports whether it was removed.
func (b *Bank) Delete(id string) bool {
	f, fb, idx := b.locate(id)
	if fb == nil {
		return false
	}
	now := b.now()
	deadline, armed := b.armed[id]
	if !armed || now.After(deadline) {
		b.armed[id] = now.Add(DeleteWindow)
		b.changed(f)
		return false
	}
	delete(b.armed, id)
	fb.snapshots = append(fb.snapshots[:idx], fb.snapshots[idx+1:]...)
	if fb.active == id {
		fb.active = ""
	}
	if fb.pending == id {
		fb.pending = ""
	}
	debug.Log("bank", "deleted %s snapshot %s", f, id)
	b.changed(f)
	return true
}

// Armed reports whether a delete of id is waiting for confirmation
func (b *Bank) Armed(id string) bool {
	deadline, ok := b.armed[id]
	if !ok {
		return false
	}
	if b.now().After(deadline) {
		delete(b.armed, id)
		return false
	}
	return true
}

// Rename changes a snapshot's display name. Empty names are ignored.
func (b *Bank) Rename(id, name string) bool {
	f, fb, idx := b.locate(id)
	if fb == nil || name == "" {
		return false
	}
	fb.snapshots[idx].Name = name
	b.changed(f)
	return true
}

func (b *Bank) locate(id string) (Family, *familyBank, int) {
	for _, f := range Families {
		if i, _ := b.fams[f].find(id); i >= 0 {
			return f, b.fams[f], i
		}
	}
	return 0, nil, -1
}

// Export deep copies a family's slots for persistence
func (b *Bank) Export(f Family) BankState {
	fb := b.fams[f]
	st := BankState{Active: fb.active, Counter: fb.counter}
	for _, s := range fb.snapshots {
		st.Snapshots = append(st.Snapshots, s.clone())
	}
	return st
}

// Import replaces a family's slots. Pending and armed deletes are dropped.
func (b *Bank) Import(f Family, st BankState) {
	fb := &familyBank{counter: st.Counter}
	for _, s := range st.Snapshots {
		if len(fb.snapshots) == BankCapacity {
			break
		}
		c := s.clone()
		c.State.Mode = normalizeMode(f, c.State.Mode)
		c.Thumbnail = Thumbnail(c.State.Grid)
		fb.snapshots = append(fb.snapshots, c)
	}
	if _, s := fb.find(st.Active); s != nil {
		fb.active = st.Active
	}
	for id := range b.armed {
		if _, old, _ := b.locate(id); old == b.fams[f] {
			delete(b.armed, id)
		}
	}
	b.fams[f] = fb
	b.changed(f)
}

var thumbLevels = []rune(" ▁▂▃▄▅▆▇█")

// Thumbnail renders a grid as one bar per step, height by active rows
func Thumbnail(g *Grid) string {
	out := make([]rune, NumSteps)
	rows := g.Rows()
	top := len(thumbLevels) - 1
	for s := 0; s < NumSteps; s++ {
		n := len(g.Column(s))
		if n == 0 || rows == 0 {
			out[s] = thumbLevels[0]
			continue
		}
		lvl := (n*top + rows - 1) / rows
		out[s] = thumbLevels[min(max(lvl, 1), top)]
	}
	return string(out)
}
