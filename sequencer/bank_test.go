package sequencer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNow struct {
	t time.Time
}

func (f *fakeNow) now() time.Time {
	return f.t
}

func newTestBank() (*Bank, *Store, *fakeNow) {
	store := NewStore()
	clock := &fakeNow{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewBank(store, nil, clock.now), store, clock
}

func TestBankCapacity(t *testing.T) {
	b, _, _ := newTestBank()
	for i := 1; i <= BankCapacity; i++ {
		id, ok := b.SaveAsNew(FamilyMelody)
		require.True(t, ok)
		s, found := b.Get(FamilyMelody, id)
		require.True(t, found)
		assert.Equal(t, fmt.Sprintf("Pattern %d", i), s.Name)
	}
	assert.True(t, b.Full(FamilyMelody))

	_, ok := b.SaveAsNew(FamilyMelody)
	assert.False(t, ok)
	assert.Len(t, b.List(FamilyMelody), BankCapacity)
	assert.False(t, b.Full(FamilyPercussion), "families have separate banks")
}

func TestBankSaveOverwritesActive(t *testing.T) {
	b, store, _ := newTestBank()
	id, _ := b.Save(FamilyMelody)
	store.Toggle(FamilyMelody, 3, 3)

	again, ok := b.Save(FamilyMelody)
	require.True(t, ok)
	assert.Equal(t, id, again)
	require.Len(t, b.List(FamilyMelody), 1)

	s, _ := b.Get(FamilyMelody, id)
	assert.True(t, s.State.Grid.Active(3, 3))

	store.Toggle(FamilyMelody, 3, 3)
	assert.True(t, s.State.Grid.Active(3, 3), "snapshot is a copy")
}

func TestBankSwitchWhileStopped(t *testing.T) {
	b, store, _ := newTestBank()
	store.Toggle(FamilyPercussion, 0, 0)
	idA, _ := b.SaveAsNew(FamilyPercussion)
	store.Clear(FamilyPercussion)
	idB, _ := b.SaveAsNew(FamilyPercussion)

	changes := 0
	b.OnChange(func(Family) { changes++ })

	b.QueueSwitch(FamilyPercussion, idB)
	b.QueueSwitch(FamilyPercussion, "nope")
	assert.Equal(t, 0, changes, "active and unknown ids are ignored")

	b.QueueSwitch(FamilyPercussion, idA)
	assert.Equal(t, idA, b.Active(FamilyPercussion))
	assert.Empty(t, b.Pending(FamilyPercussion))
	assert.True(t, store.Grid(FamilyPercussion).Active(0, 0))
}

func TestBankSwitchWhileRunningIsDeferred(t *testing.T) {
	store := NewStore()
	running := true
	b := NewBank(store, func() bool { return running }, nil)

	store.Toggle(FamilyMelody, 1, 1)
	idA, _ := b.SaveAsNew(FamilyMelody)
	store.Clear(FamilyMelody)
	b.SaveAsNew(FamilyMelody)

	b.QueueSwitch(FamilyMelody, idA)
	assert.Equal(t, idA, b.Pending(FamilyMelody))
	assert.False(t, store.Grid(FamilyMelody).Active(1, 1))

	b.CancelPending(FamilyMelody)
	assert.False(t, b.ApplyPending(FamilyMelody))

	b.QueueSwitch(FamilyMelody, idA)
	assert.True(t, b.ApplyPending(FamilyMelody))
	assert.True(t, store.Grid(FamilyMelody).Active(1, 1))
}

func TestBankDeleteNeedsConfirmation(t *testing.T) {
	b, _, clock := newTestBank()
	id, _ := b.SaveAsNew(FamilyMelody)

	assert.False(t, b.Delete(id))
	assert.True(t, b.Armed(id))

	clock.t = clock.t.Add(DeleteWindow + time.Second)
	assert.False(t, b.Armed(id), "confirmation expired")
	assert.False(t, b.Delete(id), "re-armed")

	clock.t = clock.t.Add(time.Second)
	assert.True(t, b.Delete(id))
	assert.Empty(t, b.List(FamilyMelody))
	assert.Empty(t, b.Active(FamilyMelody))
	assert.False(t, b.Delete("missing"))
}

func TestBankRename(t *testing.T) {
	b, _, _ := newTestBank()
	id, _ := b.SaveAsNew(FamilyMelody)
	assert.True(t, b.Rename(id, "Verse"))
	assert.False(t, b.Rename(id, ""))
	s, _ := b.Get(FamilyMelody, id)
	assert.Equal(t, "Verse", s.Name)
}

func TestBankExportImport(t *testing.T) {
	b, store, _ := newTestBank()
	store.Toggle(FamilyMelody, 4, 4)
	b.SaveAsNew(FamilyMelody)
	id2, _ := b.SaveAsNew(FamilyMelody)

	exported := b.Export(FamilyMelody)
	assert.Equal(t, 2, exported.Counter)
	assert.Equal(t, id2, exported.Active)

	other, _, _ := newTestBank()
	other.Import(FamilyMelody, exported)
	require.Len(t, other.List(FamilyMelody), 2)
	assert.Equal(t, id2, other.Active(FamilyMelody))
	assert.True(t, other.List(FamilyMelody)[0].State.Grid.Active(4, 4))

	id3, _ := other.SaveAsNew(FamilyMelody)
	s, _ := other.Get(FamilyMelody, id3)
	assert.Equal(t, "Pattern 3", s.Name, "numbering continues after import")
}
