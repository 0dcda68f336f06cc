package sequencer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjects(t *testing.T) (*ProjectStore, *fakeNow) {
	t.Helper()
	ps := NewProjectStore(t.TempDir())
	clock := &fakeNow{t: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)}
	ps.now = clock.now
	return ps, clock
}

func TestProjectSaveAndLoadLatest(t *testing.T) {
	ps, clock := newTestProjects(t)
	s, _, _ := newTestSession(t, Options{})

	first, err := ps.Save("My Song", s.Export())
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04_10-30-00.json", first)

	clock.t = clock.t.Add(time.Minute)
	s.Store.Toggle(FamilyMelody, 6, 6)
	s.Transport.SetTempo(96)
	second, err := ps.Save("My Song", s.Export())
	require.NoError(t, err)

	saves, err := ps.ListSaves("My Song")
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, second, saves[0].Filename, "newest first")

	p, err := ps.Load("My Song", "")
	require.NoError(t, err)
	assert.Equal(t, 96, p.Tempo)
	assert.True(t, p.Melody.Grid.Active(6, 6))

	p, err = ps.Load("My Song", first)
	require.NoError(t, err)
	assert.Equal(t, DefaultTempo, p.Tempo)

	projects, err := ps.ListProjects()
	require.NoError(t, err)
	assert.Equal(t, []string{"My-Song"}, projects)
}

func TestProjectLoadMissing(t *testing.T) {
	ps, _ := newTestProjects(t)

	_, err := ps.Load("empty", "")
	require.Error(t, err)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))

	_, err = ps.Load("empty", "2026-01-01_00-00-00.json")
	require.Error(t, err)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))
}

func TestProjectLoadRejectsCorruptFile(t *testing.T) {
	ps, _ := newTestProjects(t)
	dir := ps.ProjectDir("broken")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-01-01_00-00-00.json"), []byte(`{"v":1,"tempo":5}`), 0644))

	_, err := ps.Load("broken", "")
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}

func TestProjectRenameAndDelete(t *testing.T) {
	ps, _ := newTestProjects(t)
	s, _, _ := newTestSession(t, Options{})
	name, err := ps.Save("demo", s.Export())
	require.NoError(t, err)

	renamed, err := ps.RenameSave("demo", name, "take two")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04_10-30-00_take-two.json", renamed)

	saves, err := ps.ListSaves("demo")
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "take-two", saves[0].Name)

	_, err = ps.RenameSave("demo", "notes.txt", "x")
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))

	require.NoError(t, ps.RenameProject("demo", "final"))
	saves, err = ps.ListSaves("final")
	require.NoError(t, err)
	assert.Len(t, saves, 1)

	require.NoError(t, ps.DeleteSave("final", renamed))
	saves, _ = ps.ListSaves("final")
	assert.Empty(t, saves)

	require.NoError(t, ps.DeleteProject("final"))
	projects, _ := ps.ListProjects()
	assert.Empty(t, projects)
}

func TestParseSaveName(t *testing.T) {
	info, ok := parseSaveName("2024-01-15_14-30-00_chorus.json")
	require.True(t, ok)
	assert.Equal(t, "chorus", info.Name)
	assert.Equal(t, 14, info.Timestamp.Hour())

	_, ok = parseSaveName("readme.json")
	assert.False(t, ok)
	_, ok = parseSaveName("2024-01-15_14-30-00.yaml")
	assert.False(t, ok)
}
