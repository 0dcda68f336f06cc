package sequencer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

const timestampLayout = "2006-01-02_15-04-05"

// ProjectStore keeps projects as folders of timestamped payload files
type ProjectStore struct {
	Dir string
	now func() time.Time
}

// NewProjectStore creates a store rooted at dir
func NewProjectStore(dir string) *ProjectStore {
	return &ProjectStore{Dir: dir, now: time.Now}
}

// DefaultProjectStore returns the store in ~/.config/go-stepgraph/projects
func DefaultProjectStore() (*ProjectStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("locate home directory"))
	}
	return NewProjectStore(filepath.Join(home, ".config", "go-stepgraph", "projects")), nil
}

// ProjectDir returns the path to a specific project
func (ps *ProjectStore) ProjectDir(projectName string) string {
	return filepath.Join(ps.Dir, sanitizeFilename(projectName))
}

// ListProjects returns all project folder names
func (ps *ProjectStore) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(ps.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list projects"))
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (ps *ProjectStore) ListSaves(projectName string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(ps.ProjectDir(projectName))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list saves"))
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		if saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Filename > saves[j].Filename
		}
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})

	return saves, nil
}

// parseSaveName reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, ".json") {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(timestampLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	name := ""
	if len(base) > len(timestampLayout)+1 && base[len(timestampLayout)] == '_' {
		name = base[len(timestampLayout)+1:]
	}
	return SaveInfo{Filename: filename, Name: name, Timestamp: ts}, true
}

// Save writes a payload to a new timestamped file in the project. Returns
// the filename.
func (ps *ProjectStore) Save(projectName string, p *Payload) (string, error) {
	if projectName == "" {
		projectName = "untitled"
	}
	dir := ps.ProjectDir(projectName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fault.Wrap(err, fmsg.With("create project directory"))
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("encode project"))
	}

	filename := ps.now().Format(timestampLayout) + ".json"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fault.Wrap(err, fmsg.With("write project"))
	}
	return filename, nil
}

// Load reads a specific save, or the most recent if filename is empty
func (ps *ProjectStore) Load(projectName, filename string) (*Payload, error) {
	if filename == "" {
		saves, err := ps.ListSaves(projectName)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fault.New("no saves found in project "+projectName, ftag.With(ftag.NotFound))
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(ps.ProjectDir(projectName), filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err, ftag.With(ftag.NotFound), fmsg.With("save "+filename+" not found"))
		}
		return nil, fault.Wrap(err, fmsg.With("read project"))
	}
	return DecodeJSON(data)
}

// DeleteSave deletes a specific save file
func (ps *ProjectStore) DeleteSave(projectName, filename string) error {
	err := os.Remove(filepath.Join(ps.ProjectDir(projectName), filename))
	return fault.Wrap(err, fmsg.With("delete save"))
}

// RenameSave changes the name part of a save file, keeping its timestamp
func (ps *ProjectStore) RenameSave(projectName, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fault.New("invalid save filename "+oldFilename, ftag.With(ftag.InvalidArgument))
	}
	ts := info.Timestamp.Format(timestampLayout)

	newFilename := ts + ".json"
	if newName != "" {
		newFilename = ts + "_" + sanitizeFilename(newName) + ".json"
	}

	dir := ps.ProjectDir(projectName)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", fault.Wrap(err, fmsg.With("rename save"))
	}
	return newFilename, nil
}

// DeleteProject deletes an entire project folder
func (ps *ProjectStore) DeleteProject(name string) error {
	return fault.Wrap(os.RemoveAll(ps.ProjectDir(name)), fmsg.With("delete project"))
}

// RenameProject renames a project folder
func (ps *ProjectStore) RenameProject(oldName, newName string) error {
	err := os.Rename(ps.ProjectDir(oldName), ps.ProjectDir(newName))
	return fault.Wrap(err, fmsg.With("rename project"))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	r := strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return r.Replace(name)
}
