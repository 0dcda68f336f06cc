package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-stepgraph/debug"
	"go-stepgraph/graph"
	"go-stepgraph/midi"
	"go-stepgraph/sequencer"
	"go-stepgraph/theme"
	"go-stepgraph/widgets"
)

// Focus is the section the cursor edits
type Focus int

const (
	FocusMelody Focus = iota
	FocusPercussion
	FocusCurves
	numFocus
)

// Options wires the model to the rest of the program
type Options struct {
	Session  *sequencer.Session
	Projects *sequencer.ProjectStore
	Project  string
	Theme    *theme.Theme
	Engine   *midi.Engine      // may be nil
	Watcher  *midi.PortWatcher // may be nil
	Keyboard *midi.Keyboard    // may be nil
}

// live is the state written from the clock timeline. Guarded by Session.Do.
type live struct {
	step, percStep int
	playing        bool
}

// cursor is the edit position, shared between copies of Model
type cursor struct {
	focus Focus
	row   int
	step  int
	param sequencer.ParamID
}

type Model struct {
	Session   *sequencer.Session
	Projects  *sequencer.ProjectStore
	Project   string
	Theme     *theme.Theme
	Graph     *graph.MemStore
	Projector *graph.Projector
	Geometry  graph.Geometry

	engine   *midi.Engine
	watcher  *midi.PortWatcher
	keyboard *midi.Keyboard

	// UpdateChan is poked from the clock whenever the view is stale
	UpdateChan chan struct{}

	live     *live
	cur      *cursor
	status   *string
	quitting bool
	width    int
	height   int
}

type UpdateMsg struct{}

type PortEventMsg midi.PortEvent

type NoteMsg midi.NoteEvent

// NewModel builds the model and subscribes it to the session
func NewModel(opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = theme.New(nil)
	}
	store := graph.NewMemStore()
	geo := graph.DefaultGeometry()
	status := ""
	m := Model{
		Session:    opts.Session,
		Projects:   opts.Projects,
		Project:    opts.Project,
		Theme:      opts.Theme,
		Graph:      store,
		Projector:  graph.NewProjector(store, store, geo),
		Geometry:   geo,
		engine:     opts.Engine,
		watcher:    opts.Watcher,
		keyboard:   opts.Keyboard,
		UpdateChan: make(chan struct{}, 1),
		live:       &live{step: -1, percStep: -1},
		cur:        &cursor{},
		status:     &status,
	}

	s := m.Session
	s.Do(func() {
		s.Store.OnChange(func(f sequencer.Family) {
			if f == sequencer.FamilyMelody {
				m.Projector.Rebuild(s.Store.Sequence(sequencer.FamilyMelody))
			}
			m.notify()
		})
		s.Bank.OnChange(func(sequencer.Family) { m.notify() })
		s.Transport.OnStep(func(info sequencer.StepInfo) {
			m.live.step = info.Step
			m.live.percStep = info.PercStep
			m.live.playing = true
			m.Projector.OnStep(info)
			m.notify()
		})
		s.Transport.OnStop(func() {
			m.live.step, m.live.percStep = -1, -1
			m.live.playing = false
			m.Projector.Clear()
			if m.engine != nil {
				m.engine.Panic()
			}
			m.notify()
		})
		m.Projector.Rebuild(s.Store.Sequence(sequencer.FamilyMelody))
	})
	return m
}

func (m Model) notify() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

func ListenForUpdates(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return UpdateMsg{}
	}
}

func ListenForPorts(w *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-w.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(ev)
	}
}

func ListenForNotes(kb *midi.Keyboard) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-kb.NoteEvents()
		if !ok {
			return nil
		}
		return NoteMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.UpdateChan)}
	if m.watcher != nil {
		cmds = append(cmds, ListenForPorts(m.watcher))
	}
	if m.keyboard != nil {
		cmds = append(cmds, ListenForNotes(m.keyboard))
	}
	return tea.Batch(cmds...)
}

func (m Model) setStatus(format string, args ...any) {
	*m.status = fmt.Sprintf(format, args...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "ctrl+c" {
			m.quitting = true
			m.Session.Do(m.Session.Transport.Stop)
			return m, tea.Quit
		}
		m.Session.Do(func() { m.handleKey(key) })

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case UpdateMsg:
		return m, ListenForUpdates(m.UpdateChan)

	case PortEventMsg:
		ev := midi.PortEvent(msg)
		if m.engine != nil {
			if ev.Type == midi.PortConnected {
				m.engine.SetOutput(ev.Name, ev.Send)
				m.Session.Do(func() { m.engine.SetVoice(m.Session.Store.Voice()) })
				m.setStatus("connected %s", ev.Name)
			} else {
				m.engine.SetOutput("", nil)
				m.setStatus("disconnected %s", ev.Name)
			}
		}
		return m, ListenForPorts(m.watcher)

	case NoteMsg:
		m.Session.Do(func() { m.stepInput(sequencer.Note(msg.Note)) })
		return m, ListenForNotes(m.keyboard)
	}

	return m, nil
}

func (m Model) family() sequencer.Family {
	if m.cur.focus == FocusPercussion {
		return sequencer.FamilyPercussion
	}
	return sequencer.FamilyMelody
}

func (m Model) rows() int {
	switch m.cur.focus {
	case FocusPercussion:
		return sequencer.PercussionRows
	case FocusCurves:
		return int(sequencer.NumParams)
	}
	return sequencer.MelodyRows
}

// handleKey runs on the session timeline
func (m Model) handleKey(key string) {
	s := m.Session
	c := m.cur
	f := m.family()

	switch key {
	case "tab":
		c.focus = (c.focus + 1) % numFocus
		c.row = min(c.row, m.rows()-1)
	case "h", "left":
		c.step = (c.step + sequencer.NumSteps - 1) % sequencer.NumSteps
	case "l", "right":
		c.step = (c.step + 1) % sequencer.NumSteps
	case "k", "up":
		if c.focus == FocusCurves {
			m.nudgeCurve(0.05)
		} else {
			c.row = max(c.row-1, 0)
		}
	case "j", "down":
		if c.focus == FocusCurves {
			m.nudgeCurve(-0.05)
		} else {
			c.row = min(c.row+1, m.rows()-1)
		}
	case "[":
		c.param = (c.param + sequencer.NumParams - 1) % sequencer.NumParams
	case "]":
		c.param = (c.param + 1) % sequencer.NumParams
	case "a":
		cv := s.Store.Curve(c.param)
		s.Store.EnableCurve(c.param, !cv.Enabled)
	case " ":
		if c.focus != FocusCurves {
			s.Store.Toggle(f, c.row, c.step)
		}
	case "c":
		if c.focus != FocusCurves {
			s.Store.Clear(f)
		}
	case "p", "enter":
		if s.Transport.Running() {
			s.Transport.Stop()
		} else {
			s.Transport.Play()
		}
	case "m":
		modes := sequencer.ModesFor(f)
		cur := s.Store.Mode(f)
		next := modes[0]
		for i, md := range modes {
			if md == cur {
				next = modes[(i+1)%len(modes)]
			}
		}
		s.Transport.SetMode(f, next)
	case "M":
		t := s.Store.Track(f)
		t.Muted = !t.Muted
		s.Store.SetTrack(f, t)
	case "+", "=":
		s.Transport.SetTempo(s.Transport.Tempo() + 5)
	case "-", "_":
		s.Transport.SetTempo(s.Transport.Tempo() - 5)
	case ",", ".":
		st := s.Store.State(sequencer.FamilyMelody)
		d := 1
		if key == "," {
			d = -1
		}
		s.Store.SetKey(st.Key+d, st.Octave)
	case "<", ">":
		st := s.Store.State(sequencer.FamilyMelody)
		d := 1
		if key == "<" {
			d = -1
		}
		s.Store.SetKey(st.Key, st.Octave+d)
	case "K":
		names := sequencer.KitNames()
		cur := s.Store.State(sequencer.FamilyPercussion).Kit
		for i, n := range names {
			if n == cur {
				s.SetKit(names[(i+1)%len(names)])
				break
			}
		}
	case "W":
		v := s.Store.Voice()
		for i, w := range sequencer.Waveforms {
			if w == v.Waveform {
				s.Store.SetWaveform(sequencer.Waveforms[(i+1)%len(sequencer.Waveforms)])
				break
			}
		}
	case "s":
		if _, ok := s.Bank.Save(f); !ok {
			m.setStatus("bank full")
		}
	case "S":
		if _, ok := s.Bank.SaveAsNew(f); !ok {
			m.setStatus("bank full")
		}
	case "1", "2", "3", "4", "5", "6":
		idx := int(key[0] - '1')
		if list := s.Bank.List(f); idx < len(list) {
			s.Bank.QueueSwitch(f, list[idx].ID)
		}
	case "d":
		if id := s.Bank.Active(f); id != "" {
			if s.Bank.Delete(id) {
				m.setStatus("deleted")
			} else {
				m.setStatus("press d again to delete")
			}
		}
	case "w":
		m.saveProject()
	case "o":
		m.loadProject()
	case "e":
		m.exportMIDI()
	}
}

func (m Model) nudgeCurve(d float64) {
	s := m.Session
	cv := s.Store.Curve(m.cur.param)
	s.Store.SetCurveValue(m.cur.param, m.cur.step, cv.Values[m.cur.step]+d)
}

// stepInput toggles the played pitch at the cursor step and moves on
func (m Model) stepInput(n sequencer.Note) {
	pitches := m.Session.Store.Pitches()
	for row, p := range pitches {
		if p == n {
			m.Session.Store.Toggle(sequencer.FamilyMelody, row, m.cur.step)
			m.cur.step = (m.cur.step + 1) % sequencer.NumSteps
			return
		}
	}
	m.setStatus("%s is outside the grid", n)
}

func (m Model) saveProject() {
	if m.Projects == nil {
		return
	}
	name, err := m.Projects.Save(m.Project, m.Session.Export())
	if err != nil {
		m.setStatus("save failed: %v", err)
		return
	}
	m.setStatus("saved %s/%s", m.Project, name)
}

func (m Model) loadProject() {
	if m.Projects == nil {
		return
	}
	p, err := m.Projects.Load(m.Project, "")
	if err == nil {
		err = m.Session.Import(p)
	}
	if err != nil {
		m.setStatus("load failed: %v", err)
		return
	}
	m.setStatus("loaded %s", m.Project)
}

func (m Model) exportMIDI() {
	path := sanitize(m.Project) + ".mid"
	f, err := os.Create(path)
	if err != nil {
		m.setStatus("export failed: %v", err)
		return
	}
	defer f.Close()
	if err := sequencer.ExportSMF(m.Session.Export(), f, sequencer.ExportOptions{Passes: 2}); err != nil {
		m.setStatus("export failed: %v", err)
		return
	}
	debug.Log("tui", "exported %s", path)
	m.setStatus("exported %s", path)
}

func sanitize(name string) string {
	if name == "" {
		return "untitled"
	}
	return strings.NewReplacer("/", "-", "\\", "-", " ", "-").Replace(name)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var out string
	m.Session.Do(func() { out = m.render() })
	return out
}

func (m Model) render() string {
	s := m.Session
	th := m.Theme
	c := m.cur

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	playState := "STOP"
	if s.Transport.Running() {
		playState = "PLAY"
	}
	port := ""
	if m.engine != nil {
		if p := m.engine.Port(); p != "" {
			port = "  out:" + p
		} else {
			port = "  out:-"
		}
	}
	mel := s.Store.State(sequencer.FamilyMelody)
	header := headerStyle.Render(fmt.Sprintf("go-stepgraph  %s  %3dbpm  key:%s%d  kit:%s  wave:%s%s",
		playState, s.Transport.Tempo(), sequencer.KeyName(mel.Key), mel.Octave,
		s.Store.State(sequencer.FamilyPercussion).Kit, s.Store.Voice().Waveform, port))

	var left strings.Builder
	for _, f := range sequencer.Families {
		title := strings.ToUpper(f.String())
		mode := s.Store.Mode(f).String()
		if pm, ok := s.Transport.PendingMode(f); ok && s.Transport.Running() {
			mode += " -> " + pm.String()
		}
		if s.Store.Track(f).Muted {
			title += " (muted)"
		}
		left.WriteString(headerStyle.Render(fmt.Sprintf("%s  [%s]", title, mode)))
		left.WriteString("\n")

		labels := make([]string, f.Rows())
		muted := make([]bool, f.Rows())
		for r := range labels {
			labels[r] = s.Store.Label(f, r)
			muted[r] = s.Store.Row(f, r).Muted
		}
		playhead := m.live.step
		if f == sequencer.FamilyPercussion {
			playhead = m.live.percStep
		}
		row := -1
		if m.family() == f && c.focus != FocusCurves {
			row = c.row
		}
		left.WriteString(widgets.RenderGrid(widgets.GridView{
			Grid:     s.Store.Grid(f),
			Labels:   labels,
			Playhead: playhead,
			Row:      row,
			Step:     c.step,
			Muted:    muted,
		}, th))
		left.WriteString("\n")
	}

	desc := sequencer.Params[c.param]
	cv := s.Store.Curve(c.param)
	cursorStep := -1
	if c.focus == FocusCurves {
		cursorStep = c.step
	}
	left.WriteString(widgets.RenderCurve(desc.Name, cv, cursorStep, th))
	left.WriteString(dimStyle.Render(fmt.Sprintf("  %s", desc.Format(cv.Values[c.step]))))
	left.WriteString("\n\n")

	f := m.family()
	var slots []widgets.Slot
	for _, snap := range s.Bank.List(f) {
		slots = append(slots, widgets.Slot{
			Name:      snap.Name,
			Thumbnail: snap.Thumbnail,
			Active:    snap.ID == s.Bank.Active(f),
			Pending:   snap.ID == s.Bank.Pending(f),
			Armed:     s.Bank.Armed(snap.ID),
		})
	}
	left.WriteString(headerStyle.Render(strings.ToUpper(f.String()) + " PATTERNS"))
	left.WriteString("\n")
	left.WriteString(widgets.RenderSlots(slots, sequencer.BankCapacity, th))

	graphCols, graphRows := 48, 22
	if m.width > 0 {
		graphCols = max(m.width-lipgloss.Width(left.String())-4, 16)
	}
	right := widgets.RenderGraph(m.Graph, m.Geometry, graphCols, graphRows, th)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left.String(), "  ", right)

	help := dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{{Keys: []widgets.KeyBinding{
		{Key: "hjkl space", Desc: "move / toggle    tab: section   c: clear"},
		{Key: "p  m  M", Desc: "play-stop / play mode / mute    +/-: tempo"},
		{Key: "s S 1-6 d", Desc: "save / save new / switch / delete"},
		{Key: "[ ] a", Desc: "automation lane / enable   , . < >: key, octave"},
		{Key: "K W", Desc: "kit / waveform   w o e: write, open, export   q: quit"},
	}}}))

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(help)
	if *m.status != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(*m.status))
	}
	return b.String()
}
