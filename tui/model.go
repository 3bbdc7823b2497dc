package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chordviz/args"
	"chordviz/debug"
	"chordviz/host"
	"chordviz/midi"
	"chordviz/theme"
	"chordviz/visualizer"
)

// StrikeHold is how long a key struck from the keyboard sounds
const StrikeHold = 400 * time.Millisecond

// rows above the keyboard: header and a blank line
const pianoTop = 2

// Loader reports when the instrument has finished loading
type Loader interface {
	Instrument() string
	Ready() <-chan struct{}
	Err() error
}

type Model struct {
	viz   *visualizer.ChordVisualizer
	hub   *host.Hub
	sound Loader
	kb    *midi.KeyboardController
	Theme *theme.Theme

	args     args.Args
	frame    visualizer.Frame
	err      error
	held     int // key held by the mouse, 0 if none
	keys     keyMap
	help     help.Model
	quitting bool
}

type Option func(*Model)

func WithHub(h *host.Hub) Option {
	return func(m *Model) { m.hub = h }
}

func WithLoader(l Loader) Option {
	return func(m *Model) { m.sound = l }
}

func WithKeyboard(kb *midi.KeyboardController) Option {
	return func(m *Model) { m.kb = kb }
}

type ArgsMsg host.Update

type ReadyMsg struct {
	Err error
}

type NoteMsg midi.Event

type releaseMsg struct {
	id int
}

func NewModel(viz *visualizer.ChordVisualizer, initial args.Args, th *theme.Theme, opts ...Option) Model {
	m := Model{
		viz:   viz,
		Theme: th,
		args:  initial,
		keys:  newKeyMap(),
		help:  help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.render()
	return m
}

func ListenForArgs(hub *host.Hub) tea.Cmd {
	return func() tea.Msg {
		return ArgsMsg(<-hub.Updates())
	}
}

func ListenForReady(l Loader) tea.Cmd {
	return func() tea.Msg {
		<-l.Ready()
		return ReadyMsg{Err: l.Err()}
	}
}

func ListenForNotes(kb *midi.KeyboardController) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-kb.NoteEvents()
		if !ok {
			return nil
		}
		return NoteMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.hub != nil {
		cmds = append(cmds, ListenForArgs(m.hub))
	}
	if m.sound != nil {
		cmds = append(cmds, ListenForReady(m.sound))
	}
	if m.kb != nil {
		cmds = append(cmds, ListenForNotes(m.kb))
	}
	return tea.Batch(cmds...)
}

func (m *Model) render() {
	frame, err := m.viz.Render(m.args)
	m.frame = frame
	if err != nil {
		m.err = err
	}
}

func (m *Model) setErr(err error) {
	if err != nil {
		debug.Log("tui", "%v", err)
		m.err = err
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case ArgsMsg:
		m.args = msg.Args
		m.err = nil
		frame, err := m.viz.Apply(msg.Revision, msg.Args)
		m.frame = frame
		m.setErr(err)
		if m.hub == nil {
			return m, nil
		}
		return m, ListenForArgs(m.hub)

	case ReadyMsg:
		m.setErr(msg.Err)
		m.render()
		return m, nil

	case NoteMsg:
		ev := midi.Event(msg)
		if p := m.viz.Piano(); p != nil {
			var err error
			if ev.IsNoteOn() {
				_, err = p.Press(int(ev.Note))
			} else {
				_, err = p.Release(int(ev.Note))
			}
			m.setErr(err)
			m.render()
		}
		if m.kb == nil {
			return m, nil
		}
		return m, ListenForNotes(m.kb)

	case releaseMsg:
		if p := m.viz.Piano(); p != nil {
			_, err := p.Release(msg.id)
			m.setErr(err)
			m.render()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.viz.Piano()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if p != nil {
			m.setErr(p.ReleaseAll())
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Redraw):
		m.err = nil
		m.render()

	case key.Matches(msg, m.keys.Left):
		if p != nil {
			p.MoveCursor(-1)
			m.render()
		}

	case key.Matches(msg, m.keys.Right):
		if p != nil {
			p.MoveCursor(1)
			m.render()
		}

	case key.Matches(msg, m.keys.Strike):
		if p == nil {
			return m, nil
		}
		id := p.Cursor()
		pressed, err := p.Press(id)
		m.setErr(err)
		m.render()
		if pressed {
			return m, tea.Tick(StrikeHold, func(time.Time) tea.Msg {
				return releaseMsg{id: id}
			})
		}
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	p := m.viz.Piano()
	if p == nil {
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		id, ok := p.KeyAt(msg.X, msg.Y-pianoTop)
		if !ok {
			return
		}
		pressed, err := p.Press(id)
		m.setErr(err)
		if pressed {
			m.held = id
		}
		m.render()

	case tea.MouseActionRelease:
		if m.held == 0 {
			return
		}
		_, err := p.Release(m.held)
		m.setErr(err)
		m.held = 0
		m.render()
	}
}

func (m Model) header() string {
	title := "chordviz"
	if r, ok := m.viz.Range(); ok {
		title = fmt.Sprintf("chordviz  %s  v%d", r, m.args.Version)
	}
	if m.sound != nil {
		title += "  " + m.sound.Instrument()
	}
	if m.hub != nil {
		title += "  " + m.hub.Mount()
	}
	return lipgloss.NewStyle().Foreground(m.Theme.Accent()).Render(title)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var out strings.Builder
	out.WriteString(m.header())
	out.WriteString("\n\n")
	out.WriteString(m.frame.View)
	out.WriteString("\n\n")

	if m.err != nil {
		msg := fmsg.GetIssue(m.err)
		if msg == "" {
			msg = m.err.Error()
		}
		out.WriteString(lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(msg))
		out.WriteString("\n")
	}
	out.WriteString(m.help.View(m.keys))

	return out.String()
}
