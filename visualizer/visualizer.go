// Package visualizer turns host arguments into a rendered keyboard frame.
package visualizer

import (
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/lipgloss"

	"chordviz/args"
	"chordviz/audio"
	"chordviz/debug"
	"chordviz/notes"
	"chordviz/theme"
	"chordviz/widgets"
)

const (
	DefaultWidth = 75
	HelloText    = "Hello, world!"
)

// FrameNotifier is told the display height after every render, along with
// the argument revision that was drawn
type FrameNotifier interface {
	SetFrameHeight(revision, height int)
}

// Frame is the result of one render pass
type Frame struct {
	Revision int // argument revision drawn
	Pass     int // renders so far
	Width    int
	Height   int
	View     string
}

// ChordVisualizer composes the player and the keyboard for a set of arguments
type ChordVisualizer struct {
	player   audio.Player
	host     FrameNotifier
	theme    *theme.Theme
	width    int
	revision int
	passes   int
	piano    *widgets.Piano
}

type Option func(*ChordVisualizer)

func WithWidth(width int) Option {
	return func(c *ChordVisualizer) { c.width = width }
}

func WithTheme(th *theme.Theme) Option {
	return func(c *ChordVisualizer) { c.theme = th }
}

// New builds a visualizer. A nil host discards frame heights.
func New(player audio.Player, host FrameNotifier, opts ...Option) *ChordVisualizer {
	c := &ChordVisualizer{
		player: player,
		host:   host,
		width:  DefaultWidth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.theme == nil {
		c.theme = theme.Default()
	}
	return c
}

// Render draws the keyboard for a. The host is notified of the frame height
// on every call, including failed ones.
func (c *ChordVisualizer) Render(a args.Args) (Frame, error) {
	c.passes++
	frame, err := c.render(a)
	frame.Revision = c.revision
	frame.Pass = c.passes
	if c.host != nil {
		c.host.SetFrameHeight(frame.Revision, frame.Height)
	}
	debug.LogEvery(50, "render", "revision %d pass %d height %d", frame.Revision, frame.Pass, frame.Height)
	return frame, err
}

// Apply renders a as the host's argument revision rev. Later calls to
// Render keep reporting rev until the next Apply.
func (c *ChordVisualizer) Apply(rev int, a args.Args) (Frame, error) {
	c.revision = rev
	return c.Render(a)
}

func (c *ChordVisualizer) render(a args.Args) (Frame, error) {
	if a.Version == args.VersionHello {
		c.piano = nil
		return frameOf(lipgloss.NewStyle().Foreground(c.theme.Accent()).Render(HelloText)), nil
	}

	r, err := a.Range()
	if err != nil {
		c.piano = nil
		return frameOf(c.errorView(err)), fault.Wrap(err, fmsg.With("render keyboard"))
	}

	opts := []widgets.PianoOption{widgets.WithTheme(c.theme)}
	if c.piano != nil {
		for _, id := range c.piano.PressedKeys() {
			if !r.Contains(id) {
				if _, err := c.piano.Release(id); err != nil {
					debug.Log("render", "release key %d: %v", id, err)
				}
			}
		}
		opts = append(opts, widgets.WithPressed(c.piano.PressedKeys()...), widgets.WithCursor(c.piano.Cursor()))
	}
	active := a.Active()
	c.piano = widgets.NewPiano(r, c.width, active, c.player, opts...)

	var out strings.Builder
	out.WriteString(c.piano.View())
	out.WriteString("\n")
	out.WriteString(widgets.RenderChord(c.theme.Active(), active, r))
	if c.piano.Disabled() {
		out.WriteString("  ")
		out.WriteString(lipgloss.NewStyle().Foreground(c.theme.Muted()).Render("loading instrument…"))
	}
	return frameOf(out.String()), nil
}

func (c *ChordVisualizer) errorView(err error) string {
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = err.Error()
	}
	return lipgloss.NewStyle().Foreground(c.theme.Warning()).Render("error: " + msg)
}

// Piano is the keyboard of the last successful render, or nil
func (c *ChordVisualizer) Piano() *widgets.Piano {
	return c.piano
}

// Range of the last rendered keyboard
func (c *ChordVisualizer) Range() (notes.Range, bool) {
	if c.piano == nil {
		return notes.Range{}, false
	}
	return c.piano.Range(), true
}

func frameOf(view string) Frame {
	return Frame{
		Width:  lipgloss.Width(view),
		Height: lipgloss.Height(view),
		View:   view,
	}
}
