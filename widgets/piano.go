package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chordviz/audio"
	"chordviz/notes"
	"chordviz/theme"
)

const (
	MinKeyWidth = 2

	blackRows  = 2
	whiteRows  = 1
	labelRows  = 1
	cursorRows = 1
	PianoRows  = blackRows + whiteRows + labelRows + cursorRows
)

// KeyLayout is where one key sits on screen, in columns [Start, End)
type KeyLayout struct {
	ID         int
	Accidental bool
	Start      int
	End        int
	Active     bool // supplied by the host
	Pressed    bool // held by the user
}

// Piano renders a keyboard across a key range and forwards presses to a player
type Piano struct {
	rng     notes.Range
	width   int
	active  notes.Set
	player  audio.Player
	theme   *theme.Theme
	pressed map[int]bool
	cursor  int

	keyWidth int
	total    int
	keys     []KeyLayout
	index    map[int]int // key id -> keys index
}

type PianoOption func(*Piano)

func WithTheme(th *theme.Theme) PianoOption {
	return func(p *Piano) { p.theme = th }
}

// WithPressed carries held keys over from a previous render
func WithPressed(ids ...int) PianoOption {
	return func(p *Piano) {
		for _, id := range ids {
			if p.rng.Contains(id) {
				p.pressed[id] = true
			}
		}
	}
}

// WithCursor places the keyboard cursor; ids outside the range are clamped
func WithCursor(id int) PianoOption {
	return func(p *Piano) { p.cursor = id }
}

// NewPiano lays out keys for the range. width is the target width in columns;
// keys never get narrower than MinKeyWidth, so a wide range may exceed it.
func NewPiano(r notes.Range, width int, active notes.Set, player audio.Player, opts ...PianoOption) *Piano {
	if player == nil {
		player = audio.Silent{}
	}
	if active == nil {
		active = notes.NewSet()
	}
	p := &Piano{
		rng:     r,
		width:   width,
		active:  active,
		player:  player,
		pressed: make(map[int]bool),
		cursor:  r.First,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.theme == nil {
		p.theme = theme.Default()
	}
	p.cursor = p.clamp(p.cursor)
	p.layout()
	return p
}

func (p *Piano) layout() {
	naturals := 0
	for id := p.rng.First; id <= p.rng.Last; id++ {
		if !notes.IsAccidental(id) {
			naturals++
		}
	}

	p.keyWidth = MinKeyWidth
	if naturals > 0 && p.width/naturals > MinKeyWidth {
		p.keyWidth = p.width / naturals
	}
	blackWidth := max(1, p.keyWidth*2/3)

	p.keys = make([]KeyLayout, 0, p.rng.Len())
	p.index = make(map[int]int, p.rng.Len())
	p.total = 0
	n := 0
	for id := p.rng.First; id <= p.rng.Last; id++ {
		k := KeyLayout{ID: id, Accidental: notes.IsAccidental(id)}
		if k.Accidental {
			// straddles the edge before the next white key
			k.Start = max(0, n*p.keyWidth-blackWidth/2)
			k.End = k.Start + blackWidth
		} else {
			k.Start = n * p.keyWidth
			k.End = k.Start + p.keyWidth
			n++
		}
		p.index[id] = len(p.keys)
		p.keys = append(p.keys, k)
		p.total = max(p.total, k.End)
	}
}

// Range is the inclusive span of rendered keys
func (p *Piano) Range() notes.Range {
	return p.rng
}

// Disabled is true while the player is still loading
func (p *Piano) Disabled() bool {
	return !p.player.IsReady()
}

// Width is the rendered width in columns
func (p *Piano) Width() int {
	return p.total
}

func (p *Piano) Height() int {
	return PianoRows
}

// Layout returns every key with its columns and state
func (p *Piano) Layout() []KeyLayout {
	out := make([]KeyLayout, len(p.keys))
	for i, k := range p.keys {
		k.Active = p.active.Has(k.ID)
		k.Pressed = p.pressed[k.ID]
		out[i] = k
	}
	return out
}

// ActiveKeys lists the highlighted keys that are on the keyboard
func (p *Piano) ActiveKeys() []int {
	var ids []int
	for _, k := range p.keys {
		if p.active.Has(k.ID) {
			ids = append(ids, k.ID)
		}
	}
	return ids
}

// PressedKeys lists keys currently held
func (p *Piano) PressedKeys() []int {
	var ids []int
	for _, k := range p.keys {
		if p.pressed[k.ID] {
			ids = append(ids, k.ID)
		}
	}
	return ids
}

// KeyAt maps a cell relative to the keyboard's top-left corner to a key.
// Black keys win in their rows.
func (p *Piano) KeyAt(x, y int) (int, bool) {
	if x < 0 || x >= p.total || y < 0 || y >= blackRows+whiteRows {
		return 0, false
	}
	if y < blackRows {
		if k, ok := p.keyAt(x, true); ok {
			return k.ID, true
		}
	}
	if k, ok := p.keyAt(x, false); ok {
		return k.ID, true
	}
	return 0, false
}

func (p *Piano) keyAt(x int, accidental bool) (KeyLayout, bool) {
	for _, k := range p.keys {
		if k.Accidental == accidental && x >= k.Start && x < k.End {
			return k, true
		}
	}
	return KeyLayout{}, false
}

// Press starts a key. It reports whether the player was asked to play.
func (p *Piano) Press(id int) (bool, error) {
	if p.Disabled() || !p.rng.Contains(id) || p.pressed[id] {
		return false, nil
	}
	if err := p.player.Play(id); err != nil {
		return false, err
	}
	p.pressed[id] = true
	return true, nil
}

// Release stops a pressed key. It reports whether the player was asked to stop.
func (p *Piano) Release(id int) (bool, error) {
	if !p.pressed[id] {
		return false, nil
	}
	delete(p.pressed, id)
	if p.Disabled() {
		return false, nil
	}
	if err := p.player.Stop(id); err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseAll stops every held key
func (p *Piano) ReleaseAll() error {
	var firstErr error
	for _, id := range p.PressedKeys() {
		if _, err := p.Release(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Piano) Cursor() int {
	return p.cursor
}

// MoveCursor shifts the cursor by delta keys, staying inside the range
func (p *Piano) MoveCursor(delta int) {
	p.cursor = p.clamp(p.cursor + delta)
}

func (p *Piano) clamp(id int) int {
	return min(max(id, p.rng.First), p.rng.Last)
}

type cellKind int

const (
	cellBlank cellKind = iota
	cellWhite
	cellWhiteLit
	cellBlack
	cellBlackLit
	cellEdge
	cellEdgeLit
	cellLabel
	cellCursor
)

type cell struct {
	kind cellKind
	ch   rune
}

func (p *Piano) styles() map[cellKind]lipgloss.Style {
	th := p.theme
	white, black := th.WhiteKey(), th.BlackKey()
	if p.Disabled() {
		white, black = th.DimWhite(), th.Muted()
	}
	return map[cellKind]lipgloss.Style{
		cellBlank:    lipgloss.NewStyle(),
		cellWhite:    lipgloss.NewStyle().Background(white),
		cellWhiteLit: lipgloss.NewStyle().Foreground(th.Active()).Background(th.Active()),
		cellBlack:    lipgloss.NewStyle().Foreground(black).Background(black),
		cellBlackLit: lipgloss.NewStyle().Foreground(th.Active()).Background(th.Active()),
		cellEdge:     lipgloss.NewStyle().Foreground(th.Surface()).Background(white),
		cellEdgeLit:  lipgloss.NewStyle().Foreground(th.Surface()).Background(th.Active()),
		cellLabel:    lipgloss.NewStyle().Foreground(th.Label()),
		cellCursor:   lipgloss.NewStyle().Foreground(th.Accent()),
	}
}

func (p *Piano) lit(id int) bool {
	return p.active.Has(id) || p.pressed[id]
}

func (p *Piano) whiteCell(k KeyLayout, x int) cell {
	sym := p.theme.Symbols
	lit := p.lit(k.ID)
	if x == k.Start && x > 0 {
		if lit {
			return cell{cellEdgeLit, sym.Separator}
		}
		return cell{cellEdge, sym.Separator}
	}
	if lit {
		return cell{cellWhiteLit, sym.KeyStruck}
	}
	return cell{cellWhite, sym.KeyBody}
}

// View renders the keyboard rows, octave labels and cursor marker
func (p *Piano) View() string {
	sym := p.theme.Symbols
	grid := make([][]cell, PianoRows)
	for row := range grid {
		grid[row] = make([]cell, p.total)
		for x := range grid[row] {
			grid[row][x] = cell{cellBlank, ' '}
		}
	}

	for _, k := range p.keys {
		if k.Accidental {
			continue
		}
		for x := k.Start; x < k.End; x++ {
			for row := 0; row < blackRows+whiteRows; row++ {
				grid[row][x] = p.whiteCell(k, x)
			}
		}
		if notes.PitchClass(k.ID) == "C" || k.ID == p.rng.First {
			label := notes.Name(k.ID)
			for i, r := range label {
				if k.Start+i < p.total {
					grid[blackRows+whiteRows][k.Start+i] = cell{cellLabel, r}
				}
			}
		}
	}

	for _, k := range p.keys {
		if !k.Accidental {
			continue
		}
		c := cell{cellBlack, sym.KeyStruck}
		if p.lit(k.ID) {
			c = cell{cellBlackLit, sym.KeyStruck}
		}
		for x := k.Start; x < k.End && x < p.total; x++ {
			for row := 0; row < blackRows; row++ {
				grid[row][x] = c
			}
		}
	}

	if i, ok := p.index[p.cursor]; ok {
		k := p.keys[i]
		grid[PianoRows-1][(k.Start+k.End-1)/2] = cell{cellCursor, sym.Cursor}
	}

	styles := p.styles()
	lines := make([]string, len(grid))
	for row, cells := range grid {
		lines[row] = renderRuns(cells, styles)
	}
	return strings.Join(lines, "\n")
}

// renderRuns styles consecutive cells of the same kind together
func renderRuns(cells []cell, styles map[cellKind]lipgloss.Style) string {
	var out, run strings.Builder
	kind := cellBlank
	flush := func() {
		if run.Len() > 0 {
			out.WriteString(styles[kind].Render(run.String()))
			run.Reset()
		}
	}
	for _, c := range cells {
		if c.kind != kind {
			flush()
			kind = c.kind
		}
		run.WriteRune(c.ch)
	}
	flush()
	return out.String()
}
