package widgets

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordviz/notes"
)

type call struct {
	op string
	id int
}

type fakePlayer struct {
	ready bool
	fail  error
	calls []call
}

func (f *fakePlayer) IsReady() bool { return f.ready }

func (f *fakePlayer) Play(id int) error {
	if f.fail != nil {
		return f.fail
	}
	f.calls = append(f.calls, call{"play", id})
	return nil
}

func (f *fakePlayer) Stop(id int) error {
	f.calls = append(f.calls, call{"stop", id})
	return nil
}

func mustRange(t *testing.T, first, last string) notes.Range {
	t.Helper()
	r, err := notes.NewRange(first, last)
	require.NoError(t, err)
	return r
}

func TestPianoSpansExactRange(t *testing.T) {
	pairs := [][2]string{{"c3", "c5"}, {"a0", "c8"}, {"c#4", "f#4"}, {"e4", "e4"}, {"bb2", "d3"}}
	for _, pair := range pairs {
		r := mustRange(t, pair[0], pair[1])
		p := NewPiano(r, 100, nil, &fakePlayer{ready: true})

		layout := p.Layout()
		require.Len(t, layout, r.Len(), pair)
		assert.Equal(t, r.First, layout[0].ID, pair)
		assert.Equal(t, r.Last, layout[len(layout)-1].ID, pair)
		for i, k := range layout {
			assert.Equal(t, r.First+i, k.ID)
			assert.Equal(t, notes.IsAccidental(k.ID), k.Accidental)
			assert.Less(t, k.Start, k.End)
			assert.LessOrEqual(t, k.End, p.Width())
		}
	}
}

func TestPianoActiveKeys(t *testing.T) {
	r := mustRange(t, "c3", "c5")
	p := NewPiano(r, 100, notes.NewSet(60, 64, 67, 90), &fakePlayer{ready: true})

	assert.Equal(t, []int{60, 64, 67}, p.ActiveKeys())
	for _, k := range p.Layout() {
		want := k.ID == 60 || k.ID == 64 || k.ID == 67
		assert.Equal(t, want, k.Active, notes.Name(k.ID))
		assert.False(t, k.Pressed)
	}
}

func TestPianoWidth(t *testing.T) {
	r := mustRange(t, "c3", "c5") // 15 white keys
	p := NewPiano(r, 60, nil, nil)
	assert.Equal(t, 60, p.Width())

	narrow := NewPiano(r, 10, nil, nil)
	assert.Equal(t, 15*MinKeyWidth, narrow.Width())
}

func TestPianoViewShape(t *testing.T) {
	r := mustRange(t, "c3", "c5")
	p := NewPiano(r, 45, notes.NewSet(60), &fakePlayer{ready: true})

	view := p.View()
	lines := strings.Split(view, "\n")
	require.Len(t, lines, p.Height())
	assert.Equal(t, p.Width(), lipgloss.Width(lines[0]))
	assert.Contains(t, view, "C3")
	assert.Contains(t, view, "C4")
	assert.Contains(t, view, "C5")
	assert.Contains(t, lines[PianoRows-1], "▲")
}

func TestKeyAt(t *testing.T) {
	r := mustRange(t, "c4", "e4")
	p := NewPiano(r, 9, nil, nil) // key width 3, black width 2

	byID := map[int]KeyLayout{}
	for _, k := range p.Layout() {
		byID[k.ID] = k
	}
	assert.Equal(t, KeyLayout{ID: 60, Start: 0, End: 3}, byID[60])
	assert.Equal(t, KeyLayout{ID: 61, Accidental: true, Start: 2, End: 4}, byID[61])

	id, ok := p.KeyAt(0, 0)
	assert.True(t, ok)
	assert.Equal(t, 60, id)

	id, ok = p.KeyAt(2, 0)
	assert.True(t, ok)
	assert.Equal(t, 61, id)

	// lower row only has white keys
	id, ok = p.KeyAt(2, 2)
	assert.True(t, ok)
	assert.Equal(t, 60, id)

	_, ok = p.KeyAt(2, 3)
	assert.False(t, ok)
	_, ok = p.KeyAt(-1, 0)
	assert.False(t, ok)
	_, ok = p.KeyAt(p.Width(), 0)
	assert.False(t, ok)
}

func TestPressReleaseWhenReady(t *testing.T) {
	player := &fakePlayer{ready: true}
	p := NewPiano(mustRange(t, "c3", "c5"), 45, nil, player)

	played, err := p.Press(60)
	require.NoError(t, err)
	assert.True(t, played)

	// holding the key does not retrigger
	played, _ = p.Press(60)
	assert.False(t, played)
	assert.Equal(t, []int{60}, p.PressedKeys())

	stopped, err := p.Release(60)
	require.NoError(t, err)
	assert.True(t, stopped)

	stopped, _ = p.Release(60)
	assert.False(t, stopped)

	assert.Equal(t, []call{{"play", 60}, {"stop", 60}}, player.calls)
}

func TestPressIgnoredWhileLoading(t *testing.T) {
	player := &fakePlayer{}
	p := NewPiano(mustRange(t, "c3", "c5"), 45, nil, player)
	assert.True(t, p.Disabled())

	played, err := p.Press(60)
	assert.NoError(t, err)
	assert.False(t, played)
	stopped, _ := p.Release(60)
	assert.False(t, stopped)
	assert.Empty(t, player.calls)
}

func TestPressOutsideRange(t *testing.T) {
	player := &fakePlayer{ready: true}
	p := NewPiano(mustRange(t, "c3", "c5"), 45, nil, player)
	played, _ := p.Press(20)
	assert.False(t, played)
	assert.Empty(t, player.calls)
}

func TestPressPlayerError(t *testing.T) {
	boom := errors.New("no sample")
	p := NewPiano(mustRange(t, "c3", "c5"), 45, nil, &fakePlayer{ready: true, fail: boom})
	played, err := p.Press(60)
	assert.ErrorIs(t, err, boom)
	assert.False(t, played)
	assert.Empty(t, p.PressedKeys())
}

func TestReleaseAllAndPressedCarryOver(t *testing.T) {
	player := &fakePlayer{ready: true}
	r := mustRange(t, "c3", "c5")
	p := NewPiano(r, 45, nil, player, WithPressed(60, 64, 10))
	assert.Equal(t, []int{60, 64}, p.PressedKeys())

	require.NoError(t, p.ReleaseAll())
	assert.Empty(t, p.PressedKeys())
	assert.Equal(t, []call{{"stop", 60}, {"stop", 64}}, player.calls)
}

func TestCursor(t *testing.T) {
	p := NewPiano(mustRange(t, "c4", "e4"), 20, nil, nil, WithCursor(100))
	assert.Equal(t, 64, p.Cursor())
	p.MoveCursor(-10)
	assert.Equal(t, 60, p.Cursor())
	p.MoveCursor(1)
	assert.Equal(t, 61, p.Cursor())
}

func TestRenderChord(t *testing.T) {
	r := mustRange(t, "c4", "c5")
	out := RenderChord(lipgloss.Color("#fff"), notes.NewSet(64, 60, 40), r)
	assert.Contains(t, out, "E2(off) C4 E4")
	assert.Contains(t, RenderChord(lipgloss.Color("#fff"), nil, r), "none")
}
