package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	KeyBody   rune // fill of an unpressed key
	KeyStruck rune // fill of an active key
	Separator rune // edge between two white keys
	Cursor    rune // marker under the keyboard cursor
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			KeyBody:   ' ',
			KeyStruck: '█',
			Separator: '▏',
			Cursor:    '▲',
		},
	}
}

// Default uses the embedded palette
func Default() *Theme {
	return New(MustLoad(""))
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBlackKey = 0.0   // ebony
	RoleSurface  = 0.125 // key edge shadow
	RoleMuted    = 0.25  // disabled keys
	RoleLabel    = 0.375 // octave labels
	RoleAccent   = 0.5   // header
	RoleActive   = 0.625 // chord tones
	RoleWarning  = 0.75  // errors
	RoleDimWhite = 0.875 // disabled white keys
	RoleWhiteKey = 1.0   // ivory
)

// Style helpers

func (t *Theme) WhiteKey() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWhiteKey))
}

func (t *Theme) BlackKey() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBlackKey))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) DimWhite() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleDimWhite))
}

func (t *Theme) Label() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleLabel))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
