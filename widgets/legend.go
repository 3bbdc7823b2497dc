package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chordviz/notes"
)

// RenderSwatch renders a single colored square
func RenderSwatch(color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Render("■")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color lipgloss.Color, name, desc string) string {
	if desc == "" {
		return fmt.Sprintf("%s %s", RenderSwatch(color), name)
	}
	return fmt.Sprintf("%s %s - %s", RenderSwatch(color), name, desc)
}

// RenderChord spells the active keys, flagging those outside the keyboard
func RenderChord(color lipgloss.Color, active notes.Set, r notes.Range) string {
	if len(active) == 0 {
		return RenderLegendItem(color, "chord", "none")
	}
	var names []string
	for _, id := range active.Sorted() {
		name := notes.Name(id)
		if !r.Contains(id) {
			name += "(off)"
		}
		names = append(names, name)
	}
	return RenderLegendItem(color, "chord", strings.Join(names, " "))
}
