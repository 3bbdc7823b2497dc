package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left   key.Binding
	Right  key.Binding
	Strike key.Binding
	Redraw key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Left:   binding("lower key", "left", "h"),
		Right:  binding("higher key", "right", "l"),
		Strike: binding("play key", " "),
		Redraw: binding("redraw", "r"),
		Quit:   binding("quit", "q", "ctrl+c"),
	}
}

func binding(help string, keys ...string) key.Binding {
	name := keys[0]
	if name == " " {
		name = "space"
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(name, help))
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Strike, k.Redraw, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
