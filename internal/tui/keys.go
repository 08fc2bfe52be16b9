package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start      key.Binding
	Stop       key.Binding
	Toggle     key.Binding
	New        key.Binding
	NewProject key.Binding
	Delete     key.Binding
	PickTask   key.Binding
	Preset     key.Binding
	Mode       key.Binding
	Background key.Binding
	Range      key.Binding
	ShowAll    key.Binding
	Save       key.Binding
	Export     key.Binding
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	Tab4       key.Binding
	Tab5       key.Binding
	Tab        key.Binding
	Help       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Start:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Stop:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
	Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	New:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
	NewProject: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new project")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	PickTask:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "pick task")),
	Preset:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "preset")),
	Mode:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "theme mode")),
	Background: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "background")),
	Range:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "daily/weekly")),
	ShowAll:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all/open")),
	Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Export:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
	Tab1:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
	Tab2:       key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "tasks")),
	Tab3:       key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "deep work")),
	Tab4:       key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "reports")),
	Tab5:       key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "settings")),
	Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Toggle, k.Start, k.Stop, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.NewProject, k.Toggle, k.Delete, k.Enter, k.ShowAll},
		{k.Start, k.Stop, k.PickTask, k.Preset},
		{k.Mode, k.Background, k.Range, k.Export},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5},
		{k.Up, k.Down, k.Left, k.Right, k.Back, k.Quit},
	}
}
