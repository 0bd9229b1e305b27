package app

import (
	"github.com/Benbentwo/aim/internal/ui/overlay"
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	NextView key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding

	// sessions
	Attach     key.Binding
	Toggle     key.Binding
	NewSession key.Binding
	CloseSess  key.Binding
	Archive    key.Binding
	Unarchive  key.Binding
	Delete     key.Binding
	OpenLink   key.Binding

	// board
	StartWork      key.Binding
	Refresh        key.Binding
	CycleMode      key.Binding
	FilterPriority key.Binding
	FilterAssignee key.Binding
	FilterState    key.Binding
	FilterTeam     key.Binding
	Sort           key.Binding
	ClearFilter    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		NextView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "previous column")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next column")),

		Attach:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "attach")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand/collapse")),
		NewSession: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
		CloseSess:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close session")),
		Archive:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
		Unarchive:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unarchive")),
		Delete:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete archived")),
		OpenLink:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open last link")),

		StartWork:      key.NewBinding(key.WithKeys("w", "enter"), key.WithHelp("w/enter", "start work")),
		Refresh:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		CycleMode:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "my issues/cycle")),
		FilterPriority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "filter priority")),
		FilterAssignee: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "filter assignee")),
		FilterState:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "filter state")),
		FilterTeam:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "filter team")),
		Sort:           key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "cycle sort")),
		ClearFilter:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filters")),
	}
}

// categories groups the bindings for the help overlay
func (k keyMap) categories() []overlay.KeyCategory {
	return []overlay.KeyCategory{
		{Name: "Global", Bindings: []key.Binding{k.NextView, k.Help, k.Quit}},
		{Name: "Sessions", Bindings: []key.Binding{k.Up, k.Down, k.Attach, k.Toggle, k.NewSession, k.CloseSess, k.Archive, k.Unarchive, k.Delete, k.OpenLink}},
		{Name: "Board", Bindings: []key.Binding{k.Left, k.Right, k.StartWork, k.Refresh, k.CycleMode, k.FilterPriority, k.FilterAssignee, k.FilterState, k.FilterTeam, k.Sort, k.ClearFilter}},
	}
}
