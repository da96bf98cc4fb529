package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/iw2rmb/proofline/editor"
	"github.com/iw2rmb/proofline/panel"
)

// KeyMap holds the application-level bindings. Panel and editor bindings
// live in their own packages.
type KeyMap struct {
	Quit      key.Binding
	Toggle    key.Binding
	Recheck   key.Binding
	ShowIssue key.Binding
	Save      key.Binding
	Help      key.Binding

	panel  panel.KeyMap
	editor editor.KeyMap
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("ctrl+q", "quit")),
		Toggle:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "toggle checking")),
		Recheck:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "check now")),
		ShowIssue: key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "issue at cursor")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),

		panel:  panel.DefaultKeyMap(),
		editor: editor.DefaultKeyMap(),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ShowIssue, k.Recheck, k.Toggle, k.Save, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	out := [][]key.Binding{{k.ShowIssue, k.Recheck, k.Toggle, k.Save, k.Help, k.Quit}}
	out = append(out, k.panel.FullHelp()...)
	return append(out, k.editor.FullHelp()...)
}
