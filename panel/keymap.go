package panel

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	ChoiceDown key.Binding
	ChoiceUp   key.Binding
	Apply      key.Binding
	Dismiss    key.Binding
	DismissAll key.Binding
	Learn      key.Binding
	Close      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:       key.NewBinding(key.WithKeys("tab", "ctrl+n"), key.WithHelp("tab", "next issue")),
		Prev:       key.NewBinding(key.WithKeys("shift+tab", "ctrl+p"), key.WithHelp("shift+tab", "previous issue")),
		ChoiceDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("down", "next suggestion")),
		ChoiceUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("up", "previous suggestion")),
		Apply:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply suggestion")),
		Dismiss:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "dismiss")),
		DismissAll: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "dismiss all")),
		Learn:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "add to dictionary")),
		Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Next, k.Dismiss, k.Learn, k.Close}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.ChoiceDown, k.ChoiceUp},
		{k.Apply, k.Dismiss, k.DismissAll, k.Learn, k.Close},
	}
}
