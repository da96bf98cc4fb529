package editor

import "github.com/iw2rmb/proofline/buffer"

type ChangeEvent struct {
	Version   uint64
	Cursor    buffer.Pos
	Selection struct {
		Range  buffer.Range
		Active bool
	}
	// TextChanged is set when the text itself changed, not only the cursor
	// or selection.
	TextChanged bool
	// Edits are the effective text edits, in application order, when
	// TextChanged is set.
	Edits []buffer.AppliedEdit

	Text string
}

func buildChangeEvent(b *buffer.Buffer, textChanged bool) ChangeEvent {
	ev := ChangeEvent{
		Version:     b.Version(),
		Cursor:      b.Cursor(),
		TextChanged: textChanged,
		Text:        b.Text(),
	}
	if textChanged {
		if ch, ok := b.LastChange(); ok {
			ev.Edits = ch.Edits
		}
	}
	if r, ok := b.Selection(); ok {
		ev.Selection.Active = true
		ev.Selection.Range = r
	}
	return ev
}

// ClickMsg is emitted for a plain left click inside the content area.
type ClickMsg struct {
	// Offset is the rune offset under the pointer.
	Offset int
	// Cell and Row are content coordinates in the Decorator's space.
	Cell, Row int
}
