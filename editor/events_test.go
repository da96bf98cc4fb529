package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/proofline/buffer"
)

func TestOnChange_FiresOnMutationsAndSkipsNoOps(t *testing.T) {
	var events []ChangeEvent
	m := New(Config{
		Text: "ab",
		OnChange: func(ev ChangeEvent) {
			events = append(events, ev)
		},
	})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if len(events) != 1 {
		t.Fatalf("events after move: got %d, want %d", len(events), 1)
	}
	if got := events[0].Text; got != "ab" {
		t.Fatalf("event text after move: got %q, want %q", got, "ab")
	}
	if got := events[0].Cursor; got != (buffer.Pos{Row: 0, Col: 1}) {
		t.Fatalf("event cursor after move: got %v, want %v", got, buffer.Pos{Row: 0, Col: 1})
	}
	if events[0].TextChanged {
		t.Fatalf("move reported a text change")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight}) // to EOL
	if len(events) != 2 {
		t.Fatalf("events after move to EOL: got %d, want %d", len(events), 2)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight}) // no-op at EOL
	if len(events) != 2 {
		t.Fatalf("events after no-op: got %d, want %d", len(events), 2)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if len(events) != 3 {
		t.Fatalf("events after insert: got %d, want %d", len(events), 3)
	}
	if ev := events[2]; !ev.TextChanged || ev.Text != "abc" {
		t.Fatalf("insert event: got %+v", ev)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftLeft})
	if len(events) != 4 {
		t.Fatalf("events after select: got %d, want %d", len(events), 4)
	}
	ev := events[3]
	if !ev.Selection.Active || ev.Selection.Range != (buffer.Range{Start: buffer.Pos{Col: 2}, End: buffer.Pos{Col: 3}}) {
		t.Fatalf("selection event: got %+v", ev.Selection)
	}
	if ev.TextChanged {
		t.Fatalf("selection reported a text change")
	}
}

func TestClickMsg_EmittedForContentClicks(t *testing.T) {
	m := New(Config{Text: "hello world\nsecond", ShowLineNums: true})
	m = m.SetSize(20, 3)

	// Gutter is 2 cells wide; x=8 is content cell 6 ("w").
	m, cmd := m.Update(tea.MouseMsg{X: 8, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	click, ok := findClick(cmd)
	if !ok {
		t.Fatalf("expected a ClickMsg")
	}
	if click != (ClickMsg{Offset: 6, Cell: 6, Row: 0}) {
		t.Fatalf("click: got %+v", click)
	}
	if got := m.buf.CursorOffset(); got != 6 {
		t.Fatalf("cursor offset after click: got %d, want %d", got, 6)
	}

	_, cmd = m.Update(tea.MouseMsg{X: 0, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if _, ok := findClick(cmd); ok {
		t.Fatalf("gutter click must not emit a ClickMsg")
	}
}

func TestMouse_DragSelects(t *testing.T) {
	m := New(Config{Text: "hello world"})
	m = m.SetSize(20, 1)

	m, _ = m.Update(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = m.Update(tea.MouseMsg{X: 5, Y: 0, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m, _ = m.Update(tea.MouseMsg{X: 5, Y: 0, Action: tea.MouseActionRelease})

	r, ok := m.buf.Selection()
	if !ok || textInRange(m.buf, r) != "hello" {
		t.Fatalf("selection after drag: got %v ok=%v", r, ok)
	}
	if m.mouseDragging {
		t.Fatalf("dragging still set after release")
	}
}

func findClick(cmd tea.Cmd) (ClickMsg, bool) {
	if cmd == nil {
		return ClickMsg{}, false
	}
	switch msg := cmd().(type) {
	case ClickMsg:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if click, ok := findClick(c); ok {
				return click, true
			}
		}
	}
	return ClickMsg{}, false
}
