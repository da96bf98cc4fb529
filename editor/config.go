package editor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/proofline/internal/layout"
)

// Decorator styles individual cells. x is the cell within the content area
// (the gutter excluded) and row is the absolute visual row.
type Decorator interface {
	CellStyle(x, row int) (lipgloss.Style, bool)
}

// Config configures the editor Model.
type Config struct {
	// Initial text for the internal buffer.
	Text string

	// Rendering options.
	ShowLineNums bool
	Style        Style
	WrapMode     layout.WrapMode
	TabWidth     int

	KeyMap    KeyMap
	Clipboard Clipboard
	ReadOnly  bool

	ScrollPolicy ScrollPolicy

	// Decorator is consulted for every rendered text cell.
	Decorator Decorator

	// OnChange fires after every effective buffer mutation, cursor move or
	// selection change.
	OnChange func(ChangeEvent)

	// Forwarded to buffer.Options.
	HistoryLimit int
}

func (c Config) withDefaults() Config {
	if c.TabWidth <= 0 {
		c.TabWidth = 4
	}
	if c.KeyMap.isZero() {
		c.KeyMap = DefaultKeyMap()
	}
	return c
}

// ScrollPolicy decides whether the mouse wheel may scroll away from the
// cursor.
type ScrollPolicy int

const (
	ScrollAllowManual ScrollPolicy = iota
	// ScrollFollowCursorOnly ignores wheel events; only cursor movement
	// scrolls.
	ScrollFollowCursorOnly
)
