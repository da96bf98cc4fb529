package editor

import (
	"github.com/iw2rmb/proofline/buffer"
	"github.com/iw2rmb/proofline/internal/layout"
)

// ViewportState is a stable host-facing snapshot of editor camera state.
type ViewportState struct {
	// TopVisualRow is the visual row index rendered at viewport screen row 0.
	TopVisualRow int
	// VisibleRows is the number of content rows available for rendering.
	VisibleRows int
	// GutterWidth is the number of cells left of the text.
	GutterWidth int
	// WrapMode is the active wrapping mode used to interpret coordinates.
	WrapMode layout.WrapMode
}

// ViewportState returns the current host-facing viewport state.
func (m Model) ViewportState() ViewportState {
	return ViewportState{
		TopVisualRow: max(m.viewport.YOffset, 0),
		VisibleRows:  m.visibleRowCount(),
		GutterWidth:  m.gutterWidth(),
		WrapMode:     m.cfg.WrapMode,
	}
}

// ScreenToDoc maps viewport-local screen coordinates to a document position.
func (m Model) ScreenToDoc(x, y int) buffer.Pos {
	return (&m).screenToDocPos(x, y)
}

// DocToScreen maps a document position to viewport-local screen coordinates.
//
// ok is false when the position is outside the visible viewport content.
func (m Model) DocToScreen(pos buffer.Pos) (x int, y int, ok bool) {
	return (&m).docToScreenPos(pos)
}

func (m Model) visibleRowCount() int {
	return max(m.viewport.Height-m.viewport.Style.GetVerticalFrameSize(), 0)
}
