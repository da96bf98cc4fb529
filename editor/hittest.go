package editor

import (
	"github.com/iw2rmb/proofline/buffer"
	"github.com/iw2rmb/proofline/internal/layout"
)

// screenToDocPos maps viewport-local mouse coordinates to a document position.
//
// Coordinates are in terminal cells relative to the editor's viewport:
// (0,0) is the top-left of the visible region, gutter included. Gutter
// clicks map to the start of the row; x/y are clamped into document bounds.
func (m *Model) screenToDocPos(x, y int) buffer.Pos {
	if m.buf == nil {
		return buffer.Pos{}
	}
	lay := m.ensureLayout()
	if lay.RowCount() == 0 {
		return buffer.Pos{}
	}
	row := min(max(m.viewport.YOffset+y, 0), lay.RowCount()-1)
	cell := max(x-m.gutterWidth(), 0)
	return m.buf.PosFromOffset(lay.OffsetAt(layout.Point{Row: row, Cell: cell}))
}

// docToScreenPos maps a document position to viewport-local coordinates.
//
// ok is false when the mapped coordinate is outside the visible viewport.
func (m *Model) docToScreenPos(pos buffer.Pos) (x int, y int, ok bool) {
	if m.buf == nil {
		return 0, 0, false
	}
	p, found := m.ensureLayout().Locate(m.buf.OffsetFromPos(pos))
	if !found {
		return 0, 0, false
	}
	x = p.Cell + m.gutterWidth()
	y = p.Row - m.viewport.YOffset
	if y < 0 || y >= m.visibleRowCount() || x >= m.viewport.Width {
		return x, y, false
	}
	return x, y, true
}

// clickAt resolves a click in the content area. Gutter clicks and clicks
// below the last row are not reported.
func (m *Model) clickAt(x, y int) (ClickMsg, bool) {
	lay := m.ensureLayout()
	cell := x - m.gutterWidth()
	row := m.viewport.YOffset + y
	if cell < 0 || row < 0 || row >= lay.RowCount() {
		return ClickMsg{}, false
	}
	return ClickMsg{
		Offset: lay.OffsetAt(layout.Point{Row: row, Cell: cell}),
		Cell:   cell,
		Row:    row,
	}, true
}
