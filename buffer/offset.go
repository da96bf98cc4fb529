package buffer

// OffsetFromPos converts p to a flat rune offset. p is clamped first.
func (b *Buffer) OffsetFromPos(p Pos) int {
	p = b.clampPos(p)
	off := 0
	for row := 0; row < p.Row; row++ {
		off += len(b.lines[row]) + 1
	}
	return off + p.Col
}

// PosFromOffset converts a flat rune offset to a position.
// Offsets outside [0, Len()] are clamped.
func (b *Buffer) PosFromOffset(off int) Pos {
	if off <= 0 {
		return Pos{}
	}
	for row, line := range b.lines {
		if off <= len(line) {
			return Pos{Row: row, Col: off}
		}
		off -= len(line) + 1
	}
	last := len(b.lines) - 1
	return Pos{Row: last, Col: len(b.lines[last])}
}

// Slice returns the text in the flat rune range [start, end), clamped.
func (b *Buffer) Slice(start, end int) string {
	n := b.Len()
	start = clampInt(start, 0, n)
	end = clampInt(end, start, n)
	return textForRange(b.lines, Range{Start: b.PosFromOffset(start), End: b.PosFromOffset(end)})
}

// CursorOffset is Cursor expressed as a flat rune offset.
func (b *Buffer) CursorOffset() int {
	return b.OffsetFromPos(b.cursor)
}
