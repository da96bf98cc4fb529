package buffer

import (
	"strings"

	"github.com/iw2rmb/proofline/internal/grapheme"
)

// InsertText inserts text at the cursor, or replaces the active selection.
func (b *Buffer) InsertText(s string) {
	r, ok := b.Selection()
	if !ok {
		if s == "" {
			return
		}
		r = Range{Start: b.cursor, End: b.cursor}
	}
	b.edit(ChangeSourceLocal, r, s)
}

// InsertNewline inserts a line break at the cursor, or replaces the active
// selection.
func (b *Buffer) InsertNewline() {
	b.InsertText("\n")
}

// DeleteBackward removes the grapheme cluster before the cursor, or the line
// break when the cursor sits at column 0.
func (b *Buffer) DeleteBackward() {
	if _, ok := b.Selection(); ok {
		b.DeleteSelection()
		return
	}
	row, col := b.cursor.Row, b.cursor.Col
	switch {
	case col > 0:
		start := prevClusterStart(b.lines[row], col)
		b.edit(ChangeSourceLocal, Range{Start: Pos{Row: row, Col: start}, End: b.cursor}, "")
	case row > 0:
		start := Pos{Row: row - 1, Col: len(b.lines[row-1])}
		b.edit(ChangeSourceLocal, Range{Start: start, End: b.cursor}, "")
	}
}

// DeleteForward applies delete-key semantics.
func (b *Buffer) DeleteForward() {
	if _, ok := b.Selection(); ok {
		b.DeleteSelection()
		return
	}
	row, col := b.cursor.Row, b.cursor.Col
	switch {
	case col < len(b.lines[row]):
		end := nextClusterEnd(b.lines[row], col)
		b.edit(ChangeSourceLocal, Range{Start: b.cursor, End: Pos{Row: row, Col: end}}, "")
	case row < len(b.lines)-1:
		b.edit(ChangeSourceLocal, Range{Start: b.cursor, End: Pos{Row: row + 1}}, "")
	}
}

// DeleteSelection deletes the active selection, if any.
func (b *Buffer) DeleteSelection() {
	r, ok := b.Selection()
	if !ok {
		return
	}
	b.edit(ChangeSourceLocal, r, "")
}

// Apply applies text edits in order. Each edit's range is interpreted against
// the buffer state at the time that edit is applied. All effective edits form
// one undo step.
func (b *Buffer) Apply(edits ...TextEdit) {
	if len(edits) == 0 {
		return
	}
	prev := b.snapshot()
	change := b.beginChange(ChangeSourceLocal)
	cursor := b.cursor
	for _, e := range edits {
		next, applied, changed := b.replaceRange(e.Range, e.Text)
		if !changed {
			continue
		}
		cursor = next
		change.edits = append(change.edits, applied)
	}
	if len(change.edits) == 0 {
		return
	}
	b.finish(prev, change, cursor)
}

// Replace swaps length runes starting at the flat rune offset for text.
// The cursor lands after the inserted text. Out-of-range spans are clamped.
// It reports whether the text changed.
func (b *Buffer) Replace(offset, length int, text string, source ChangeSource) bool {
	n := b.Len()
	start := clampInt(offset, 0, n)
	end := clampInt(offset+length, start, n)
	r := Range{Start: b.PosFromOffset(start), End: b.PosFromOffset(end)}
	return b.edit(source, r, text)
}

// SetText replaces the whole document. The cursor is clamped into the new
// text and the replacement is undoable.
func (b *Buffer) SetText(text string, source ChangeSource) bool {
	if text == b.Text() {
		return false
	}
	prev := b.snapshot()
	change := b.beginChange(source)
	e, _ := diffEdit(prev.text, text)
	b.lines = splitLines(text)
	change.edits = append(change.edits, e)
	b.finish(prev, change, prev.cursor)
	return true
}

func (b *Buffer) edit(source ChangeSource, r Range, text string) bool {
	prev := b.snapshot()
	change := b.beginChange(source)
	next, applied, changed := b.replaceRange(r, text)
	if !changed {
		return false
	}
	change.edits = append(change.edits, applied)
	b.finish(prev, change, next)
	return true
}

func (b *Buffer) finish(prev bufferSnapshot, change changeBuilder, cursor Pos) {
	b.cursor = b.clampPos(cursor)
	b.sel = selectionState{}
	b.version++
	b.recordUndo(prev)
	b.commitChange(change)
}

func (b *Buffer) replaceRange(r Range, text string) (nextCursor Pos, applied AppliedEdit, changed bool) {
	r = NormalizeRange(ClampRange(r, len(b.lines), b.lineLen))
	removed := textForRange(b.lines, r)
	if removed == text {
		return b.cursor, AppliedEdit{}, false
	}
	offset := b.OffsetFromPos(r.Start)

	startRow, startCol := r.Start.Row, r.Start.Col
	endRow, endCol := r.End.Row, r.End.Col
	prefix := append([]rune(nil), b.lines[startRow][:startCol]...)
	suffix := append([]rune(nil), b.lines[endRow][endCol:]...)

	ins := splitLines(text)
	repl := make([][]rune, 0, len(ins))
	for i, part := range ins {
		line := part
		if i == 0 {
			line = append(prefix, part...)
		}
		if i == len(ins)-1 {
			nextCursor = Pos{Row: startRow + i, Col: len(line)}
			line = append(line, suffix...)
		}
		repl = append(repl, line)
	}

	out := make([][]rune, 0, len(b.lines)-(endRow-startRow)+len(repl))
	out = append(out, b.lines[:startRow]...)
	out = append(out, repl...)
	out = append(out, b.lines[endRow+1:]...)
	b.lines = out

	return nextCursor, AppliedEdit{Offset: offset, Removed: removed, Inserted: text}, true
}

func textForRange(lines [][]rune, r Range) string {
	r = NormalizeRange(r)
	if r.IsEmpty() {
		return ""
	}
	if r.Start.Row == r.End.Row {
		return string(lines[r.Start.Row][r.Start.Col:r.End.Col])
	}
	var sb strings.Builder
	for row := r.Start.Row; row <= r.End.Row; row++ {
		if row > r.Start.Row {
			sb.WriteByte('\n')
		}
		from, to := 0, len(lines[row])
		if row == r.Start.Row {
			from = r.Start.Col
		}
		if row == r.End.Row {
			to = r.End.Col
		}
		sb.WriteString(string(lines[row][from:to]))
	}
	return sb.String()
}

// prevClusterStart returns the rune column where the cluster ending at or
// spanning col starts.
func prevClusterStart(line []rune, col int) int {
	start := 0
	for _, c := range grapheme.Clusters(string(line)) {
		if c.RuneStart >= col {
			break
		}
		start = c.RuneStart
	}
	return start
}

// nextClusterEnd returns the rune column where the cluster starting at or
// spanning col ends.
func nextClusterEnd(line []rune, col int) int {
	for _, c := range grapheme.Clusters(string(line)) {
		if c.RuneEnd > col {
			return c.RuneEnd
		}
	}
	return len(line)
}
