package buffer

import "github.com/iw2rmb/proofline/internal/grapheme"

type MoveUnit int

const (
	MoveGrapheme MoveUnit = iota
	MoveWord
	MoveLine
	MoveDoc
)

type MoveDir int

const (
	DirLeft MoveDir = iota
	DirRight
	DirUp
	DirDown
	DirHome // line start (or doc start for MoveDoc)
	DirEnd  // line end (or doc end for MoveDoc)
)

type Move struct {
	Unit   MoveUnit
	Dir    MoveDir
	Extend bool // if true, updates selection anchor/end; if false clears selection
}

func (b *Buffer) Move(m Move) {
	prevCursor := b.cursor
	prevSel := b.sel

	nextCursor := b.clampPos(b.moveCursor(prevCursor, m))

	nextSel := selectionState{}
	if m.Extend {
		anchor := prevCursor
		if prevSel.active && prevSel.anchor != prevSel.end {
			anchor = prevSel.anchor
		}
		if anchor != nextCursor {
			nextSel = selectionState{active: true, anchor: anchor, end: nextCursor}
		}
	}

	if prevCursor == nextCursor && prevSel == nextSel {
		return
	}
	b.cursor = nextCursor
	b.sel = nextSel
	b.version++
}

func (b *Buffer) moveCursor(p Pos, m Move) Pos {
	row, col := p.Row, p.Col
	line := b.lines[row]
	lastRow := len(b.lines) - 1

	switch m.Dir {
	case DirHome:
		if m.Unit == MoveDoc {
			return Pos{}
		}
		return Pos{Row: row}
	case DirEnd:
		if m.Unit == MoveDoc {
			return Pos{Row: lastRow, Col: len(b.lines[lastRow])}
		}
		return Pos{Row: row, Col: len(line)}
	case DirUp:
		if m.Unit == MoveDoc {
			return Pos{}
		}
		if row == 0 {
			return p
		}
		return Pos{Row: row - 1, Col: min(col, len(b.lines[row-1]))}
	case DirDown:
		if m.Unit == MoveDoc {
			return Pos{Row: lastRow, Col: len(b.lines[lastRow])}
		}
		if row == lastRow {
			return p
		}
		return Pos{Row: row + 1, Col: min(col, len(b.lines[row+1]))}
	case DirLeft:
		if col == 0 {
			if row == 0 || m.Unit == MoveWord {
				return p
			}
			return Pos{Row: row - 1, Col: len(b.lines[row-1])}
		}
		if m.Unit == MoveWord {
			return Pos{Row: row, Col: prevWordBoundary(line, col)}
		}
		return Pos{Row: row, Col: prevClusterStart(line, col)}
	case DirRight:
		if col == len(line) {
			if row == lastRow || m.Unit == MoveWord {
				return p
			}
			return Pos{Row: row + 1}
		}
		if m.Unit == MoveWord {
			return Pos{Row: row, Col: nextWordBoundary(line, col)}
		}
		return Pos{Row: row, Col: nextClusterEnd(line, col)}
	}
	return p
}

// Word boundaries skip whitespace clusters, then non-whitespace clusters.
// A newline is a hard boundary.
func prevWordBoundary(line []rune, col int) int {
	cs := grapheme.Clusters(string(line))
	i := len(cs)
	for i > 0 && cs[i-1].RuneStart >= col {
		i--
	}
	for i > 0 && grapheme.IsSpace(cs[i-1].Text) {
		i--
	}
	for i > 0 && !grapheme.IsSpace(cs[i-1].Text) {
		i--
	}
	if i == len(cs) {
		return len(line)
	}
	return cs[i].RuneStart
}

func nextWordBoundary(line []rune, col int) int {
	cs := grapheme.Clusters(string(line))
	i := 0
	for i < len(cs) && cs[i].RuneEnd <= col {
		i++
	}
	for i < len(cs) && grapheme.IsSpace(cs[i].Text) {
		i++
	}
	for i < len(cs) && !grapheme.IsSpace(cs[i].Text) {
		i++
	}
	if i == 0 {
		return 0
	}
	return cs[i-1].RuneEnd
}
