// Package layout turns flat text into visual rows of terminal cells.
//
// Offsets are rune offsets into the flat text, with '\n' counted as one rune.
// A Layout maps offsets to (row, cell) points and back, and turns an offset
// span into one rectangle per visual row it touches.
package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/iw2rmb/proofline/internal/grapheme"
)

// WrapMode controls how long logical lines are displayed.
//
// WrapNone keeps one logical line per visual row. WrapWord and WrapGrapheme
// soft wrap at Width cells.
type WrapMode int

const (
	WrapNone WrapMode = iota
	WrapWord
	WrapGrapheme
)

type Options struct {
	Width    int // wrap width in cells; <= 0 disables wrapping
	Wrap     WrapMode
	TabWidth int // default: 4
}

// Token is one rendered grapheme cluster. Tabs are expanded to spaces.
type Token struct {
	Text      string
	RuneStart int // flat offset
	RuneEnd   int
	StartCell int // cell offset within the logical line
	Width     int
}

// Row is one visual row: a slice of a logical line.
type Row struct {
	Line      int
	RuneStart int // flat offset of the first rune on the row
	RuneEnd   int // flat offset after the last rune on the row
	StartCell int // line-relative cell where the row begins
	Cells     int
	Tokens    []Token
}

// Point is a visual position: a row index and a cell within that row.
type Point struct {
	Row  int
	Cell int
}

// Rect is a horizontal run of cells on one visual row.
type Rect struct {
	Row   int
	Cell  int
	Width int
}

type Layout struct {
	opt  Options
	rows []Row
	size int
}

func Build(text string, opt Options) *Layout {
	if opt.TabWidth <= 0 {
		opt.TabWidth = 4
	}
	l := &Layout{opt: opt}
	off := 0
	for i, line := range strings.Split(text, "\n") {
		toks := lineTokens(line, off, opt.TabWidth)
		l.rows = append(l.rows, wrapRows(i, off, off+runeCount(line), toks, opt)...)
		off += runeCount(line) + 1
	}
	l.size = off - 1
	return l
}

func (l *Layout) Rows() []Row { return l.rows }

func (l *Layout) RowCount() int { return len(l.rows) }

// Len is the length of the laid out text in runes.
func (l *Layout) Len() int { return l.size }

// Locate maps offset to the visual point of the cluster that contains it.
// An offset at the end of a row maps to the cell after its last token.
func (l *Layout) Locate(offset int) (Point, bool) {
	if offset < 0 || offset > l.size {
		return Point{}, false
	}
	for i, r := range l.rows {
		if offset < r.RuneStart || offset > r.RuneEnd {
			continue
		}
		// The row end belongs to the next row when the line continues there.
		if offset == r.RuneEnd && i+1 < len(l.rows) && l.rows[i+1].Line == r.Line {
			continue
		}
		return Point{Row: i, Cell: r.cellFor(offset)}, true
	}
	return Point{}, false
}

// OffsetAt maps a visual point back to the offset whose cluster covers it.
// Points past the row end snap to the row end; rows out of range clamp.
func (l *Layout) OffsetAt(p Point) int {
	if len(l.rows) == 0 {
		return 0
	}
	row := min(max(p.Row, 0), len(l.rows)-1)
	r := l.rows[row]
	cell := r.StartCell + max(p.Cell, 0)
	for _, t := range r.Tokens {
		if cell < t.StartCell+t.Width {
			return t.RuneStart
		}
	}
	return r.RuneEnd
}

// Rects returns one rect per visual row touched by [start, end).
// Empty or out-of-range spans yield nil.
func (l *Layout) Rects(start, end int) []Rect {
	start = max(start, 0)
	end = min(end, l.size)
	if end <= start {
		return nil
	}
	var out []Rect
	for i, r := range l.rows {
		if r.RuneEnd <= start {
			continue
		}
		if r.RuneStart >= end {
			break
		}
		from, to := -1, 0
		for _, t := range r.Tokens {
			if t.RuneEnd <= start || t.RuneStart >= end {
				continue
			}
			if from < 0 {
				from = t.StartCell - r.StartCell
			}
			to = t.StartCell - r.StartCell + t.Width
		}
		if from < 0 {
			continue
		}
		out = append(out, Rect{Row: i, Cell: from, Width: to - from})
	}
	return out
}

func (r Row) cellFor(offset int) int {
	for _, t := range r.Tokens {
		if offset < t.RuneEnd {
			return t.StartCell - r.StartCell
		}
	}
	return r.Cells
}

func lineTokens(line string, base, tabWidth int) []Token {
	cs := grapheme.Clusters(line)
	out := make([]Token, 0, len(cs))
	cell := 0
	for _, c := range cs {
		text := c.Text
		w := CellWidth(text, cell, tabWidth)
		if text == "\t" {
			text = strings.Repeat(" ", w)
		}
		out = append(out, Token{
			Text:      text,
			RuneStart: base + c.RuneStart,
			RuneEnd:   base + c.RuneEnd,
			StartCell: cell,
			Width:     w,
		})
		cell += w
	}
	return out
}

// CellWidth is the terminal width of one cluster at visual column col.
// Zero-width clusters still occupy one cell so they stay addressable.
func CellWidth(cluster string, col, tabWidth int) int {
	if cluster == "\t" {
		if tabWidth <= 0 {
			tabWidth = 4
		}
		return tabWidth - col%tabWidth
	}
	w := runewidth.StringWidth(cluster)
	if w == 0 {
		w = uniseg.StringWidth(cluster)
	}
	return max(w, 1)
}

// StringWidth is the cell width of text laid out from column 0.
func StringWidth(text string, tabWidth int) int {
	cell := 0
	for _, c := range grapheme.Split(text) {
		cell += CellWidth(c, cell, tabWidth)
	}
	return cell
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
