package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/proofline/internal/grapheme"
	"github.com/iw2rmb/proofline/internal/layout"
)

const nbsp = "\u00a0"

func (m *Model) renderContent() string {
	if m.buf == nil {
		return ""
	}
	lay := m.ensureLayout()

	cursor := m.buf.CursorOffset()
	cursorPt, hasCursor := lay.Locate(cursor)
	hasCursor = hasCursor && m.focused

	selStart, selEnd := -1, -1
	if r, ok := m.buf.Selection(); ok {
		selStart, selEnd = m.buf.OffsetFromPos(r.Start), m.buf.OffsetFromPos(r.End)
	}

	digits := 0
	if m.cfg.ShowLineNums {
		digits = gutterDigits(m.buf.LineCount())
	}
	cursorLine := m.buf.Cursor().Row
	width := m.ContentWidth()

	rows := lay.Rows()
	out := make([]string, 0, len(rows))
	for i, row := range rows {
		var sb strings.Builder
		if m.cfg.ShowLineNums {
			first := i == 0 || rows[i-1].Line != row.Line
			numStyle := m.cfg.Style.LineNum
			if m.focused && row.Line == cursorLine && first {
				numStyle = m.cfg.Style.LineNumActive
			}
			num := fmt.Sprintf("%*s", digits, "")
			if first {
				num = fmt.Sprintf("%*d", digits, row.Line+1)
			}
			sb.WriteString(numStyle.Render(num))
			sb.WriteString(m.cfg.Style.Gutter.Render(" "))
		}

		rc := rowCursor{cell: -1}
		if hasCursor && cursorPt.Row == i {
			rc.cell = cursorPt.Cell
		}
		sb.WriteString(m.renderRow(i, row, rc, selStart, selEnd, width))
		out = append(out, sb.String())
	}
	return strings.Join(out, "\n")
}

type rowCursor struct {
	cell int // row-relative cell, -1 when the cursor is elsewhere
}

// renderRow renders one visual row. Style.cell picks each cell's style.
func (m *Model) renderRow(idx int, row layout.Row, rc rowCursor, selStart, selEnd, width int) string {
	st := m.cfg.Style

	toks := row.Tokens
	if width > 0 && m.cfg.WrapMode == layout.WrapNone {
		toks = clipTokens(row, width)
	}

	// The EOL placeholder cell falls off a full row; the last token takes
	// the cursor instead.
	eol := rc.cell >= 0 && rc.cell == row.Cells
	if eol && width > 0 && row.Cells >= width && len(toks) > 0 {
		rc.cell = toks[len(toks)-1].StartCell - row.StartCell
		eol = false
	}

	var sb strings.Builder
	for j, tok := range toks {
		cell := tok.StartCell - row.StartCell
		text := tok.Text
		cursor := rc.cell == cell
		if cursor && isSpaces(text) && trailingSpaces(toks[j:]) {
			// Terminals may elide trailing spaces; keep the cursor visible.
			text = strings.Repeat(nbsp, tok.Width)
		}
		deco, decorated := m.decoration(cell, idx)
		style := st.cell(cursor, tok.RuneStart < selEnd && tok.RuneEnd > selStart, deco, decorated)
		sb.WriteString(style.Render(text))
	}
	if eol {
		sb.WriteString(st.Cursor.Render(" "))
	}
	return sb.String()
}

func (m *Model) decoration(cell, row int) (lipgloss.Style, bool) {
	if m.cfg.Decorator == nil {
		return lipgloss.Style{}, false
	}
	return m.cfg.Decorator.CellStyle(cell, row)
}

// clipTokens keeps the tokens that fit entirely within width cells.
func clipTokens(row layout.Row, width int) []layout.Token {
	for i, tok := range row.Tokens {
		if tok.StartCell-row.StartCell+tok.Width > width {
			return row.Tokens[:i]
		}
	}
	return row.Tokens
}

func isSpaces(s string) bool {
	return s != "" && grapheme.IsSpace(s)
}

func trailingSpaces(toks []layout.Token) bool {
	for _, tok := range toks {
		if !isSpaces(tok.Text) {
			return false
		}
	}
	return true
}

func gutterDigits(lineCount int) int {
	return len(fmt.Sprint(max(lineCount, 1)))
}

func (m Model) gutterWidth() int {
	if !m.cfg.ShowLineNums || m.buf == nil {
		return 0
	}
	return gutterDigits(m.buf.LineCount()) + 1
}
