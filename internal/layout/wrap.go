package layout

import "github.com/iw2rmb/proofline/internal/grapheme"

func wrapRows(line, start, end int, toks []Token, opt Options) []Row {
	if len(toks) == 0 {
		return []Row{{Line: line, RuneStart: start, RuneEnd: end}}
	}
	if opt.Width <= 0 || opt.Wrap == WrapNone {
		return []Row{rowFromTokens(line, toks)}
	}

	var rows []Row
	for from := 0; from < len(toks); {
		used := 0
		overflow := from
		for overflow < len(toks) {
			w := toks[overflow].Width
			if used > 0 && used+w > opt.Width {
				break
			}
			used += w
			overflow++
		}

		to := overflow
		if opt.Wrap == WrapWord && overflow < len(toks) {
			if br, ok := wordBreak(toks, from, overflow); ok {
				to = br
			} else {
				to = punctBreak(toks, from, overflow)
			}
		}
		if to <= from {
			to = from + 1
		}
		rows = append(rows, rowFromTokens(line, toks[from:to]))
		from = to
	}
	return rows
}

func rowFromTokens(line int, toks []Token) Row {
	first, last := toks[0], toks[len(toks)-1]
	return Row{
		Line:      line,
		RuneStart: first.RuneStart,
		RuneEnd:   last.RuneEnd,
		StartCell: first.StartCell,
		Cells:     last.StartCell + last.Width - first.StartCell,
		Tokens:    toks,
	}
}

// wordBreak returns the index after the last whitespace run in [from, overflow).
func wordBreak(toks []Token, from, overflow int) (int, bool) {
	last := -1
	for i := from; i < overflow; i++ {
		if grapheme.IsSpace(toks[i].Text) {
			last = i + 1
		}
	}
	if last <= from {
		return 0, false
	}
	return last, true
}

// punctBreak keeps a leading punctuation run with the previous cluster.
func punctBreak(toks []Token, from, overflow int) int {
	i := overflow
	for i > from+1 && grapheme.IsPunct(toks[i].Text) {
		i--
	}
	if i == overflow || i <= from {
		return overflow
	}
	return i
}
