package tui

import (
	"unicode/utf8"

	"github.com/iw2rmb/proofline/buffer"
	"github.com/iw2rmb/proofline/issue"
)

// rebase moves issues through a sequence of text edits. Issues after an
// edit shift by its delta; issues touching an edit are dropped until the
// next analysis pass.
func rebase(issues []issue.Issue, edits []buffer.AppliedEdit) []issue.Issue {
	if len(edits) == 0 {
		return issues
	}
	out := make([]issue.Issue, 0, len(issues))
	for _, is := range issues {
		kept := true
		for _, e := range edits {
			end := e.Offset + utf8.RuneCountInString(e.Removed)
			switch {
			case is.End() < e.Offset:
			case is.Offset > end:
				is.Offset += e.Delta()
			default:
				kept = false
			}
			if !kept {
				break
			}
		}
		if kept {
			out = append(out, is)
		}
	}
	return out
}
