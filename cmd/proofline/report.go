package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/iw2rmb/proofline/apply"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

var (
	kindColors = map[issue.Kind]*color.Color{
		issue.KindGrammar:     color.New(color.FgRed, color.Bold),
		issue.KindTone:        color.New(color.FgYellow, color.Bold),
		issue.KindTerminology: color.New(color.FgCyan, color.Bold),
	}
	locationColor   = color.New(color.Bold)
	suggestionColor = color.New(color.FgGreen)
	dimColor        = color.New(color.Faint)
)

// position is a 1-based line and column, counted in runes.
type position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func positionAt(text string, offset int) position {
	pos := position{Line: 1, Column: 1}
	i := 0
	for _, r := range text {
		if i == offset {
			break
		}
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
		i++
	}
	return pos
}

type jsonIssue struct {
	issue.Issue
	Position position `json:"position"`
}

type jsonReport struct {
	Name    string      `json:"name"`
	Issues  []jsonIssue `json:"issues"`
	Fixed   *string     `json:"fixed,omitempty"`
	Applied int         `json:"applied,omitempty"`
}

func writeJSON(w io.Writer, name, text string, issues []issue.Issue, fix *fixResult) error {
	rep := jsonReport{Name: name, Issues: make([]jsonIssue, 0, len(issues))}
	for _, is := range issues {
		rep.Issues = append(rep.Issues, jsonIssue{Issue: is, Position: positionAt(text, is.Offset)})
	}
	if fix != nil {
		rep.Fixed = &fix.Text
		rep.Applied = fix.Applied
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// writeReport prints one block per issue followed by a summary line.
func writeReport(w io.Writer, name, text string, issues []issue.Issue) {
	for _, is := range issues {
		pos := positionAt(text, is.Offset)
		kc, ok := kindColors[is.Kind]
		if !ok {
			kc = color.New(color.Bold)
		}
		locationColor.Fprintf(w, "%s:%d:%d: ", name, pos.Line, pos.Column)
		kc.Fprintf(w, "%s", is.Kind)
		fmt.Fprintf(w, ": %s", is.Message)
		if is.Rule != "" {
			dimColor.Fprintf(w, " [%s/%s]", is.Source, is.Rule)
		} else {
			dimColor.Fprintf(w, " [%s]", is.Source)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    %q", is.SnapshotText)
		if len(is.Replacements) > 0 {
			fmt.Fprint(w, " -> ")
			for i, r := range is.Replacements {
				if i > 0 {
					fmt.Fprint(w, ", ")
				}
				suggestionColor.Fprintf(w, "%q", r)
			}
		}
		fmt.Fprintln(w)
	}
	switch n := len(issues); n {
	case 0:
		fmt.Fprintf(w, "%s: no issues\n", name)
	case 1:
		locationColor.Fprintf(w, "%s: 1 issue\n", name)
	default:
		locationColor.Fprintf(w, "%s: %d issues\n", name, n)
	}
}

type fixResult struct {
	Text    string
	Applied int
	Failed  int
}

// fixAll applies the first replacement of every issue that has one, from
// the end of the text backwards so earlier offsets stay valid. Issues that
// overlap an already applied span are skipped.
func fixAll(ctx context.Context, a *apply.Applier, src textsource.Source, issues []issue.Issue) (fixResult, error) {
	ordered := append([]issue.Issue(nil), issues...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Offset > ordered[j].Offset })

	var res fixResult
	limit := -1
	for _, is := range ordered {
		if len(is.Replacements) == 0 {
			continue
		}
		if limit >= 0 && is.End() > limit {
			continue
		}
		out := a.Apply(ctx, src, is, is.Replacements[0])
		if !out.Success {
			res.Failed++
			continue
		}
		res.Applied++
		limit = out.Offset
	}
	text, err := src.Text(ctx)
	if err != nil {
		return res, err
	}
	res.Text = text
	return res, nil
}
