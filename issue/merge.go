package issue

import (
	"cmp"
	"slices"
	"strings"
)

// OverlapPolicy decides what happens to issues whose spans intersect.
type OverlapPolicy int

const (
	// KeepOverlaps preserves every issue. Output length is the sum of the
	// input lengths.
	KeepOverlaps OverlapPolicy = iota
	// DropOverlaps keeps only the first issue, in sort order, of every group
	// of overlapping spans.
	DropOverlaps
)

const (
	SourceLanguageTool = "languagetool"
	SourceHarper       = "harper"
)

// defaultIDs serves every Merger without its own generator, so ids stay
// unique across zero-value Mergers.
var defaultIDs = SequentialIDs("issue-")

// Merger turns native checker results into one ordered Issue list.
// The zero value is usable and safe for concurrent Merge calls: ids come from
// a shared SequentialIDs("issue-").
type Merger struct {
	IDs        IDGenerator
	Overlap    OverlapPolicy
	Priorities map[Kind]int
}

// Merge normalizes and orders the three arrays. Nil arrays are treated as
// empty. The output is sorted by (priority, offset) with ties kept in input
// order: grammar, then tone, then terminology.
func (m *Merger) Merge(grammar []GrammarMatch, tone, terminology []LintFinding) []Issue {
	return m.merge("", false, grammar, tone, terminology)
}

// MergeSnapshot is Merge with the anchor text taken from snapshot.
func (m *Merger) MergeSnapshot(snapshot string, grammar []GrammarMatch, tone, terminology []LintFinding) []Issue {
	return m.merge(snapshot, true, grammar, tone, terminology)
}

func (m *Merger) merge(snapshot string, haveSnapshot bool, grammar []GrammarMatch, tone, terminology []LintFinding) []Issue {
	ids := m.IDs
	if ids == nil {
		ids = defaultIDs
	}
	var snap []rune
	if haveSnapshot {
		snap = []rune(snapshot)
	}

	out := make([]Issue, 0, len(grammar)+len(tone)+len(terminology))
	for _, g := range grammar {
		out = append(out, m.fromGrammar(g))
	}
	for _, f := range tone {
		out = append(out, m.fromLint(KindTone, f))
	}
	for _, f := range terminology {
		out = append(out, m.fromLint(KindTerminology, f))
	}
	for i := range out {
		out[i].ID = ids.NextID()
		if haveSnapshot {
			out[i].SnapshotText = runeSlice(snap, out[i].Offset, out[i].End())
		}
	}

	slices.SortStableFunc(out, func(a, b Issue) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Offset, b.Offset)
	})

	if m.Overlap == DropOverlaps {
		out = dropOverlaps(out)
	}
	return out
}

func (m *Merger) priority(k Kind) int {
	if p, ok := m.Priorities[k]; ok {
		return p
	}
	return k.Priority()
}

func (m *Merger) fromGrammar(g GrammarMatch) Issue {
	msg := g.Message
	if msg == "" {
		msg = g.ShortMessage
	}
	reps := make([]string, 0, len(g.Replacements))
	for _, r := range g.Replacements {
		reps = appendSuggestion(reps, r.Value)
	}
	return Issue{
		Kind:         KindGrammar,
		Priority:     m.priority(KindGrammar),
		Source:       SourceLanguageTool,
		Rule:         g.Rule,
		Message:      msg,
		Offset:       max(g.Offset, 0),
		Length:       max(g.Length, 0),
		SnapshotText: contextAnchor(g.Context),
		Context:      g.Context.Text,
		Replacements: reps,
	}
}

func (m *Merger) fromLint(kind Kind, f LintFinding) Issue {
	reps := make([]string, 0, len(f.Suggestions))
	for _, s := range f.Suggestions {
		reps = appendSuggestion(reps, s)
	}
	return Issue{
		Kind:         kind,
		Priority:     m.priority(kind),
		Source:       SourceHarper,
		Rule:         f.Rule,
		Message:      f.Message,
		Offset:       max(f.Offset, 0),
		Length:       max(f.Length, 0),
		SnapshotText: f.Text,
		Replacements: reps,
	}
}

func appendSuggestion(out []string, s string) []string {
	if strings.TrimSpace(s) == "" {
		return out
	}
	return append(out, s)
}

func contextAnchor(c MatchContext) string {
	return runeSlice([]rune(c.Text), c.Offset, c.Offset+c.Length)
}

func runeSlice(rs []rune, start, end int) string {
	start = min(max(start, 0), len(rs))
	end = min(max(end, start), len(rs))
	return string(rs[start:end])
}

func dropOverlaps(in []Issue) []Issue {
	out := in[:0:0]
	for _, is := range in {
		if slices.ContainsFunc(out, is.Overlaps) {
			continue
		}
		out = append(out, is)
	}
	return out
}
