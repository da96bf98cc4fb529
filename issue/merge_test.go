package issue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_OrderAndTotals(t *testing.T) {
	grammar := []GrammarMatch{
		{Offset: 10, Length: 2, Message: "g2", Replacements: []Replacement{{Value: "x"}}},
		{Offset: 0, Length: 4, Message: "g1"},
	}
	tone := []LintFinding{{Offset: 0, Length: 4, Text: "very", Message: "t1"}}
	term := []LintFinding{{Offset: 5, Length: 5, Text: "gonna", Message: "tm1", Suggestions: []string{"going to"}}}

	m := &Merger{IDs: SequentialIDs("i")}
	got := m.Merge(grammar, tone, term)
	require.Len(t, got, 4)

	var msgs []string
	for _, is := range got {
		msgs = append(msgs, is.Message)
	}
	assert.Equal(t, []string{"g1", "g2", "t1", "tm1"}, msgs)

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		ordered := prev.Priority < cur.Priority || (prev.Priority == cur.Priority && prev.Offset <= cur.Offset)
		assert.True(t, ordered, "issue %d out of order", i)
	}
}

func TestMerge_Deterministic(t *testing.T) {
	tone := []LintFinding{{Offset: 3, Length: 1}, {Offset: 3, Length: 2}, {Offset: 1, Length: 1}}
	a := (&Merger{IDs: SequentialIDs("a")}).Merge(nil, tone, nil)
	b := (&Merger{IDs: SequentialIDs("a")}).Merge(nil, tone, nil)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, a[0].Offset)
	assert.Equal(t, 1, a[1].Length, "ties keep input order")
	assert.Equal(t, 2, a[2].Length)
}

func TestMerge_AbsentArraysAndEmptySuggestions(t *testing.T) {
	got := (&Merger{}).Merge(nil, nil, []LintFinding{{Offset: 0, Length: 1, Text: "x"}})
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Replacements)
	assert.Empty(t, got[0].Replacements)
	assert.Equal(t, "issue-1", got[0].ID)

	g := (&Merger{}).Merge([]GrammarMatch{{Replacements: []Replacement{{Value: " "}, {Value: "ok"}}}}, nil, nil)
	assert.Equal(t, []string{"ok"}, g[0].Replacements)
}

func TestMerge_OverlappingSourcesKeptDistinct(t *testing.T) {
	grammar := []GrammarMatch{{Offset: 0, Length: 4, Message: "grammar"}}
	tone := []LintFinding{{Offset: 0, Length: 4, Message: "tone"}}

	got := (&Merger{}).Merge(grammar, tone, nil)
	require.Len(t, got, 2)
	assert.Equal(t, KindGrammar, got[0].Kind)
	assert.Equal(t, KindTone, got[1].Kind)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestMerge_DropOverlaps(t *testing.T) {
	grammar := []GrammarMatch{{Offset: 0, Length: 4}}
	tone := []LintFinding{{Offset: 2, Length: 4}, {Offset: 8, Length: 2}}

	got := (&Merger{Overlap: DropOverlaps}).Merge(grammar, tone, nil)
	require.Len(t, got, 2)
	assert.Equal(t, KindGrammar, got[0].Kind)
	assert.Equal(t, 8, got[1].Offset)
}

func TestMerge_GrammarAnchorFromContext(t *testing.T) {
	g := GrammarMatch{
		Offset:  20,
		Length:  3,
		Context: MatchContext{Text: "...said teh cat...", Offset: 8, Length: 3},
	}
	got := (&Merger{}).Merge([]GrammarMatch{g}, nil, nil)
	assert.Equal(t, "teh", got[0].SnapshotText)
	assert.Equal(t, SourceLanguageTool, got[0].Source)
}

func TestMergeSnapshot_AnchorFromSnapshotClamped(t *testing.T) {
	text := "I am gonna go"
	term := []LintFinding{
		{Offset: 5, Length: 5, Text: "stale", Suggestions: []string{"going to"}},
		{Offset: 11, Length: 9},
	}
	got := (&Merger{}).MergeSnapshot(text, nil, nil, term)
	require.Len(t, got, 2)
	assert.Equal(t, "gonna", got[0].SnapshotText)
	assert.Equal(t, "go", got[1].SnapshotText)
}

func TestMerge_CustomPriorities(t *testing.T) {
	m := &Merger{Priorities: map[Kind]int{KindTerminology: -1}}
	got := m.Merge([]GrammarMatch{{Offset: 0}}, nil, []LintFinding{{Offset: 9}})
	assert.Equal(t, KindTerminology, got[0].Kind)
}

func TestRandomIDs_Unique(t *testing.T) {
	ids := RandomIDs()
	assert.NotEqual(t, ids.NextID(), ids.NextID())
}

func TestMerge_ZeroMergerConcurrent(t *testing.T) {
	var m Merger
	tone := []LintFinding{{Offset: 0, Length: 1}, {Offset: 2, Length: 1}}

	const workers = 8
	results := make([][]Issue, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.Merge(nil, tone, nil)
		}()
	}
	wg.Wait()

	assert.Nil(t, m.IDs)
	seen := map[string]bool{}
	for _, got := range results {
		require.Len(t, got, 2)
		for _, is := range got {
			assert.False(t, seen[is.ID], "duplicate id %s", is.ID)
			seen[is.ID] = true
		}
	}
}
