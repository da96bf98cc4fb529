package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iw2rmb/proofline/checker"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

func grammarAt(offset, length int, rep string) issue.GrammarMatch {
	return issue.GrammarMatch{
		Offset:       offset,
		Length:       length,
		Message:      "grammar",
		Replacements: []issue.Replacement{{Value: rep}},
	}
}

func lintAt(offset, length int, text, sug string) issue.LintFinding {
	return issue.LintFinding{Offset: offset, Length: length, Text: text, Suggestions: []string{sug}}
}

func fixed(name string, res checker.Results) checker.Checker {
	return checker.Func{ID: name, Fn: func(context.Context, string) (checker.Results, error) {
		return res, nil
	}}
}

type recordSink struct {
	mu    sync.Mutex
	calls [][]issue.Issue
	ids   []string
}

func (r *recordSink) OnResults(t ActiveTarget, issues []issue.Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, issues)
	r.ids = append(r.ids, t.ID())
}

func (r *recordSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordSink) last() []issue.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func TestAnalyzeNowMergesAndDelivers(t *testing.T) {
	sink := &recordSink{}
	o := New(Options{
		Checkers: []checker.Checker{
			fixed("harper", checker.Results{
				Tone: []issue.LintFinding{lintAt(0, 4, "Very", "Quite")},
			}),
			fixed("languagetool", checker.Results{
				Grammar: []issue.GrammarMatch{grammarAt(0, 4, "Vary")},
			}),
		},
		Sink: sink,
	})
	src := textsource.NewPlainField("f1", "Very nice text")

	issues, err := o.AnalyzeNow(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, issue.KindGrammar, issues[0].Kind)
	assert.Equal(t, issue.KindTone, issues[1].Kind)
	assert.Equal(t, "Very", issues[0].SnapshotText)

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, []string{"f1"}, sink.ids)
	assert.Len(t, o.Issues(), 2)
	assert.Equal(t, "Very nice text", o.Session().Target().Snapshot.Text)
}

func TestScenarioInformalWord(t *testing.T) {
	o := New(Options{Checkers: []checker.Checker{
		fixed("harper", checker.Results{
			Terminology: []issue.LintFinding{lintAt(5, 5, "gonna", "going to")},
		}),
	}})
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "I am gonna go"))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindTerminology, issues[0].Kind)
	assert.Equal(t, []string{"going to"}, issues[0].Replacements)
}

func TestFailingCheckerYieldsPartialResults(t *testing.T) {
	failing := checker.Func{ID: "languagetool", Fn: func(context.Context, string) (checker.Results, error) {
		return checker.Results{}, errors.New("connection refused")
	}}
	o := New(Options{Checkers: []checker.Checker{
		failing,
		fixed("harper", checker.Results{Tone: []issue.LintFinding{lintAt(0, 4, "Very", "x")}}),
	}})
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "Very nice text"))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindTone, issues[0].Kind)
}

func TestSlowCheckerIsTimedOut(t *testing.T) {
	slow := checker.Func{ID: "languagetool", Fn: func(ctx context.Context, _ string) (checker.Results, error) {
		<-ctx.Done()
		return checker.Results{}, ctx.Err()
	}}
	o := New(Options{
		Timeout: 30 * time.Millisecond,
		Checkers: []checker.Checker{
			slow,
			fixed("harper", checker.Results{Tone: []issue.LintFinding{lintAt(0, 4, "Very", "x")}}),
		},
	})
	start := time.Now()
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "Very nice text"))
	require.NoError(t, err)
	assert.Len(t, issues, 1)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCheckerIgnoringContextIsTimedOut(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stuck := checker.Func{ID: "harper", Fn: func(context.Context, string) (checker.Results, error) {
		<-release
		return checker.Results{}, nil
	}}
	o := New(Options{
		Timeout: 30 * time.Millisecond,
		Checkers: []checker.Checker{
			stuck,
			fixed("languagetool", checker.Results{Grammar: []issue.GrammarMatch{grammarAt(0, 4, "Vary")}}),
		},
	})
	start := time.Now()
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "Very nice text"))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindGrammar, issues[0].Kind)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAllCheckersDownGivesEmptyList(t *testing.T) {
	down := checker.Func{ID: "x", Fn: func(context.Context, string) (checker.Results, error) {
		return checker.Results{}, errors.New("down")
	}}
	o := New(Options{Checkers: []checker.Checker{down}})
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "Some longer text"))
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestShortTextIsNotSent(t *testing.T) {
	var calls atomic.Int32
	c := checker.Func{ID: "c", Fn: func(context.Context, string) (checker.Results, error) {
		calls.Add(1)
		return checker.Results{}, nil
	}}
	o := New(Options{Checkers: []checker.Checker{c}})
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", " a b  c d "))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, int32(0), calls.Load())
}

func TestLastRequestWins(t *testing.T) {
	sink := &recordSink{}
	o := New(Options{
		Checkers: []checker.Checker{checker.Func{ID: "echo", Fn: func(_ context.Context, text string) (checker.Results, error) {
			return checker.Results{Tone: []issue.LintFinding{lintAt(0, 3, text[:3], "x")}}, nil
		}}},
		Sink: sink,
	})
	src := textsource.NewPlainField("f", "first text")
	s := o.Session()

	v1 := s.Begin(src)
	snap1 := textsource.Snapshot{SourceID: "f", Text: "old text here", Version: v1}
	v2 := s.Begin(src)
	snap2 := textsource.Snapshot{SourceID: "f", Text: "new text here", Version: v2}

	_, err := o.AnalyzeSnapshot(context.Background(), snap2)
	require.NoError(t, err)
	_, err = o.AnalyzeSnapshot(context.Background(), snap1)
	require.ErrorIs(t, err, ErrStale)

	require.Len(t, o.Issues(), 1)
	assert.Equal(t, "new", o.Issues()[0].SnapshotText)
	assert.Equal(t, 1, sink.count())
}

func TestFocusChangeInvalidatesPass(t *testing.T) {
	o := New(Options{Checkers: []checker.Checker{fixed("c", checker.Results{})}})
	a := textsource.NewPlainField("a", "alpha text")
	b := textsource.NewPlainField("b", "beta text")

	v := o.Session().Begin(a)
	o.Focus(b)
	_, err := o.AnalyzeSnapshot(context.Background(), textsource.Snapshot{SourceID: "a", Text: "alpha text", Version: v})
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, "b", o.Session().Target().ID())
}

func TestInputIsDebounced(t *testing.T) {
	var calls atomic.Int32
	c := checker.Func{ID: "c", Fn: func(context.Context, string) (checker.Results, error) {
		calls.Add(1)
		return checker.Results{}, nil
	}}
	sink := &recordSink{}
	o := New(Options{Checkers: []checker.Checker{c}, Debounce: 40 * time.Millisecond, Sink: sink})
	src := textsource.NewPlainField("f", "typing some text")

	for range 5 {
		o.Input(src)
		time.Sleep(5 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEagerFocus(t *testing.T) {
	sink := &recordSink{}
	o := New(Options{
		Eager:    true,
		Checkers: []checker.Checker{fixed("c", checker.Results{Tone: []issue.LintFinding{lintAt(0, 4, "Some", "x")}})},
		Sink:     sink,
	})
	o.Focus(textsource.NewPlainField("f", "Some existing text"))
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, sink.last(), 1)
}

func TestToggle(t *testing.T) {
	sink := &recordSink{}
	o := New(Options{
		Checkers: []checker.Checker{fixed("c", checker.Results{Tone: []issue.LintFinding{lintAt(0, 4, "Some", "x")}})},
		Sink:     sink,
	})
	src := textsource.NewPlainField("f", "Some existing text")
	_, err := o.AnalyzeNow(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, o.Issues(), 1)

	assert.False(t, o.Toggle())
	assert.Empty(t, o.Issues())
	assert.Empty(t, sink.last())
	_, err = o.AnalyzeNow(context.Background(), src)
	assert.ErrorIs(t, err, ErrDisabled)

	assert.True(t, o.Toggle())
	_, err = o.AnalyzeNow(context.Background(), src)
	require.NoError(t, err)
}

func TestRemoveDropsExactlyOne(t *testing.T) {
	o := New(Options{Checkers: []checker.Checker{fixed("c", checker.Results{
		Tone: []issue.LintFinding{lintAt(0, 4, "Some", "x"), lintAt(5, 8, "existing", "y")},
	})}})
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "Some existing text"))
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.True(t, o.Remove(issues[0].ID))
	assert.False(t, o.Remove(issues[0].ID))
	require.Len(t, o.Issues(), 1)
	assert.Equal(t, issues[1].ID, o.Issues()[0].ID)
}

func TestCheckerAndKindToggles(t *testing.T) {
	var ltCalls atomic.Int32
	lt := checker.Func{ID: "languagetool", Fn: func(context.Context, string) (checker.Results, error) {
		ltCalls.Add(1)
		return checker.Results{Grammar: []issue.GrammarMatch{grammarAt(0, 4, "x")}}, nil
	}}
	harper := fixed("harper", checker.Results{
		Tone:        []issue.LintFinding{lintAt(0, 4, "Some", "x")},
		Terminology: []issue.LintFinding{lintAt(5, 8, "existing", "y")},
	})
	o := New(Options{Checkers: []checker.Checker{lt, harper}})
	o.Session().SetChecker("languagetool", false)
	o.Session().SetKind(issue.KindTone, false)

	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "Some existing text"))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindTerminology, issues[0].Kind)
	assert.Equal(t, int32(0), ltCalls.Load())
}

type words map[string]bool

func (w words) Contains(s string) bool { return w[s] }

func TestLearnedWordsAreFiltered(t *testing.T) {
	o := New(Options{
		Words: words{"Kubernetes": true},
		Checkers: []checker.Checker{fixed("lt", checker.Results{
			Grammar: []issue.GrammarMatch{
				{Offset: 0, Length: 10, Message: "spelling", Context: issue.MatchContext{Text: "Kubernetes runs", Offset: 0, Length: 10}},
				{Offset: 11, Length: 4, Message: "verb", Context: issue.MatchContext{Text: "Kubernetes runs", Offset: 11, Length: 4}},
			},
		})},
	})
	issues, err := o.AnalyzeNow(context.Background(), textsource.NewPlainField("f", "Kubernetes runs"))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "runs", issues[0].SnapshotText)
}

func TestFullDocumentShiftsOffsets(t *testing.T) {
	c := checker.Func{ID: "harper", Fn: func(_ context.Context, text string) (checker.Results, error) {
		if text == "second block here" {
			return checker.Results{Tone: []issue.LintFinding{lintAt(7, 5, "block", "x")}}, nil
		}
		return checker.Results{}, nil
	}}
	o := New(Options{Checkers: []checker.Checker{c}})
	doc, issues, err := o.FullDocument(context.Background(), []string{"first block", "second block here", "tiny"})
	require.NoError(t, err)
	assert.Equal(t, "first block\nsecond block here\ntiny", doc)
	require.Len(t, issues, 1)
	assert.Equal(t, 19, issues[0].Offset)
	assert.Equal(t, "block", issues[0].SnapshotText)
	assert.Empty(t, o.Issues())
}
