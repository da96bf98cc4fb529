package panel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

type learnerFunc func(ctx context.Context, word string) error

func (f learnerFunc) LearnWord(ctx context.Context, word string) error { return f(ctx, word) }

func threeIssues() []issue.Issue {
	return []issue.Issue{
		{ID: "a", Kind: issue.KindGrammar, Offset: 0, Length: 3, SnapshotText: "Teh", Replacements: []string{"The"}},
		{ID: "b", Kind: issue.KindTone, Offset: 4, Length: 4, SnapshotText: "very", Replacements: []string{""}},
		{ID: "c", Kind: issue.KindTerminology, Offset: 9, Length: 5, SnapshotText: "gonna", Replacements: []string{"going to"}},
	}
}

func TestController_InitialHidden(t *testing.T) {
	c := NewController(Options{})
	assert.Equal(t, StateHidden, c.State())
	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.Next())
}

func TestController_BoundsAreNoOps(t *testing.T) {
	c := NewController(Options{})
	c.Reset(nil, threeIssues())
	require.True(t, c.DisplayIssue("c"))
	assert.Equal(t, 2, c.Index())

	assert.False(t, c.Next())
	assert.Equal(t, 2, c.Index())

	require.True(t, c.Previous())
	require.True(t, c.Previous())
	assert.False(t, c.Previous())
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, "1 / 3", c.Status())
}

func TestController_DisplayUnknown(t *testing.T) {
	c := NewController(Options{})
	c.Reset(nil, threeIssues())
	assert.False(t, c.DisplayIssue("zz"))
	assert.Equal(t, StateHidden, c.State())
}

func TestController_DismissOne(t *testing.T) {
	var removed []string
	c := NewController(Options{OnRemove: func(ids ...string) { removed = append(removed, ids...) }})
	c.Reset(nil, threeIssues())
	c.DisplayIssue("c")

	id, ok := c.DismissOne()
	require.True(t, ok)
	assert.Equal(t, "c", id)
	cur, _ := c.Current()
	assert.Equal(t, "b", cur.ID, "last issue dismissed shows the new last")

	c.DismissOne()
	c.DismissOne()
	assert.Equal(t, StateHidden, c.State())
	assert.Equal(t, []string{"c", "b", "a"}, removed)
	assert.Empty(t, c.Status())
}

func TestController_DismissAll(t *testing.T) {
	c := NewController(Options{})
	c.Reset(nil, threeIssues())
	c.DisplayIssue("a")
	assert.Equal(t, []string{"a", "b", "c"}, c.DismissAll())
	assert.Equal(t, StateHidden, c.State())
	assert.Zero(t, c.Len())
}

func TestController_ResetKeepsShownState(t *testing.T) {
	c := NewController(Options{})
	c.Reset(nil, threeIssues())
	c.DisplayIssue("c")

	c.Reset(nil, threeIssues()[:1])
	assert.Equal(t, StateShown, c.State())
	assert.Equal(t, 0, c.Index())

	c.Reset(nil, nil)
	assert.Equal(t, StateHidden, c.State())

	c.Reset(nil, threeIssues())
	assert.Equal(t, StateHidden, c.State(), "hidden panel stays hidden")
}

func TestController_Suggestions(t *testing.T) {
	c := NewController(Options{})
	many := threeIssues()
	many[0].Replacements = []string{"1", " ", "2", "3", "4", "5", "6"}
	c.Reset(nil, many)
	c.DisplayIssue("a")
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, c.Suggestions())

	c.Next()
	assert.Empty(t, c.Suggestions())
}

func TestController_ApplyChosen(t *testing.T) {
	f := textsource.NewPlainField("f", "Teh very gonna")
	var removed []string
	c := NewController(Options{OnRemove: func(ids ...string) { removed = append(removed, ids...) }})
	c.Reset(f, threeIssues())
	c.DisplayIssue("a")

	res := c.ApplyChosen(context.Background(), "The")
	require.True(t, res.Success)
	assert.Equal(t, "The very gonna", res.NewText)
	assert.Equal(t, []string{"a"}, removed)
	cur, _ := c.Current()
	assert.Equal(t, "b", cur.ID)
}

func TestController_ApplyChosenFailureKeepsIssue(t *testing.T) {
	f := textsource.NewPlainField("f", "nothing matches")
	c := NewController(Options{})
	c.Reset(f, threeIssues())
	c.DisplayIssue("a")

	res := c.ApplyChosen(context.Background(), "The")
	assert.False(t, res.Success)
	assert.Equal(t, 3, c.Len())
	text, _ := f.Text(context.Background())
	assert.Equal(t, "nothing matches", text)
}

func TestController_ApplyHidden(t *testing.T) {
	c := NewController(Options{})
	res := c.ApplyChosen(context.Background(), "x")
	assert.ErrorIs(t, res.Err, ErrNoIssue)
}

func TestController_AddToDictionary(t *testing.T) {
	var learned string
	c := NewController(Options{Learner: learnerFunc(func(_ context.Context, w string) error {
		learned = w
		return nil
	})})
	issues := threeIssues()
	issues = append(issues, issue.Issue{ID: "d", Offset: 20, Length: 3, SnapshotText: "teh"})
	c.Reset(nil, issues)
	c.DisplayIssue("a")

	word, err := c.AddToDictionary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Teh", word)
	assert.Equal(t, "Teh", learned)
	assert.Equal(t, 2, c.Len())
	_, _, found := c.Issues().Find("d")
	assert.False(t, found)
}

func TestController_AddToDictionaryError(t *testing.T) {
	c := NewController(Options{Learner: learnerFunc(func(context.Context, string) error {
		return errors.New("store down")
	})})
	c.Reset(nil, threeIssues())
	c.DisplayIssue("a")
	_, err := c.AddToDictionary(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 3, c.Len())
}
