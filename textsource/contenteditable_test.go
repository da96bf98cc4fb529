package textsource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestContentEditable_Flatten(t *testing.T) {
	c, err := ParseContentEditable("ce", "<p>Hello <b>big</b> world</p><p>second<br>line</p>", Box{Width: 40})
	require.NoError(t, err)

	text, err := c.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello big world\nsecond\nline", text)

	nodes := c.TextNodes()
	require.Len(t, nodes, 5)
	assert.Equal(t, 6, nodes[1].Start)
	assert.Equal(t, "big", nodes[1].Node.Data)
	assert.Equal(t, 16, nodes[3].Start)
	assert.True(t, c.Editable())
}

func TestContentEditable_ReplaceAcrossNodes(t *testing.T) {
	c, err := ParseContentEditable("ce", "<p>Helo <b>wrld</b></p>", Box{})
	require.NoError(t, err)

	var synthetic bool
	c.Subscribe(func(ev InputEvent) { synthetic = ev.Synthetic })

	rep, err := c.Replace(context.Background(), 2, 4, "llo, w")
	require.NoError(t, err)
	assert.Equal(t, "lo w", rep.Removed)
	assert.Equal(t, "Hello, wrld", rep.NewText)
	assert.Equal(t, "<p>Hello, w<b>rld</b></p>", c.InnerHTML())
	assert.True(t, synthetic)
}

func TestContentEditable_ReplaceWithinNode(t *testing.T) {
	c, err := ParseContentEditable("ce", "I am <i>gonna</i> go", Box{})
	require.NoError(t, err)
	_, err = c.Replace(context.Background(), 5, 5, "going to")
	require.NoError(t, err)
	assert.Equal(t, "I am <i>going to</i> go", c.InnerHTML())
}

func TestContentEditable_ReplaceOutOfRange(t *testing.T) {
	c, err := ParseContentEditable("ce", "<p>a</p><p>b</p>", Box{})
	require.NoError(t, err)

	_, err = c.Replace(context.Background(), 1, 5, "x")
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = c.Replace(context.Background(), 1, 1, "x")
	assert.ErrorIs(t, err, ErrOutOfRange, "virtual line break is not editable")
	assert.Equal(t, "<p>a</p><p>b</p>", c.InnerHTML())
}

func TestContentEditable_ReplaceAcrossElementBreakFails(t *testing.T) {
	cases := []struct {
		name   string
		html   string
		offset int
		length int
	}{
		{name: "block boundary", html: "<p>foo</p><p>bar</p>", offset: 2, length: 3},
		{name: "br", html: "foo<br>bar", offset: 2, length: 3},
		{name: "trailing break", html: "<p>foo</p><p>bar</p>", offset: 3, length: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseContentEditable("ce", tc.html, Box{})
			require.NoError(t, err)
			before := c.InnerHTML()
			var events int
			c.Subscribe(func(InputEvent) { events++ })

			_, err = c.Replace(context.Background(), tc.offset, tc.length, "X")
			assert.ErrorIs(t, err, ErrOutOfRange)
			assert.Equal(t, before, c.InnerHTML())
			assert.Zero(t, events)
		})
	}
}

func TestContentEditable_ReplaceUpToElementBreak(t *testing.T) {
	c, err := ParseContentEditable("ce", "<p>foo</p><p>bar</p>", Box{})
	require.NoError(t, err)

	rep, err := c.Replace(context.Background(), 2, 1, "X")
	require.NoError(t, err)
	assert.Equal(t, "foX\nbar", rep.NewText)

	rep, err = c.Replace(context.Background(), 4, 2, "Y")
	require.NoError(t, err)
	assert.Equal(t, "foX\nYr", rep.NewText)
	assert.Equal(t, "<p>foX</p><p>Yr</p>", c.InnerHTML())
}

func TestContentEditable_EmptyElementInsert(t *testing.T) {
	c, err := ParseContentEditable("ce", "", Box{})
	require.NoError(t, err)
	_, err = c.Replace(context.Background(), 0, 0, "hi")
	require.NoError(t, err)
	text, _ := c.Text(context.Background())
	assert.Equal(t, "hi", text)
}

func TestContentEditable_MutateInvalidatesCache(t *testing.T) {
	c, err := ParseContentEditable("ce", "<p>one</p>", Box{})
	require.NoError(t, err)
	_, _ = c.Text(context.Background())

	var user bool
	c.Subscribe(func(ev InputEvent) { user = !ev.Synthetic })
	c.Mutate(func(root *html.Node) {
		root.FirstChild.FirstChild.Data = "two"
	})
	text, _ := c.Text(context.Background())
	assert.Equal(t, "two", text)
	assert.True(t, user)
}
