package panel

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iw2rmb/proofline/textsource"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_HiddenIgnoresKeys(t *testing.T) {
	m := NewModel(NewController(Options{}))
	_, cmd, handled := m.Update(keyMsg("enter"))
	assert.False(t, handled)
	assert.Nil(t, cmd)
	assert.Empty(t, m.View())
}

func TestModel_ApplyKey(t *testing.T) {
	f := textsource.NewPlainField("f", "Teh very gonna")
	c := NewController(Options{})
	c.Reset(f, threeIssues())
	m := NewModel(c).Show("c")

	m, cmd, handled := m.Update(keyMsg("enter"))
	require.True(t, handled)
	require.NotNil(t, cmd)
	msg, ok := cmd().(AppliedMsg)
	require.True(t, ok)
	assert.True(t, msg.Result.Success)
	assert.Equal(t, "going to", msg.Replacement)
	text, _ := f.Text(context.Background())
	assert.Equal(t, "Teh very going to", text)
	assert.Equal(t, 2, m.Controller().Len())
}

func TestModel_NavigationAndDismiss(t *testing.T) {
	c := NewController(Options{})
	c.Reset(nil, threeIssues())
	m := NewModel(c).Show("a")

	m, _, _ = m.Update(keyMsg("tab"))
	assert.Equal(t, 1, c.Index())

	m, cmd, _ := m.Update(keyMsg("ctrl+d"))
	msg := cmd().(RemovedMsg)
	assert.Equal(t, []string{"b"}, msg.IDs)

	m, _, _ = m.Update(keyMsg("esc"))
	assert.False(t, c.Visible())
	assert.Empty(t, m.View())
}

func TestModel_ViewShowsStatusAndSuggestions(t *testing.T) {
	c := NewController(Options{})
	c.Reset(nil, threeIssues())
	m := NewModel(c).Show("c")

	v := m.View()
	assert.Contains(t, v, "terminology")
	assert.Contains(t, v, "3 / 3")
	assert.Contains(t, v, "going to")
}

func TestModel_Overlay(t *testing.T) {
	c := NewController(Options{})
	c.Reset(nil, threeIssues())
	m := NewModel(c).Show("a")

	base := strings.Repeat(strings.Repeat(".", 60)+"\n", 19) + strings.Repeat(".", 60)
	out := m.Overlay(base, 2, 1)
	assert.Contains(t, out, "grammar")
	assert.Equal(t, 20, len(strings.Split(out, "\n")))

	c.Hide()
	assert.Equal(t, base, m.Overlay(base, 2, 1))
}

func TestModel_ViewWrapsLongMessages(t *testing.T) {
	issues := threeIssues()
	issues[1].Message = "Consider using a more precise word instead of intensifiers"
	c := NewController(Options{})
	c.Reset(nil, issues)
	m := NewModel(c).WithMaxWidth(30).Show("b")

	v := m.View()
	assert.NotContains(t, v, issues[1].Message)
	assert.Contains(t, v, "Consider using a more")
	assert.Contains(t, v, "precise word instead of")
}
