package panel

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	bubbleoverlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/iw2rmb/proofline/apply"
	"github.com/iw2rmb/proofline/overlay"
)

const defaultMaxWidth = 48

// AppliedMsg reports the outcome of an apply key press.
type AppliedMsg struct {
	IssueID     string
	Replacement string
	Result      apply.Result
}

// RemovedMsg reports issues dismissed or learned through the panel.
type RemovedMsg struct {
	IDs     []string
	Learned string
	Err     error
}

type Styles struct {
	Box      lipgloss.Style
	Message  lipgloss.Style
	Status   lipgloss.Style
	Choice   lipgloss.Style
	Selected lipgloss.Style
	Hint     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		Message:  lipgloss.NewStyle(),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Choice:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")),
		Hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}
}

// Model is the Bubble Tea view over a Controller.
type Model struct {
	ctrl     *Controller
	keys     KeyMap
	styles   Styles
	choice   int
	maxWidth int
}

func NewModel(ctrl *Controller) Model {
	return Model{ctrl: ctrl, keys: DefaultKeyMap(), styles: DefaultStyles(), maxWidth: defaultMaxWidth}
}

func (m Model) WithKeyMap(k KeyMap) Model { m.keys = k; return m }
func (m Model) WithStyles(s Styles) Model { m.styles = s; return m }
func (m Model) WithMaxWidth(w int) Model  { m.maxWidth = w; return m }
func (m Model) Controller() *Controller   { return m.ctrl }
func (m Model) KeyMap() KeyMap            { return m.keys }
func (m Model) Choice() int               { return m.choice }

// Show displays the issue with id and resets the suggestion choice.
func (m Model) Show(id string) Model {
	if m.ctrl.DisplayIssue(id) {
		m.choice = 0
	}
	return m
}

// Update handles panel keys while the panel is shown. The second result
// reports whether the message was consumed.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !m.ctrl.Visible() {
		return m, nil, false
	}
	switch {
	case key.Matches(km, m.keys.Close):
		m.ctrl.Hide()
	case key.Matches(km, m.keys.Next):
		if m.ctrl.Next() {
			m.choice = 0
		}
	case key.Matches(km, m.keys.Prev):
		if m.ctrl.Previous() {
			m.choice = 0
		}
	case key.Matches(km, m.keys.ChoiceDown):
		m.choice = min(m.choice+1, max(len(m.ctrl.Suggestions())-1, 0))
	case key.Matches(km, m.keys.ChoiceUp):
		m.choice = max(m.choice-1, 0)
	case key.Matches(km, m.keys.Apply):
		return m.apply()
	case key.Matches(km, m.keys.Dismiss):
		id, ok := m.ctrl.DismissOne()
		m.choice = 0
		if !ok {
			return m, nil, true
		}
		return m, msgCmd(RemovedMsg{IDs: []string{id}}), true
	case key.Matches(km, m.keys.DismissAll):
		ids := m.ctrl.DismissAll()
		return m, msgCmd(RemovedMsg{IDs: ids}), true
	case key.Matches(km, m.keys.Learn):
		cur, _ := m.ctrl.Current()
		word, err := m.ctrl.AddToDictionary(context.Background())
		m.choice = 0
		if err != nil {
			return m, msgCmd(RemovedMsg{Err: err}), true
		}
		return m, msgCmd(RemovedMsg{IDs: []string{cur.ID}, Learned: word}), true
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m Model) apply() (Model, tea.Cmd, bool) {
	sugg := m.ctrl.Suggestions()
	cur, ok := m.ctrl.Current()
	if !ok || len(sugg) == 0 {
		return m, nil, true
	}
	rep := sugg[min(m.choice, len(sugg)-1)]
	res := m.ctrl.ApplyChosen(context.Background(), rep)
	if res.Success {
		m.choice = 0
	}
	return m, msgCmd(AppliedMsg{IssueID: cur.ID, Replacement: rep, Result: res}), true
}

func msgCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// View renders the panel box, or "" when hidden.
func (m Model) View() string {
	is, ok := m.ctrl.Current()
	if !ok {
		return ""
	}
	width := max(m.maxWidth-m.styles.Box.GetHorizontalFrameSize(), 10)

	var lines []string
	head := lipgloss.NewStyle().Foreground(overlay.ColorFor(is.Kind)).Bold(true).Render(string(is.Kind))
	if st := m.ctrl.Status(); st != "" {
		head += "  " + m.styles.Status.Render(st)
	}
	lines = append(lines, head)
	lines = append(lines, m.styles.Message.Render(wordwrap.String(is.Message, width)))

	sugg := m.ctrl.Suggestions()
	if len(sugg) == 0 {
		lines = append(lines, m.styles.Hint.Render("no suggestions"))
	}
	for i, s := range sugg {
		st := m.styles.Choice
		if i == m.choice {
			st = m.styles.Selected
		}
		lines = append(lines, st.Render(" "+s+" "))
	}
	lines = append(lines, m.styles.Hint.Render("enter apply · ctrl+d dismiss · ctrl+l learn"))
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

// Overlay composites the panel over base with its top-left corner at
// (x, y), clamped so the box stays inside base.
func (m Model) Overlay(base string, x, y int) string {
	view := m.View()
	if view == "" {
		return base
	}
	bw, bh := lipgloss.Size(base)
	pw, ph := lipgloss.Size(view)
	x = min(max(x, 0), max(bw-pw, 0))
	if y+ph > bh {
		y = max(y-ph-1, 0)
	}
	return bubbleoverlay.Composite(view, base, bubbleoverlay.Left, bubbleoverlay.Top, x, y)
}
