// Package tui is the terminal front end: an editor with live grammar marks
// and a suggestion panel.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/proofline/apply"
	"github.com/iw2rmb/proofline/buffer"
	"github.com/iw2rmb/proofline/editor"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/mapper"
	"github.com/iw2rmb/proofline/orchestrator"
	"github.com/iw2rmb/proofline/overlay"
	"github.com/iw2rmb/proofline/panel"
	"github.com/iw2rmb/proofline/textsource"
)

// SourceID identifies the editor field to the orchestrator.
const SourceID = "editor"

type Options struct {
	// Orchestrator runs the analysis passes. Its own eager and debounced
	// scheduling is not used; the model schedules passes itself.
	Orchestrator *orchestrator.Orchestrator
	Applier      *apply.Applier
	Learner      panel.Learner

	Text string
	// Name is shown in the status bar.
	Name string
	// Save persists the text on ctrl+s. Nil disables saving.
	Save func(text string) error

	Debounce time.Duration
	// RedrawDelay is handed to the overlay renderer.
	RedrawDelay time.Duration
	// Eager checks the initial text on start.
	Eager bool

	Clipboard editor.Clipboard
	Logger    *slog.Logger
}

type (
	analyzeMsg struct{ seq uint64 }
	resultsMsg struct {
		issues []issue.Issue
		err    error
	}
	savedMsg struct{ err error }
)

// changeLog collects the text edits the editor reports between updates.
type changeLog struct {
	edits []buffer.AppliedEdit
	dirty bool
}

func (c *changeLog) handleChange(ev editor.ChangeEvent) {
	if !ev.TextChanged {
		return
	}
	c.dirty = true
	c.edits = append(c.edits, ev.Edits...)
}

func (c *changeLog) take() ([]buffer.AppliedEdit, bool) {
	edits, dirty := c.edits, c.dirty
	c.edits, c.dirty = nil, false
	return edits, dirty
}

type Model struct {
	opt  Options
	log  *slog.Logger
	orch *orchestrator.Orchestrator
	keys KeyMap

	editor   editor.Model
	changes  *changeLog
	field    *textsource.PlainField
	renderer *overlay.Renderer
	panel    panel.Model
	spinner  spinner.Model
	help     help.Model

	width, height int
	checking      bool
	seq           uint64
	status        string
}

func New(opt Options) Model {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Debounce <= 0 {
		opt.Debounce = orchestrator.DefaultDebounce
	}
	if opt.Orchestrator == nil {
		opt.Orchestrator = orchestrator.New(orchestrator.Options{Logger: opt.Logger})
	}
	if opt.Applier == nil {
		opt.Applier = apply.New(opt.Logger)
	}
	if opt.Name == "" {
		opt.Name = "[scratch]"
	}

	changes := &changeLog{}
	mp := mapper.New()
	renderer := overlay.NewRenderer(overlay.Options{Mapper: mp, RedrawDelay: opt.RedrawDelay, Logger: opt.Logger})
	ed := editor.New(editor.Config{
		Text:         opt.Text,
		ShowLineNums: true,
		Style:        editor.DefaultStyle(),
		WrapMode:     mp.Wrap,
		TabWidth:     mp.TabWidth,
		Clipboard:    opt.Clipboard,
		Decorator:    renderer,
		OnChange:     changes.handleChange,
	})
	field := textsource.NewPlainField(SourceID, "", textsource.WithBuffer(ed.Buffer()), textsource.AsTextarea())

	orch := opt.Orchestrator
	ctrl := panel.NewController(panel.Options{
		Applier: opt.Applier,
		Learner: opt.Learner,
		Logger:  opt.Logger,
		OnRemove: func(ids ...string) {
			for _, id := range ids {
				orch.Remove(id)
			}
		},
	})
	orch.Session().Focus(field)

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	return Model{
		opt:      opt,
		log:      opt.Logger,
		orch:     orch,
		keys:     DefaultKeyMap(),
		editor:   ed,
		changes:  changes,
		field:    field,
		renderer: renderer,
		panel:    panel.NewModel(ctrl),
		spinner:  sp,
		help:     help.New(),
	}
}

// Text returns the current editor text.
func (m Model) Text() string { return m.editor.Buffer().Text() }

// Issues returns the issues currently marked.
func (m Model) Issues() issue.List { return m.panel.Controller().Issues() }

// Marks returns the overlay marks currently drawn.
func (m Model) Marks() []overlay.Mark { return m.renderer.Marks() }

// Panel exposes the suggestion panel.
func (m Model) Panel() panel.Model { return m.panel }

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.opt.Eager {
		cmds = append(cmds, func() tea.Msg { return analyzeMsg{seq: 0} })
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case analyzeMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.analyze()

	case resultsMsg:
		m.handleResults(msg)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.status = "saved"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case editor.ClickMsg:
		if id, ok := m.renderer.HitTest(msg.Cell, msg.Row); ok {
			m.panel = m.panel.Show(id)
		} else {
			m.panel.Controller().Hide()
		}
		return m, nil

	case panel.AppliedMsg:
		if msg.Result.Success {
			m.status = fmt.Sprintf("applied %q", msg.Replacement)
		} else {
			m.status = "could not apply: " + msg.Result.Err.Error()
		}
		return m, nil

	case panel.RemovedMsg:
		switch {
		case msg.Err != nil:
			m.status = msg.Err.Error()
		case msg.Learned != "":
			m.status = fmt.Sprintf("learned %q", msg.Learned)
		default:
			m.status = fmt.Sprintf("dismissed %d", len(msg.IDs))
		}
		m.redraw()
		return m, nil

	case tea.KeyMsg:
		if cmd, ok := m.updateKey(msg); ok {
			return m, cmd
		}
		if p, cmd, ok := m.panel.Update(msg); ok {
			m.panel = p
			// Apply edits the buffer behind the editor's back.
			m.editor, _ = m.editor.Update(nil)
			return m, tea.Batch(cmd, m.afterEdit())
		}
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, tea.Batch(cmd, m.afterEdit())
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle(), true
	case key.Matches(msg, m.keys.Recheck):
		m.seq++
		return m.analyze(), true
	case key.Matches(msg, m.keys.ShowIssue):
		if is, ok := m.Issues().At(m.field.Caret()); ok {
			m.panel = m.panel.Show(is.ID)
		}
		return nil, true
	case key.Matches(msg, m.keys.Save):
		if m.opt.Save == nil {
			return nil, true
		}
		save, text := m.opt.Save, m.Text()
		return func() tea.Msg { return savedMsg{err: save(text)} }, true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return nil, true
	}
	return nil, false
}

// afterEdit moves the marks through text edits, supersedes any pass in
// flight and schedules a debounced one.
func (m *Model) afterEdit() tea.Cmd {
	edits, dirty := m.changes.take()
	if !dirty {
		return nil
	}
	ctrl := m.panel.Controller()
	ctrl.Reset(m.field, rebase(ctrl.Issues(), edits))
	m.redraw()

	if !m.orch.Session().Enabled() {
		return nil
	}
	m.orch.Session().Begin(m.field)
	m.checking = false
	m.seq++
	seq := m.seq
	return tea.Tick(m.opt.Debounce, func(time.Time) tea.Msg { return analyzeMsg{seq: seq} })
}

// analyze captures the field on the UI goroutine and checks the snapshot
// in a command.
func (m *Model) analyze() tea.Cmd {
	sess := m.orch.Session()
	if !sess.Enabled() {
		return nil
	}
	version := sess.Begin(m.field)
	snap, err := textsource.Capture(context.Background(), m.field, version)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.checking = true
	orch := m.orch
	return func() tea.Msg {
		issues, err := orch.AnalyzeSnapshot(context.Background(), snap)
		return resultsMsg{issues: issues, err: err}
	}
}

func (m *Model) handleResults(msg resultsMsg) {
	if errors.Is(msg.err, orchestrator.ErrStale) {
		return
	}
	m.checking = false
	if msg.err != nil {
		m.status = msg.err.Error()
		return
	}
	m.panel.Controller().Reset(m.field, msg.issues)
	m.redraw()
	m.status = ""
}

func (m *Model) toggle() tea.Cmd {
	if m.orch.Toggle() {
		m.status = "checking on"
		m.seq++
		return m.analyze()
	}
	m.checking = false
	ctrl := m.panel.Controller()
	ctrl.Reset(m.field, nil)
	ctrl.Hide()
	m.renderer.Clear()
	m.editor = m.editor.Refresh()
	m.status = "checking off"
	return nil
}

// redraw maps the panel's issues against the live text and re-renders.
func (m *Model) redraw() {
	m.field.SetBox(textsource.Box{Width: m.editor.ContentWidth()})
	m.renderer.Render(context.Background(), m.Issues(), m.field)
	m.editor = m.editor.Refresh()
}

func (m *Model) resize() {
	m.help.Width = m.width
	m.panel = m.panel.WithMaxWidth(min(48, max(m.width, 0)))
	m.editor = m.editor.SetSize(m.width, max(m.height-lipgloss.Height(m.statusView()), 0))
	m.redraw()
}

func (m Model) View() string {
	body := m.editor.View()
	if m.panel.Controller().Visible() {
		x, y := m.panelAnchor()
		body = m.panel.Overlay(body, x, y)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusView())
}

// panelAnchor places the panel one row below the first rect of the shown
// issue, or below the cursor when the issue has no mark.
func (m Model) panelAnchor() (int, int) {
	vs := m.editor.ViewportState()
	if cur, ok := m.panel.Controller().Current(); ok {
		for _, mk := range m.renderer.Marks() {
			if mk.IssueID == cur.ID && len(mk.Rects) > 0 {
				r := mk.Rects[0]
				return vs.GutterWidth + r.Left, r.Top - vs.TopVisualRow + 1
			}
		}
	}
	x, y, _ := m.editor.DocToScreen(m.editor.Buffer().Cursor())
	return x, y + 1
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
)

func (m Model) statusView() string {
	state := m.stateLabel()
	left := nameStyle.Render(m.opt.Name) + "  " + state
	if m.status != "" {
		left += "  " + m.status
	}
	if m.help.ShowAll {
		return lipgloss.JoinVertical(lipgloss.Left,
			statusStyle.Width(max(m.width, 0)).Render(left),
			m.help.View(m.keys))
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return statusStyle.Width(max(m.width, 0)).MaxWidth(max(m.width, 1)).Render(left)
	}
	return statusStyle.Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

func (m Model) stateLabel() string {
	switch {
	case !m.orch.Session().Enabled():
		return "off"
	case m.checking:
		return m.spinner.View() + " checking"
	}
	n := len(m.Issues())
	if n == 1 {
		return "1 issue"
	}
	return fmt.Sprintf("%d issues", n)
}
