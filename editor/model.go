package editor

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/proofline/buffer"
	"github.com/iw2rmb/proofline/internal/layout"
)

// Model is a Bubble Tea component that renders and interacts with a buffer.
type Model struct {
	cfg Config
	buf *buffer.Buffer

	focused bool

	viewport viewport.Model

	lay    *layout.Layout
	layKey layoutKey

	lastBufVersion  uint64
	lastTextVersion uint64

	mouseAnchor   buffer.Pos
	mouseDragging bool
}

// layoutKey identifies the inputs a cached layout was built from.
type layoutKey struct {
	text  uint64
	width int
}

func New(cfg Config) Model {
	cfg = cfg.withDefaults()
	m := Model{
		cfg:      cfg,
		buf:      buffer.New(cfg.Text, buffer.Options{HistoryLimit: cfg.HistoryLimit}),
		focused:  true,
		viewport: viewport.New(0, 0),
	}
	m.lastBufVersion = m.buf.Version()
	m.lastTextVersion = m.textVersion()
	m.rebuildContent()
	return m
}

func (m Model) Buffer() *buffer.Buffer { return m.buf }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) SetSize(width, height int) Model {
	m.viewport.Width = max(width, 0)
	m.viewport.Height = max(height, 0)

	m.rebuildContent()
	m.followCursor()
	return m
}

// SetDecorator replaces the cell decorator and re-renders.
func (m Model) SetDecorator(d Decorator) Model {
	m.cfg.Decorator = d
	m.rebuildContent()
	return m
}

// Refresh re-renders the content, for example after decorations changed.
func (m Model) Refresh() Model {
	m.rebuildContent()
	return m
}

func (m Model) Focus() Model {
	if !m.focused {
		m.focused = true
		m.rebuildContent()
		m.followCursor()
	}
	return m
}

func (m Model) Blur() Model {
	if m.focused {
		m.focused = false
		m.mouseDragging = false
		m.rebuildContent()
	}
	return m
}

func (m Model) Focused() bool { return m.focused }

// ContentWidth is the number of text cells per row, excluding the gutter.
func (m Model) ContentWidth() int {
	return max(m.viewport.Width-m.gutterWidth(), 0)
}

// Layout returns the visual layout of the current text.
func (m *Model) Layout() *layout.Layout { return m.ensureLayout() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil
	case tea.KeyMsg:
		m, cmd = m.updateKey(msg)
		if m.sync() {
			m.followCursor()
		}
	case tea.MouseMsg:
		m, cmd = m.updateMouse(msg)
		// Mouse interaction never force-follows so wheel scrolling sticks.
		m.sync()
	default:
		// Hosts may mutate the buffer directly.
		if m.sync() {
			m.followCursor()
		}
	}
	return m, cmd
}

func (m Model) View() string { return m.viewport.View() }

// sync re-renders after any buffer change and reports whether one happened.
func (m *Model) sync() bool {
	if m.buf == nil {
		return false
	}
	ver := m.buf.Version()
	if ver == m.lastBufVersion {
		return false
	}
	m.lastBufVersion = ver
	tv := m.textVersion()
	textChanged := tv != m.lastTextVersion
	m.lastTextVersion = tv

	m.rebuildContent()
	if m.cfg.OnChange != nil {
		m.cfg.OnChange(buildChangeEvent(m.buf, textChanged))
	}
	return true
}

// textVersion changes only when the text does.
func (m *Model) textVersion() uint64 {
	if ch, ok := m.buf.LastChange(); ok {
		return ch.VersionAfter
	}
	return 0
}

func (m *Model) ensureLayout() *layout.Layout {
	key := layoutKey{text: m.textVersion(), width: m.ContentWidth()}
	if m.lay != nil && m.layKey == key {
		return m.lay
	}
	wrap := m.cfg.WrapMode
	width := key.width
	if wrap == layout.WrapNone {
		width = 0
	}
	m.lay = layout.Build(m.buf.Text(), layout.Options{Width: width, Wrap: wrap, TabWidth: m.cfg.TabWidth})
	m.layKey = key
	return m.lay
}

func (m *Model) rebuildContent() {
	m.viewport.SetContent(m.renderContent())
}

func (m *Model) followCursor() {
	if m.buf == nil {
		return
	}
	h := m.visibleRowCount()
	if h <= 0 {
		return
	}
	p, ok := m.ensureLayout().Locate(m.buf.CursorOffset())
	if !ok {
		return
	}
	y := m.viewport.YOffset
	if p.Row < y {
		m.viewport.SetYOffset(p.Row)
		return
	}
	if p.Row >= y+h {
		m.viewport.SetYOffset(p.Row - h + 1)
	}
}
