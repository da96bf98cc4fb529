// Package overlay draws issue marks over a text surface.
//
// Marks are pure decorations keyed by issue id. Every Render discards the
// previous marks and redraws from scratch; text is never touched.
package overlay

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/proofline/internal/debounce"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/mapper"
	"github.com/iw2rmb/proofline/textsource"
)

// DefaultRedrawDelay coalesces scroll and resize storms.
const DefaultRedrawDelay = 120 * time.Millisecond

// Mark is one underline for one issue; an issue spanning several visual rows
// gets several rects.
type Mark struct {
	IssueID string
	Kind    issue.Kind
	Rects   []mapper.Rect
	Color   lipgloss.Color
}

// Reason names what invalidated the current marks.
type Reason string

const (
	ReasonIssues Reason = "issues"
	ReasonScroll Reason = "scroll"
	ReasonResize Reason = "resize"
)

type Options struct {
	Mapper      *mapper.Mapper
	RedrawDelay time.Duration
	Logger      *slog.Logger
	// OnClick is called by HitTest with the id of the clicked mark.
	OnClick func(issueID string)
	// OnRedraw is called after a debounced redraw completes.
	OnRedraw func(marks []Mark)
}

type Renderer struct {
	mapper   *mapper.Mapper
	log      *slog.Logger
	onClick  func(string)
	onRedraw func([]Mark)
	redraw   *debounce.Debouncer

	mu     sync.Mutex
	marks  []Mark
	issues []issue.Issue
	target textsource.Source
}

func NewRenderer(opt Options) *Renderer {
	if opt.Mapper == nil {
		opt.Mapper = mapper.New()
	}
	if opt.RedrawDelay <= 0 {
		opt.RedrawDelay = DefaultRedrawDelay
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Renderer{
		mapper:   opt.Mapper,
		log:      opt.Logger,
		onClick:  opt.OnClick,
		onRedraw: opt.OnRedraw,
		redraw:   debounce.New(opt.RedrawDelay),
	}
}

// Render clears all marks, then maps every issue against the live text of
// target. Issues that cannot be located are skipped.
func (r *Renderer) Render(ctx context.Context, issues []issue.Issue, target textsource.Source) []Mark {
	r.mu.Lock()
	r.marks = nil
	r.issues = slices.Clone(issues)
	r.target = target
	r.mu.Unlock()

	if target == nil || len(issues) == 0 {
		return nil
	}

	var marks []Mark
	tgt, ok := r.mapper.Prepare(ctx, target)
	if ok {
		marks = make([]Mark, 0, len(issues))
		for _, is := range issues {
			rects, ok := tgt.Locate(is.Offset, is.Length)
			if !ok {
				r.log.Debug("skip unmappable issue", "issue", is.ID, "offset", is.Offset, "length", is.Length)
				continue
			}
			marks = append(marks, Mark{IssueID: is.ID, Kind: is.Kind, Rects: rects, Color: ColorFor(is.Kind)})
		}
	}

	r.mu.Lock()
	// A concurrent Render or Clear owns the marks now.
	if r.target == target && slices.EqualFunc(r.issues, issues, sameIssue) {
		r.marks = marks
	}
	out := slices.Clone(r.marks)
	r.mu.Unlock()
	return out
}

func sameIssue(a, b issue.Issue) bool { return a.ID == b.ID }

// Clear removes all marks and forgets the last issue list.
func (r *Renderer) Clear() {
	r.redraw.Stop()
	r.mu.Lock()
	r.marks = nil
	r.issues = nil
	r.target = nil
	r.mu.Unlock()
}

func (r *Renderer) Marks() []Mark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.marks)
}

// Invalidate schedules a redraw of the last issue list. Calls within the
// redraw delay coalesce into one.
func (r *Renderer) Invalidate(reason Reason) {
	r.redraw.Trigger(func() {
		r.mu.Lock()
		issues, target := r.issues, r.target
		r.mu.Unlock()
		if target == nil {
			return
		}
		marks := r.Render(context.Background(), issues, target)
		r.log.Debug("overlay redrawn", "reason", reason, "marks", len(marks))
		if r.onRedraw != nil {
			r.onRedraw(marks)
		}
	})
}

// HitTest finds the mark covering cell (x, y) and reports its issue id.
// Marks drawn later win. OnClick fires for a hit.
func (r *Renderer) HitTest(x, y int) (string, bool) {
	m, ok := r.markAt(x, y)
	if !ok {
		return "", false
	}
	if r.onClick != nil {
		r.onClick(m.IssueID)
	}
	return m.IssueID, true
}

// CellStyle is the decoration for cell (x, y), if a mark covers it.
func (r *Renderer) CellStyle(x, y int) (lipgloss.Style, bool) {
	m, ok := r.markAt(x, y)
	if !ok {
		return lipgloss.Style{}, false
	}
	return StyleFor(m.Kind), true
}

func (r *Renderer) markAt(x, y int) (Mark, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.marks) - 1; i >= 0; i-- {
		for _, rc := range r.marks[i].Rects {
			if y >= rc.Top && y < rc.Top+rc.Height && x >= rc.Left && x < rc.Left+rc.Width {
				return r.marks[i], true
			}
		}
	}
	return Mark{}, false
}
