// Package mapper maps issue offsets onto the geometry of a text surface.
//
// Geometry is measured in terminal cells. For plain single-line inputs the
// position is computed from measured text widths, which approximates the
// native rendering rather than matching it exactly.
package mapper

import (
	"context"
	"unicode"

	"github.com/iw2rmb/proofline/internal/layout"
	"github.com/iw2rmb/proofline/textsource"
)

// Rect is a screen rectangle in cells.
type Rect struct {
	Left, Top     int
	Width, Height int
}

// InputSpan is the horizontal extent of a span in a single-line input.
type InputSpan struct {
	Left  int
	Width int
}

// Measurer reports the display width of a string.
type Measurer interface {
	Width(text string) int
}

// CellMeasurer measures terminal cell widths.
type CellMeasurer struct {
	TabWidth int
}

func (m CellMeasurer) Width(text string) int {
	return layout.StringWidth(text, m.TabWidth)
}

type Mapper struct {
	Measure  Measurer
	TabWidth int
	Wrap     layout.WrapMode
	// DefaultWidth lays out sources that report no box, such as rich
	// editors in a remote page.
	DefaultWidth int
}

func New() *Mapper {
	return &Mapper{
		Measure:      CellMeasurer{TabWidth: 4},
		TabWidth:     4,
		Wrap:         layout.WrapWord,
		DefaultWidth: 80,
	}
}

type boxed interface {
	Box() textsource.Box
}

// Target is a source prepared for repeated lookups against one text read.
type Target struct {
	m      *Mapper
	text   []rune
	box    textsource.Box
	inline bool
	lay    *layout.Layout
	// ce is set for contenteditable sources; spans are clipped to its text
	// nodes before layout.
	ce *textsource.ContentEditable
}

// Prepare reads the live text of src once. It fails when the text cannot be
// read or is blank.
func (m *Mapper) Prepare(ctx context.Context, src textsource.Source) (*Target, bool) {
	text, err := src.Text(ctx)
	if err != nil || isBlank(text) {
		return nil, false
	}
	t := &Target{m: m, text: []rune(text)}
	if b, ok := src.(boxed); ok {
		t.box = b.Box()
	} else {
		t.box = textsource.Box{Width: m.DefaultWidth}
	}
	if f, ok := src.(*textsource.PlainField); ok && !f.Multiline() {
		t.inline = true
		return t, true
	}
	if ce, ok := src.(*textsource.ContentEditable); ok {
		t.ce = ce
	}
	width := t.box.Width - t.box.PaddingLeft
	t.lay = layout.Build(text, layout.Options{Width: width, Wrap: m.Wrap, TabWidth: m.TabWidth})
	return t, true
}

func (t *Target) Text() string { return string(t.text) }

// Layout is nil for single-line inputs.
func (t *Target) Layout() *layout.Layout { return t.lay }

// Locate returns one rect per visual row the span touches.
func (t *Target) Locate(offset, length int) ([]Rect, bool) {
	if !t.inRange(offset, length) {
		return nil, false
	}
	if t.inline {
		span, ok := t.inputSpan(offset, length)
		if !ok {
			return nil, false
		}
		return []Rect{{Left: span.Left, Top: t.box.Top + t.box.PaddingTop, Width: span.Width, Height: 1}}, true
	}
	start, end := offset, offset+length
	if t.ce != nil {
		var ok bool
		if start, end, ok = clippedSpan(t.ce, offset, length); !ok {
			return nil, false
		}
	}
	cells := t.lay.Rects(start, end)
	if len(cells) == 0 {
		return nil, false
	}
	out := make([]Rect, 0, len(cells))
	for _, c := range cells {
		out = append(out, Rect{
			Left:   t.box.Left + t.box.PaddingLeft + c.Cell,
			Top:    t.box.Top + t.box.PaddingTop + c.Row - t.box.ScrollTop,
			Width:  c.Width,
			Height: 1,
		})
	}
	return out, true
}

func (t *Target) inRange(offset, length int) bool {
	return offset >= 0 && length > 0 && offset+length <= len(t.text)
}

func (t *Target) inputSpan(offset, length int) (InputSpan, bool) {
	if !t.inRange(offset, length) {
		return InputSpan{}, false
	}
	before := t.m.Measure.Width(string(t.text[:offset]))
	width := t.m.Measure.Width(string(t.text[offset : offset+length]))
	return InputSpan{
		Left:  t.box.Left + t.box.PaddingLeft + before - t.box.ScrollLeft,
		Width: width,
	}, true
}

// Locate maps [offset, offset+length) of the live text of src to rects.
// Stale or out-of-range spans yield nil, false.
func (m *Mapper) Locate(ctx context.Context, src textsource.Source, offset, length int) ([]Rect, bool) {
	t, ok := m.Prepare(ctx, src)
	if !ok {
		return nil, false
	}
	return t.Locate(offset, length)
}

// LocateInputOffset measures the span inside a plain field.
func (m *Mapper) LocateInputOffset(ctx context.Context, f *textsource.PlainField, offset, length int) (InputSpan, bool) {
	text, err := f.Text(ctx)
	if err != nil || isBlank(text) {
		return InputSpan{}, false
	}
	t := &Target{m: m, text: []rune(text), box: f.Box(), inline: true}
	return t.inputSpan(offset, length)
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
