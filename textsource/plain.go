package textsource

import (
	"context"
	"sync"

	"github.com/iw2rmb/proofline/buffer"
)

// Box is the on-screen geometry of a field, in cells.
type Box struct {
	Left, Top   int
	Width       int
	PaddingLeft int
	PaddingTop  int
	ScrollLeft  int
	ScrollTop   int
}

// PlainField is an input or textarea backed by a buffer.
type PlainField struct {
	id        string
	inputType string
	multiline bool

	mu   sync.RWMutex
	buf  *buffer.Buffer
	box  Box
	subs subscribers
}

type PlainOption func(*PlainField)

// WithInputType sets the input type attribute; it gates Editable.
func WithInputType(t string) PlainOption {
	return func(f *PlainField) { f.inputType = t }
}

// AsTextarea marks the field as a multiline textarea.
func AsTextarea() PlainOption {
	return func(f *PlainField) { f.multiline = true }
}

func WithBox(b Box) PlainOption {
	return func(f *PlainField) { f.box = b }
}

// WithBuffer backs the field with an existing buffer instead of a new one.
func WithBuffer(b *buffer.Buffer) PlainOption {
	return func(f *PlainField) { f.buf = b }
}

func NewPlainField(id, value string, opts ...PlainOption) *PlainField {
	f := &PlainField{id: id, inputType: "text"}
	for _, o := range opts {
		o(f)
	}
	if f.buf == nil {
		f.buf = buffer.New(value, buffer.Options{})
	}
	return f
}

func (f *PlainField) ID() string      { return f.id }
func (f *PlainField) Kind() Kind      { return KindPlainField }
func (f *PlainField) Multiline() bool { return f.multiline }

func (f *PlainField) Editable() bool {
	if f.multiline {
		return true
	}
	return IsEditable("input", f.inputType, "")
}

func (f *PlainField) Box() Box {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.box
}

func (f *PlainField) SetBox(b Box) {
	f.mu.Lock()
	f.box = b
	f.mu.Unlock()
}

// Buffer exposes the backing buffer. Callers that mutate it directly must
// not race with other field methods and should call Notify afterwards.
func (f *PlainField) Buffer() *buffer.Buffer { return f.buf }

func (f *PlainField) Text(context.Context) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.buf.Text(), nil
}

// Caret is the cursor as a flat rune offset.
func (f *PlainField) Caret() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.buf.CursorOffset()
}

func (f *PlainField) SetCaret(off int) {
	f.mu.Lock()
	f.buf.SetCursor(f.buf.PosFromOffset(off))
	f.mu.Unlock()
}

// Type inserts text at the caret as if the user typed it.
func (f *PlainField) Type(text string) {
	f.mu.Lock()
	f.buf.InsertText(text)
	f.mu.Unlock()
	f.Notify(false)
}

// Replace swaps the span and restores the pre-edit caret when it is still
// inside the new text.
func (f *PlainField) Replace(_ context.Context, offset, length int, text string) (Replacement, error) {
	if !f.Editable() {
		return Replacement{}, ErrNotEditable
	}

	f.mu.Lock()
	rs, err := checkSpan(f.buf.Text(), offset, length)
	if err != nil {
		f.mu.Unlock()
		return Replacement{}, err
	}
	caret := f.buf.CursorOffset()
	f.buf.Replace(offset, length, text, buffer.ChangeSourceSuggestion)
	if caret <= f.buf.Len() {
		f.buf.SetCursor(f.buf.PosFromOffset(caret))
	}
	rep := Replacement{
		Offset:   offset,
		Removed:  string(rs[offset : offset+length]),
		Inserted: text,
		NewText:  f.buf.Text(),
	}
	f.mu.Unlock()

	f.Notify(true)
	return rep, nil
}

func (f *PlainField) Subscribe(fn func(InputEvent)) func() {
	return f.subs.add(fn)
}

// Notify fires an input event to subscribers.
func (f *PlainField) Notify(synthetic bool) {
	f.subs.notify(InputEvent{SourceID: f.id, Synthetic: synthetic})
}
