// Package textsource adapts editable surfaces to one flat-text interface.
//
// A Source exposes its content as a flat string addressed by rune offsets,
// replaces rune ranges in place, and notifies subscribers when its content
// changes. Variants cover plain input fields, contenteditable element trees,
// and rich editors living inside a browser page.
package textsource

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotEditable = errors.New("textsource: not editable")
	ErrOutOfRange  = errors.New("textsource: range out of bounds")
	ErrNotReady    = errors.New("textsource: editor not ready")
)

type Kind int

const (
	KindPlainField Kind = iota
	KindContentEditable
	KindRichEditor
)

func (k Kind) String() string {
	switch k {
	case KindPlainField:
		return "plain"
	case KindContentEditable:
		return "contenteditable"
	case KindRichEditor:
		return "rich"
	}
	return "unknown"
}

// InputEvent tells subscribers that the content of a source changed.
// Synthetic is set for changes made by Replace rather than by the user.
type InputEvent struct {
	SourceID  string
	Synthetic bool
}

// Replacement describes an effective Replace call.
type Replacement struct {
	Offset   int
	Removed  string
	Inserted string
	NewText  string
}

type Source interface {
	ID() string
	Kind() Kind
	Editable() bool
	Text(ctx context.Context) (string, error)
	// Replace swaps [offset, offset+length) for text. Spans outside the
	// current text fail with ErrOutOfRange and leave the source untouched.
	Replace(ctx context.Context, offset, length int, text string) (Replacement, error)
	Subscribe(fn func(InputEvent)) (cancel func())
}

// Snapshot is an immutable capture of a source's text.
type Snapshot struct {
	SourceID   string
	Text       string
	Version    uint64
	CapturedAt time.Time
}

func Capture(ctx context.Context, src Source, version uint64) (Snapshot, error) {
	text, err := src.Text(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		SourceID:   src.ID(),
		Text:       text,
		Version:    version,
		CapturedAt: time.Now(),
	}, nil
}

var editableInputTypes = map[string]bool{
	"":         true,
	"text":     true,
	"email":    true,
	"search":   true,
	"url":      true,
	"tel":      true,
	"password": true,
}

// IsEditable mirrors the host page gate for surfaces worth checking:
// textareas, text-like inputs, and contenteditable elements.
func IsEditable(tag, inputType, contentEditable string) bool {
	switch strings.ToLower(tag) {
	case "textarea":
		return true
	case "input":
		return editableInputTypes[strings.ToLower(inputType)]
	}
	switch strings.ToLower(contentEditable) {
	case "true", "plaintext-only":
		return true
	}
	return false
}

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(InputEvent)
}

func (s *subscribers) add(fn func(InputEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(InputEvent))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) notify(ev InputEvent) {
	s.mu.Lock()
	fns := make([]func(InputEvent), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func checkSpan(text string, offset, length int) ([]rune, error) {
	rs := []rune(text)
	if offset < 0 || length < 0 || offset+length > len(rs) {
		return nil, ErrOutOfRange
	}
	return rs, nil
}
