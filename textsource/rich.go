package textsource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Evaluator reaches an editor element inside a live page.
type Evaluator interface {
	// Exists reports whether selector matches an element yet.
	Exists(ctx context.Context, selector string) (bool, error)
	// InnerText reads the rendered text of the element.
	InnerText(ctx context.Context, selector string) (string, error)
	// ReplaceText swaps the rune span of the element's text and dispatches
	// an input event in the page.
	ReplaceText(ctx context.Context, selector string, offset, length int, text string) error
}

// RichEditor is a host editor reached through an Evaluator.
type RichEditor struct {
	id       string
	selector string
	eval     Evaluator
	retry    RetryPolicy
	log      *slog.Logger

	subs subscribers

	mu   sync.Mutex
	last string
}

func NewRichEditor(id, selector string, eval Evaluator, retry RetryPolicy, log *slog.Logger) *RichEditor {
	if log == nil {
		log = slog.Default()
	}
	return &RichEditor{id: id, selector: selector, eval: eval, retry: retry, log: log}
}

func (r *RichEditor) ID() string       { return r.id }
func (r *RichEditor) Kind() Kind       { return KindRichEditor }
func (r *RichEditor) Editable() bool   { return true }
func (r *RichEditor) Selector() string { return r.selector }

// Ready polls until the editor element exists, under the retry policy.
func (r *RichEditor) Ready(ctx context.Context) (Source, error) {
	attempt := 0
	err := r.retry.Do(ctx, func(ctx context.Context) (bool, error) {
		attempt++
		ok, err := r.eval.Exists(ctx, r.selector)
		if err != nil {
			r.log.Debug("rich editor readiness check failed", "selector", r.selector, "attempt", attempt, "err", err)
			return false, nil
		}
		return ok, nil
	})
	if err != nil {
		return nil, fmt.Errorf("rich editor %q: %w", r.selector, err)
	}
	return r, nil
}

func (r *RichEditor) Text(ctx context.Context) (string, error) {
	text, err := r.eval.InnerText(ctx, r.selector)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", r.selector, err)
	}
	r.mu.Lock()
	r.last = text
	r.mu.Unlock()
	return text, nil
}

func (r *RichEditor) Replace(ctx context.Context, offset, length int, text string) (Replacement, error) {
	cur, err := r.Text(ctx)
	if err != nil {
		return Replacement{}, err
	}
	rs, err := checkSpan(cur, offset, length)
	if err != nil {
		return Replacement{}, err
	}
	if err := r.eval.ReplaceText(ctx, r.selector, offset, length, text); err != nil {
		return Replacement{}, fmt.Errorf("write %q: %w", r.selector, err)
	}
	next := string(rs[:offset]) + text + string(rs[offset+length:])
	r.mu.Lock()
	r.last = next
	r.mu.Unlock()
	r.subs.notify(InputEvent{SourceID: r.id, Synthetic: true})
	return Replacement{Offset: offset, Removed: string(rs[offset : offset+length]), Inserted: text, NewText: next}, nil
}

func (r *RichEditor) Subscribe(fn func(InputEvent)) func() {
	return r.subs.add(fn)
}

// Watch polls the page text every interval and notifies subscribers when it
// changes. It returns when ctx is done.
func (r *RichEditor) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		r.mu.Lock()
		prev := r.last
		r.mu.Unlock()
		text, err := r.Text(ctx)
		if err != nil {
			r.log.Warn("rich editor poll failed", "selector", r.selector, "err", err)
			continue
		}
		if text != prev {
			r.subs.notify(InputEvent{SourceID: r.id})
		}
	}
}
