// Package apply performs drift-tolerant suggestion replacement.
//
// An issue records the offset and anchor text it was computed against. By
// the time the user accepts a suggestion the live text may have moved, so
// the anchor is re-located before anything is written:
//
//  1. exact: the anchor is still at the recorded offset;
//  2. search: the first occurrence of the anchor anywhere in the text;
//  3. token: the first whitespace token of the anchor, replacing from the
//     token start through the anchor length. This is best effort and may
//     replace the wrong span if the anchor was partially edited.
//
// When nothing matches the text is left untouched. An Applier remembers the
// issues it has applied per source and refuses to apply them again, since a
// replacement that starts with its own anchor ("a" -> "an") would otherwise
// match a second time.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/iw2rmb/proofline/internal/grapheme"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

var (
	ErrNotFound       = errors.New("apply: anchor text not found")
	ErrAlreadyApplied = fmt.Errorf("%w: issue already applied", ErrNotFound)
)

type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyExact
	StrategySearch
	StrategyToken
)

func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategySearch:
		return "search"
	case StrategyToken:
		return "token"
	}
	return "none"
}

// Result reports the outcome of Apply. Err is set whenever Success is false.
type Result struct {
	Success  bool
	NewText  string
	Strategy Strategy
	Offset   int
	Length   int
	Err      error
}

// Span is a located rune span of the live text.
type Span struct {
	Offset   int
	Length   int
	Strategy Strategy
}

type Applier struct {
	log *slog.Logger

	mu      sync.Mutex
	applied map[string]struct{}
}

func New(log *slog.Logger) *Applier {
	if log == nil {
		log = slog.Default()
	}
	return &Applier{log: log, applied: make(map[string]struct{})}
}

// appliedKey identifies an issue on a source. Issues without an id fall back
// to their recorded span and anchor.
func appliedKey(target textsource.Source, is issue.Issue) string {
	if is.ID != "" {
		return target.ID() + "\x00" + is.ID
	}
	return target.ID() + "\x00@" + strconv.Itoa(is.Offset) + ":" + strconv.Itoa(is.Length) + ":" + is.SnapshotText
}

// Apply re-reads the live text of target, locates the issue and replaces it
// with replacement. It never panics on stale issues; a second call with an
// already applied issue fails with ErrAlreadyApplied and mutates nothing.
func (a *Applier) Apply(ctx context.Context, target textsource.Source, is issue.Issue, replacement string) Result {
	key := appliedKey(target, is)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, done := a.applied[key]; done {
		return a.fail(is, ErrAlreadyApplied)
	}
	if !target.Editable() {
		return a.fail(is, textsource.ErrNotEditable)
	}
	text, err := target.Text(ctx)
	if err != nil {
		return a.fail(is, fmt.Errorf("read live text: %w", err))
	}
	span, ok := Locate(text, is)
	if !ok {
		return a.fail(is, ErrNotFound)
	}
	rep, err := target.Replace(ctx, span.Offset, span.Length, replacement)
	if err != nil {
		return a.fail(is, fmt.Errorf("replace: %w", err))
	}
	a.applied[key] = struct{}{}
	a.log.Debug("suggestion applied",
		"issue", is.ID, "strategy", span.Strategy.String(), "offset", span.Offset, "drift", span.Offset-is.Offset)
	return Result{
		Success:  true,
		NewText:  rep.NewText,
		Strategy: span.Strategy,
		Offset:   span.Offset,
		Length:   span.Length,
	}
}

func (a *Applier) fail(is issue.Issue, err error) Result {
	a.log.Info("suggestion not applied", "issue", is.ID, "err", err)
	return Result{Strategy: StrategyNone, Err: err}
}

// Locate finds the span of text the issue refers to now.
func Locate(text string, is issue.Issue) (Span, bool) {
	anchor := is.SnapshotText
	if anchor == "" {
		return Span{}, false
	}
	rs := []rune(text)
	n := utf8.RuneCountInString(anchor)

	if is.Offset >= 0 && is.Offset+n <= len(rs) && string(rs[is.Offset:is.Offset+n]) == anchor {
		return Span{Offset: is.Offset, Length: n, Strategy: StrategyExact}, true
	}

	if i := strings.Index(text, anchor); i >= 0 {
		return Span{Offset: utf8.RuneCountInString(text[:i]), Length: n, Strategy: StrategySearch}, true
	}

	fields := strings.Fields(anchor)
	if len(fields) == 0 {
		return Span{}, false
	}
	i := strings.Index(text, fields[0])
	if i < 0 {
		return Span{}, false
	}
	start := utf8.RuneCountInString(text[:i])
	end := snapToCluster(text, min(start+n, len(rs)))
	return Span{Offset: start, Length: end - start, Strategy: StrategyToken}, true
}

// snapToCluster moves end forward so it does not split a grapheme cluster.
func snapToCluster(text string, end int) int {
	for _, c := range grapheme.Clusters(text) {
		if c.RuneStart < end && end < c.RuneEnd {
			return c.RuneEnd
		}
	}
	return end
}
