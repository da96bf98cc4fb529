// Package checker defines the common shape of the text analyzers.
package checker

import (
	"context"

	"github.com/iw2rmb/proofline/issue"
)

// Results carries the native arrays of one analysis pass. Offsets are rune
// offsets into the analyzed text.
type Results struct {
	Grammar     []issue.GrammarMatch `json:"grammar"`
	Tone        []issue.LintFinding  `json:"tone"`
	Terminology []issue.LintFinding  `json:"terminology"`
}

// Empty reports whether r has no findings.
func (r Results) Empty() bool {
	return len(r.Grammar) == 0 && len(r.Tone) == 0 && len(r.Terminology) == 0
}

// Combine returns r with the non-nil arrays of o appended.
func (r Results) Combine(o Results) Results {
	r.Grammar = append(r.Grammar, o.Grammar...)
	r.Tone = append(r.Tone, o.Tone...)
	r.Terminology = append(r.Terminology, o.Terminology...)
	return r
}

// Checker analyzes text. Implementations must be safe for concurrent use.
type Checker interface {
	Name() string
	Check(ctx context.Context, text string) (Results, error)
}

// Func adapts a function to Checker.
type Func struct {
	ID string
	Fn func(ctx context.Context, text string) (Results, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Check(ctx context.Context, text string) (Results, error) {
	return f.Fn(ctx, text)
}
