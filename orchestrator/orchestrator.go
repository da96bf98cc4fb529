// Package orchestrator decides when text is analyzed, fans it out to the
// checkers and keeps the current issue list for the active target.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/iw2rmb/proofline/checker"
	"github.com/iw2rmb/proofline/internal/debounce"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

const (
	DefaultDebounce = 1500 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
	DefaultMinChars = 5

	// blockConcurrency bounds parallel blocks in a full-document pass.
	blockConcurrency = 4
)

var (
	// ErrStale is returned when a newer pass superseded this one.
	ErrStale    = errors.New("orchestrator: result superseded by a newer pass")
	ErrDisabled = errors.New("orchestrator: analysis disabled")
	ErrNoTarget = errors.New("orchestrator: no active target")
)

// Sink receives every committed issue list.
type Sink interface {
	OnResults(target ActiveTarget, issues []issue.Issue)
}

type SinkFunc func(target ActiveTarget, issues []issue.Issue)

func (f SinkFunc) OnResults(target ActiveTarget, issues []issue.Issue) { f(target, issues) }

type Options struct {
	Checkers []checker.Checker
	Merger   *issue.Merger
	// Words filters issues whose anchor is a learned word.
	Words    issue.WordSet
	Debounce time.Duration
	// Timeout bounds each checker call.
	Timeout time.Duration
	// MinChars is the minimum number of non-space characters worth sending.
	MinChars int
	// Eager analyzes a newly focused target right away.
	Eager  bool
	Sink   Sink
	Logger *slog.Logger
}

type Orchestrator struct {
	checkers []checker.Checker
	merger   *issue.Merger
	words    issue.WordSet
	timeout  time.Duration
	minChars int
	eager    bool
	sink     Sink
	log      *slog.Logger

	session *Session
	input   *debounce.Debouncer
}

func New(opt Options) *Orchestrator {
	if opt.Debounce <= 0 {
		opt.Debounce = DefaultDebounce
	}
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if opt.MinChars <= 0 {
		opt.MinChars = DefaultMinChars
	}
	if opt.Merger == nil {
		opt.Merger = &issue.Merger{}
	}
	if opt.Merger.IDs == nil {
		opt.Merger.IDs = issue.SequentialIDs("issue-")
	}
	if opt.Sink == nil {
		opt.Sink = SinkFunc(func(ActiveTarget, []issue.Issue) {})
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Orchestrator{
		checkers: opt.Checkers,
		merger:   opt.Merger,
		words:    opt.Words,
		timeout:  opt.Timeout,
		minChars: opt.MinChars,
		eager:    opt.Eager,
		sink:     opt.Sink,
		log:      opt.Logger,
		session:  NewSession(),
		input:    debounce.New(opt.Debounce),
	}
}

func (o *Orchestrator) Session() *Session { return o.session }

// Issues returns the current list for the active target.
func (o *Orchestrator) Issues() issue.List { return o.session.Issues() }

// Remove drops one issue from the current list without re-analysis.
func (o *Orchestrator) Remove(id string) bool { return o.session.Remove(id) }

// Toggle flips the enabled flag and returns the new state. Disabling drops
// pending passes and delivers an empty list.
func (o *Orchestrator) Toggle() bool {
	on := !o.session.Enabled()
	o.SetEnabled(on)
	return on
}

func (o *Orchestrator) SetEnabled(on bool) {
	o.session.SetEnabled(on)
	if on {
		return
	}
	o.input.Stop()
	o.sink.OnResults(o.session.Target(), []issue.Issue{})
}

// Focus makes src the active target. With eager analysis on, a pass over
// the existing content starts in the background.
func (o *Orchestrator) Focus(src textsource.Source) {
	if src == nil || !o.session.Focus(src) {
		return
	}
	o.input.Stop()
	o.log.Debug("focus", "source", src.ID(), "kind", src.Kind())
	if o.eager && o.session.Enabled() {
		go o.analyzeAsync(src)
	}
}

// Input records a change in src. Analysis runs once input has been quiet
// for the debounce delay.
func (o *Orchestrator) Input(src textsource.Source) {
	if src == nil || !o.session.Enabled() {
		return
	}
	o.session.Focus(src)
	o.input.Trigger(func() { o.analyzeAsync(src) })
}

// Flush cancels a pending debounced pass.
func (o *Orchestrator) Flush() bool { return o.input.Stop() }

func (o *Orchestrator) analyzeAsync(src textsource.Source) {
	if _, err := o.AnalyzeNow(context.Background(), src); err != nil && !errors.Is(err, ErrStale) {
		o.log.Warn("analysis failed", "source", src.ID(), "err", err)
	}
}

// AnalyzeNow captures src and runs a pass immediately.
func (o *Orchestrator) AnalyzeNow(ctx context.Context, src textsource.Source) ([]issue.Issue, error) {
	if !o.session.Enabled() {
		return nil, ErrDisabled
	}
	if src == nil {
		return nil, ErrNoTarget
	}
	version := o.session.Begin(src)
	snap, err := textsource.Capture(ctx, src, version)
	if err != nil {
		return nil, err
	}
	return o.AnalyzeSnapshot(ctx, snap)
}

// AnalyzeSnapshot runs a pass over a snapshot taken with a version from
// Session().Begin. The result is committed and delivered to the sink only
// when the snapshot is still current; otherwise ErrStale is returned with
// the computed list.
func (o *Orchestrator) AnalyzeSnapshot(ctx context.Context, snap textsource.Snapshot) ([]issue.Issue, error) {
	issues := o.Analyze(ctx, snap.Text)
	target, ok := o.session.Commit(snap, issues)
	if !ok {
		o.log.Debug("discarding stale results", "source", snap.SourceID, "version", snap.Version)
		return issues, ErrStale
	}
	o.sink.OnResults(target, issues)
	return issues, nil
}

// Analyze checks text and returns the merged list without touching the
// session. Checker failures contribute empty arrays.
func (o *Orchestrator) Analyze(ctx context.Context, text string) []issue.Issue {
	if nonSpaceCount(text) < o.minChars {
		return []issue.Issue{}
	}
	res := o.check(ctx, text)
	res = o.filterKinds(res)
	list := issue.List(o.merger.MergeSnapshot(text, res.Grammar, res.Tone, res.Terminology))
	return list.FilterWords(o.words)
}

// check fans text out to the enabled checkers and joins their results.
func (o *Orchestrator) check(ctx context.Context, text string) checker.Results {
	parts := make([]checker.Results, len(o.checkers))
	var g errgroup.Group
	for i, c := range o.checkers {
		if !o.session.CheckerEnabled(c.Name()) {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			res, err := o.runChecker(ctx, c, text)
			if err != nil {
				o.log.Warn("checker failed", "checker", c.Name(), "err", err, "elapsed", time.Since(start))
				return nil
			}
			parts[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var out checker.Results
	for _, p := range parts {
		out = out.Combine(p)
	}
	return out
}

type checkResult struct {
	res checker.Results
	err error
}

// runChecker bounds c by the per-checker timeout even when c ignores its
// context. A checker that overruns is left to finish on its own.
func (o *Orchestrator) runChecker(ctx context.Context, c checker.Checker, text string) (checker.Results, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	done := make(chan checkResult, 1)
	go func() {
		res, err := c.Check(cctx, text)
		done <- checkResult{res, err}
	}()
	select {
	case r := <-done:
		return r.res, r.err
	case <-cctx.Done():
		return checker.Results{}, fmt.Errorf("%s: %w", c.Name(), cctx.Err())
	}
}

func (o *Orchestrator) filterKinds(r checker.Results) checker.Results {
	if !o.session.KindEnabled(issue.KindGrammar) {
		r.Grammar = nil
	}
	if !o.session.KindEnabled(issue.KindTone) {
		r.Tone = nil
	}
	if !o.session.KindEnabled(issue.KindTerminology) {
		r.Terminology = nil
	}
	return r
}

// FullDocument analyzes pre-segmented blocks as one document. Blocks are
// joined with newlines; issue offsets address the joined text. The result
// does not replace the active target's list.
func (o *Orchestrator) FullDocument(ctx context.Context, blocks []string) (string, []issue.Issue, error) {
	if !o.session.Enabled() {
		return "", nil, ErrDisabled
	}
	doc := strings.Join(blocks, "\n")
	starts := make([]int, len(blocks))
	at := 0
	for i, b := range blocks {
		starts[i] = at
		at += utf8.RuneCountInString(b) + 1
	}

	parts := make([]checker.Results, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blockConcurrency)
	for i, b := range blocks {
		if nonSpaceCount(b) < o.minChars {
			continue
		}
		g.Go(func() error {
			parts[i] = shift(o.filterKinds(o.check(gctx, b)), starts[i])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return doc, nil, err
	}

	var all checker.Results
	for _, p := range parts {
		all = all.Combine(p)
	}
	list := issue.List(o.merger.MergeSnapshot(doc, all.Grammar, all.Tone, all.Terminology))
	return doc, list.FilterWords(o.words), nil
}

func shift(r checker.Results, by int) checker.Results {
	for i := range r.Grammar {
		r.Grammar[i].Offset += by
	}
	for i := range r.Tone {
		r.Tone[i].Offset += by
	}
	for i := range r.Terminology {
		r.Terminology[i].Offset += by
	}
	return r
}

func nonSpaceCount(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
