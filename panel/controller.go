// Package panel implements the suggestion panel: a Hidden/Shown state
// machine over the current issue list, and a Bubble Tea view for it.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iw2rmb/proofline/apply"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

// MaxSuggestions caps the suggestions offered for one issue.
const MaxSuggestions = 5

var ErrNoIssue = errors.New("panel: no issue shown")

type State int

const (
	StateHidden State = iota
	StateShown
)

func (s State) String() string {
	if s == StateShown {
		return "shown"
	}
	return "hidden"
}

// Learner persists words the user added to the dictionary.
type Learner interface {
	LearnWord(ctx context.Context, word string) error
}

type Options struct {
	Applier *apply.Applier
	Learner Learner
	Logger  *slog.Logger
	// OnRemove is told about every issue that leaves the list through the
	// panel, so the owner of the authoritative list can drop it too.
	OnRemove func(ids ...string)
}

// Controller is the panel state machine. It is owned by one goroutine and
// is not safe for concurrent use.
type Controller struct {
	opt Options
	log *slog.Logger

	issues issue.List
	target textsource.Source
	state  State
	index  int
}

func NewController(opt Options) *Controller {
	if opt.Applier == nil {
		opt.Applier = apply.New(opt.Logger)
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Controller{opt: opt, log: opt.Logger}
}

func (c *Controller) State() State              { return c.state }
func (c *Controller) Index() int                { return c.index }
func (c *Controller) Issues() issue.List        { return c.issues }
func (c *Controller) Len() int                  { return len(c.issues) }
func (c *Controller) Visible() bool             { return c.state == StateShown }
func (c *Controller) Target() textsource.Source { return c.target }

// Reset replaces the list after a new analysis pass. A shown panel stays
// shown at the same index, clamped, or hides when the list is empty.
func (c *Controller) Reset(target textsource.Source, issues []issue.Issue) {
	c.target = target
	c.issues = issue.List(issues)
	if c.state == StateShown {
		c.showClamped(c.index)
	}
}

// DisplayIssue shows the issue with the given id.
func (c *Controller) DisplayIssue(id string) bool {
	_, i, ok := c.issues.Find(id)
	if !ok {
		return false
	}
	c.state = StateShown
	c.index = i
	return true
}

// Next advances to the following issue. At the last index it is a no-op.
func (c *Controller) Next() bool {
	if c.state != StateShown || c.index >= len(c.issues)-1 {
		return false
	}
	c.index++
	return true
}

// Previous steps back. At the first index it is a no-op.
func (c *Controller) Previous() bool {
	if c.state != StateShown || c.index <= 0 {
		return false
	}
	c.index--
	return true
}

func (c *Controller) Hide() {
	c.state = StateHidden
}

func (c *Controller) Current() (issue.Issue, bool) {
	if c.state != StateShown || c.index < 0 || c.index >= len(c.issues) {
		return issue.Issue{}, false
	}
	return c.issues[c.index], true
}

// Suggestions are the non-blank replacements of the current issue, capped
// at MaxSuggestions.
func (c *Controller) Suggestions() []string {
	is, ok := c.Current()
	if !ok {
		return nil
	}
	out := make([]string, 0, min(len(is.Replacements), MaxSuggestions))
	for _, r := range is.Replacements {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, r)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// Status is "i / n" when more than one issue is listed.
func (c *Controller) Status() string {
	if c.state != StateShown || len(c.issues) <= 1 {
		return ""
	}
	return fmt.Sprintf("%d / %d", c.index+1, len(c.issues))
}

// DismissOne removes the current issue and shows the next available one.
func (c *Controller) DismissOne() (string, bool) {
	is, ok := c.Current()
	if !ok {
		return "", false
	}
	c.remove(is.ID)
	return is.ID, true
}

// DismissAll empties the list and hides the panel.
func (c *Controller) DismissAll() []string {
	ids := make([]string, 0, len(c.issues))
	for _, is := range c.issues {
		ids = append(ids, is.ID)
	}
	c.issues = nil
	c.state = StateHidden
	c.index = 0
	if len(ids) > 0 && c.opt.OnRemove != nil {
		c.opt.OnRemove(ids...)
	}
	return ids
}

// ApplyChosen applies replacement for the current issue. On success the
// issue leaves the list and the panel advances; on failure the issue stays
// for the user to dismiss.
func (c *Controller) ApplyChosen(ctx context.Context, replacement string) apply.Result {
	is, ok := c.Current()
	if !ok {
		return apply.Result{Err: ErrNoIssue}
	}
	if c.target == nil {
		return apply.Result{Err: fmt.Errorf("%w: no target", ErrNoIssue)}
	}
	res := c.opt.Applier.Apply(ctx, c.target, is, replacement)
	if res.Success {
		c.remove(is.ID)
	}
	return res
}

// AddToDictionary learns the anchor text of the current issue and drops
// every listed issue with the same anchor.
func (c *Controller) AddToDictionary(ctx context.Context) (string, error) {
	is, ok := c.Current()
	if !ok {
		return "", ErrNoIssue
	}
	word := strings.TrimSpace(is.SnapshotText)
	if word == "" {
		return "", fmt.Errorf("issue %s has no anchor text", is.ID)
	}
	if c.opt.Learner != nil {
		if err := c.opt.Learner.LearnWord(ctx, word); err != nil {
			return "", fmt.Errorf("learn %q: %w", word, err)
		}
	}
	var ids []string
	for _, o := range c.issues {
		if strings.EqualFold(strings.TrimSpace(o.SnapshotText), word) {
			ids = append(ids, o.ID)
		}
	}
	c.remove(ids...)
	return word, nil
}

func (c *Controller) remove(ids ...string) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		c.issues = c.issues.Without(id)
	}
	c.showClamped(c.index)
	if c.opt.OnRemove != nil {
		c.opt.OnRemove(ids...)
	}
}

func (c *Controller) showClamped(i int) {
	if len(c.issues) == 0 {
		c.state = StateHidden
		c.index = 0
		return
	}
	c.state = StateShown
	c.index = min(max(i, 0), len(c.issues)-1)
}
