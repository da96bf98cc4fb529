package harper

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/iw2rmb/proofline/issue"
)

// Rule flags every match of Pattern.
type Rule struct {
	Name    string
	Kind    issue.Kind
	Pattern *regexp.Regexp
	Message func(match string) string
	Suggest func(match string) []string
}

var informal = map[string]string{
	"gonna": "going to",
	"wanna": "want to",
	"gotta": "have to",
	"kinda": "kind of",
	"sorta": "sort of",
}

// DefaultRules flags intensifiers as tone and informal contractions as
// terminology.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "intensifier",
			Kind:    issue.KindTone,
			Pattern: regexp.MustCompile(`(?i)\b(very|really|extremely)\b`),
			Message: func(string) string {
				return "Consider using a more precise word instead of intensifiers"
			},
			Suggest: func(string) []string {
				return []string{"considerably", "significantly"}
			},
		},
		{
			Name:    "informal",
			Kind:    issue.KindTerminology,
			Pattern: regexp.MustCompile(`(?i)\b(gonna|wanna|gotta|kinda|sorta)\b`),
			Message: func(m string) string {
				w := strings.ToLower(m)
				return fmt.Sprintf("Consider using %q instead of informal %q", informal[w], w)
			},
			Suggest: func(m string) []string {
				return []string{informal[strings.ToLower(m)]}
			},
		},
	}
}

// RuleLinter is a Linter driven by regular expression rules.
type RuleLinter struct {
	rules []Rule
}

var _ Linter = (*RuleLinter)(nil)

// NewRuleLinter returns a linter for rules, or for DefaultRules when none
// are given.
func NewRuleLinter(rules ...Rule) *RuleLinter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &RuleLinter{rules: rules}
}

func (l *RuleLinter) Lint(ctx context.Context, text string) (tone, terminology []issue.LintFinding, err error) {
	tone = []issue.LintFinding{}
	terminology = []issue.LintFinding{}
	for _, r := range l.rules {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		found := r.find(text)
		switch r.Kind {
		case issue.KindTone:
			tone = append(tone, found...)
		case issue.KindTerminology:
			terminology = append(terminology, found...)
		}
	}
	byOffset := func(a, b issue.LintFinding) int { return cmp.Compare(a.Offset, b.Offset) }
	slices.SortStableFunc(tone, byOffset)
	slices.SortStableFunc(terminology, byOffset)
	return tone, terminology, nil
}

// find returns the matches of r with rune offsets.
func (r Rule) find(text string) []issue.LintFinding {
	locs := r.Pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]issue.LintFinding, 0, len(locs))
	byteAt, runeAt := 0, 0
	for _, loc := range locs {
		runeAt += utf8.RuneCountInString(text[byteAt:loc[0]])
		byteAt = loc[0]
		m := text[loc[0]:loc[1]]
		f := issue.LintFinding{
			Offset: runeAt,
			Length: utf8.RuneCountInString(m),
			Text:   m,
			Rule:   r.Name,
		}
		if r.Message != nil {
			f.Message = r.Message(m)
		}
		if r.Suggest != nil {
			f.Suggestions = r.Suggest(m)
		}
		out = append(out, f)
	}
	return out
}
