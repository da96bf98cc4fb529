// Package issue normalizes checker findings into one ordered Issue list.
package issue

import "fmt"

// Kind classifies a finding.
type Kind string

const (
	KindGrammar     Kind = "grammar"
	KindTone        Kind = "tone"
	KindTerminology Kind = "terminology"
)

// Priority is the default precedence of k. Lower values sort first.
// Unknown kinds sort after the built-in ones.
func (k Kind) Priority() int {
	switch k {
	case KindGrammar:
		return 0
	case KindTone:
		return 1
	case KindTerminology:
		return 2
	}
	return 3
}

// Issue is one normalized finding computed against a text snapshot.
// Offset and Length are rune offsets into that snapshot.
type Issue struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Priority int    `json:"priority"`
	Source   string `json:"source"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message"`

	Offset int `json:"offset"`
	Length int `json:"length"`

	// SnapshotText is the anchor text used to re-locate the issue after drift.
	SnapshotText string `json:"snapshotText"`
	// Context is the surrounding text reported by the checker, if any.
	Context string `json:"context,omitempty"`

	Replacements []string `json:"replacements"`
}

// End is Offset+Length.
func (i Issue) End() int { return i.Offset + i.Length }

// Overlaps reports whether the spans of i and o intersect.
func (i Issue) Overlaps(o Issue) bool {
	return i.Offset < o.End() && o.Offset < i.End()
}

func (i Issue) String() string {
	return fmt.Sprintf("%s[%d:%d] %s %q", i.Kind, i.Offset, i.End(), i.ID, i.SnapshotText)
}

// MatchContext is the snippet LanguageTool returns around a match.
// Offset and Length locate the error inside Text.
type MatchContext struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type Replacement struct {
	Value string `json:"value"`
}

// GrammarMatch is the native shape of a grammar finding.
type GrammarMatch struct {
	Offset       int           `json:"offset"`
	Length       int           `json:"length"`
	Message      string        `json:"message"`
	ShortMessage string        `json:"shortMessage,omitempty"`
	Context      MatchContext  `json:"context"`
	Replacements []Replacement `json:"replacements"`
	Rule         string        `json:"rule,omitempty"`
}

// LintFinding is the native shape of a tone or terminology finding.
type LintFinding struct {
	Offset      int      `json:"offset" msgpack:"offset"`
	Length      int      `json:"length" msgpack:"length"`
	Text        string   `json:"text" msgpack:"text"`
	Message     string   `json:"message" msgpack:"message"`
	Suggestions []string `json:"suggestions" msgpack:"suggestions"`
	Rule        string   `json:"rule,omitempty" msgpack:"rule,omitempty"`
}
