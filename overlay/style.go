package overlay

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/proofline/issue"
)

// Underline colors per issue kind.
var (
	ColorGrammar     = lipgloss.Color("#ff4d4d")
	ColorTone        = lipgloss.Color("#4d79ff")
	ColorTerminology = lipgloss.Color("#b84dff")
	ColorUnknown     = lipgloss.Color("#999999")
)

func ColorFor(k issue.Kind) lipgloss.Color {
	switch k {
	case issue.KindGrammar:
		return ColorGrammar
	case issue.KindTone:
		return ColorTone
	case issue.KindTerminology:
		return ColorTerminology
	}
	return ColorUnknown
}

// StyleFor is the cell decoration drawn under text flagged with kind k.
func StyleFor(k issue.Kind) lipgloss.Style {
	return lipgloss.NewStyle().Underline(true).Foreground(ColorFor(k))
}
