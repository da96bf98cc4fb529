package editor

import "github.com/charmbracelet/lipgloss"

// Style controls the editor's rendering.
//
// A text cell takes the first style that applies: Cursor, Selection, the
// Decorator's style, then Text. Cursor and Selection inherit whatever they
// leave unset from the decoration below them, so an issue underline stays
// visible under the cursor.
type Style struct {
	Gutter        lipgloss.Style
	LineNum       lipgloss.Style
	LineNumActive lipgloss.Style

	Text      lipgloss.Style
	Selection lipgloss.Style
	Cursor    lipgloss.Style
}

func DefaultStyle() Style {
	gutter := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return Style{
		Gutter:        gutter,
		LineNum:       gutter,
		LineNumActive: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true),
		Text:          lipgloss.NewStyle(),
		Selection:     lipgloss.NewStyle().Background(lipgloss.Color("237")),
		Cursor:        lipgloss.NewStyle().Reverse(true),
	}
}

// cell resolves the style of one text cell.
func (s Style) cell(cursor, selected bool, deco lipgloss.Style, decorated bool) lipgloss.Style {
	base := s.Text
	if decorated {
		base = deco.Inherit(s.Text)
	}
	switch {
	case cursor:
		return s.Cursor.Inherit(base)
	case selected:
		return s.Selection.Inherit(base)
	}
	return base
}
