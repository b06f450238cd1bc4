package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/searchmark/internal/highlight"
)

// Terminal colors for the surrounding chrome.
const (
	ColorLabel   = "245" // field labels
	ColorDim     = "238" // separators, secondary fields
	ColorWarning = "220" // degraded output notices
	ColorInk     = "#1a1a1a"
)

// Styles holds the lipgloss styles used to draw highlighted results.
type Styles struct {
	Marks   map[highlight.Color]lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
	Header  lipgloss.Style
}

// DefaultStyles returns palette-colored styles bound to r.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	marks := make(map[highlight.Color]lipgloss.Style, highlight.PaletteSize)
	for _, c := range highlight.Palette() {
		marks[c] = r.NewStyle().
			Background(lipgloss.Color(c.Hex())).
			Foreground(lipgloss.Color(ColorInk)).
			TabWidth(lipgloss.NoTabConversion)
	}
	return Styles{
		Marks:   marks,
		Label:   r.NewStyle().Foreground(lipgloss.Color(ColorLabel)),
		Dim:     r.NewStyle().Foreground(lipgloss.Color(ColorDim)),
		Warning: r.NewStyle().Foreground(lipgloss.Color(ColorWarning)),
		Header:  r.NewStyle().Bold(true),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles(r *lipgloss.Renderer) Styles {
	marks := make(map[highlight.Color]lipgloss.Style, highlight.PaletteSize)
	for _, c := range highlight.Palette() {
		marks[c] = r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	}
	return Styles{
		Marks:   marks,
		Label:   r.NewStyle(),
		Dim:     r.NewStyle(),
		Warning: r.NewStyle(),
		Header:  r.NewStyle(),
	}
}

// markStyle returns the style for a marker, decorated for its variant.
func (s Styles) markStyle(c highlight.Color, v highlight.Variant) lipgloss.Style {
	st, ok := s.Marks[c]
	if !ok {
		st = s.Marks[highlight.ColorForSlot(0)]
	}
	switch v {
	case highlight.VariantTitle:
		st = st.Bold(true)
	case highlight.VariantAuthor:
		st = st.Italic(true)
	case highlight.VariantTag:
		st = st.Underline(true)
	}
	return st
}
