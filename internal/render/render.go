// Package render draws sanitized highlight markup on a terminal.
//
// Input is assumed to come out of the sanitizer, so the only element
// expected is the marker tag. Anything else is ignored and its text kept.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/results"
	"github.com/Aman-CERP/searchmark/internal/sanitize"
)

// Plain-mode brackets around each match.
const (
	OpenBracket  = "["
	CloseBracket = "]"
)

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// UseColor decides whether output to w should be colored.
func UseColor(w io.Writer, noColor bool) bool {
	return !noColor && !DetectNoColor() && IsTTY(w)
}

// ColorMode is the output.color setting.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode maps a config value to a ColorMode. Unknown values are auto.
func ParseColorMode(s string) ColorMode {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAlways, ColorNever:
		return m
	default:
		return ColorAuto
	}
}

// Enabled reports whether mode colors output to w. NO_COLOR beats always.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorNever:
		return false
	case ColorAlways:
		return !DetectNoColor()
	default:
		return UseColor(w, false)
	}
}

// Renderer converts highlight markup into terminal text.
type Renderer struct {
	styles Styles
	color  bool
}

// New creates a renderer for w. Color is used only when UseColor allows it.
func New(w io.Writer, noColor bool) *Renderer {
	color := UseColor(w, noColor)
	r := lipgloss.NewRenderer(w)
	if color {
		return &Renderer{styles: DefaultStyles(r), color: true}
	}
	return &Renderer{styles: NoColorStyles(r)}
}

// NewForMode creates a renderer for w honoring mode. ColorAlways forces a
// 256-color profile even when w is not a terminal.
func NewForMode(w io.Writer, mode ColorMode) *Renderer {
	if !mode.Enabled(w) {
		return &Renderer{styles: NoColorStyles(lipgloss.NewRenderer(w))}
	}
	r := lipgloss.NewRenderer(w)
	if mode == ColorAlways {
		r.SetColorProfile(termenv.ANSI256)
	}
	return &Renderer{styles: DefaultStyles(r), color: true}
}

// NewWithStyles creates a renderer with explicit styles.
func NewWithStyles(styles Styles, color bool) *Renderer {
	return &Renderer{styles: styles, color: color}
}

// Color reports whether the renderer emits colors.
func (r *Renderer) Color() bool {
	return r.color
}

type marker struct {
	color   highlight.Color
	variant highlight.Variant
}

// Markup renders highlight markup. In plain mode every match is wrapped in
// brackets; in color mode it is painted with its palette color.
func (r *Renderer) Markup(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		b     strings.Builder
		stack []marker
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			for range stack {
				if !r.color {
					b.WriteString(CloseBracket)
				}
			}
			return b.String()

		case html.TextToken:
			text := string(z.Text())
			if len(stack) == 0 {
				b.WriteString(text)
				continue
			}
			if !r.color {
				b.WriteString(text)
				continue
			}
			top := stack[len(stack)-1]
			b.WriteString(r.paint(text, r.styles.markStyle(top.color, top.variant)))

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.Mark {
				continue
			}
			m := marker{color: highlight.ColorYellow}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "class" {
					m.color, _ = highlight.ColorFromClass(string(val))
					m.variant = highlight.VariantFromClass(string(val))
				}
			}
			stack = append(stack, m)
			if !r.color {
				b.WriteString(OpenBracket)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) != atom.Mark || len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			if !r.color {
				b.WriteString(CloseBracket)
			}
		}
	}
}

// paint styles each line separately so lipgloss does not pad lines to a
// common width.
func (r *Renderer) paint(text string, st lipgloss.Style) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = st.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// HTML renders raw (unsanitized) markup by sanitizing it first.
func (r *Renderer) HTML(markup string) string {
	return r.Markup(sanitize.Sanitize(markup))
}

// =============================================================================
// Results
// =============================================================================

// Field writes one labeled field.
func (r *Renderer) Field(w io.Writer, label string, res highlight.Result) error {
	suffix := ""
	if res.Degraded {
		suffix = " " + r.styles.Warning.Render("(plain fallback)")
	}
	_, err := fmt.Fprintf(w, "%s %s%s\n", r.styles.Label.Render(label+":"), r.Markup(res.HTML), suffix)
	return err
}

// Result writes a highlighted search result, hinted fields first.
func (r *Renderer) Result(w io.Writer, hr results.HighlightedResult) error {
	if _, err := fmt.Fprintln(w, r.styles.Header.Render(hr.ID)); err != nil {
		return err
	}
	for _, f := range append(append([]highlight.FieldType{}, hr.Primary...), hr.Secondary...) {
		if err := r.resultField(w, hr, f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, r.styles.Dim.Render(fmt.Sprintf("  %d matches", hr.TotalMatches())))
	return err
}

func (r *Renderer) resultField(w io.Writer, hr results.HighlightedResult, f highlight.FieldType) error {
	switch f {
	case highlight.FieldTitle:
		return r.Field(w, "  title", hr.Title)
	case highlight.FieldContent:
		return r.Field(w, "  content", hr.Content)
	case highlight.FieldAuthor:
		if hr.Author.HTML == "" {
			return nil
		}
		return r.Field(w, "  author", hr.Author)
	case highlight.FieldTags:
		if len(hr.Tags) == 0 {
			return nil
		}
		tags := make([]string, len(hr.Tags))
		for i, t := range hr.Tags {
			tags[i] = r.Markup(t.HTML)
		}
		_, err := fmt.Fprintf(w, "%s %s\n", r.styles.Label.Render("  tags:"), strings.Join(tags, ", "))
		return err
	}
	return nil
}
