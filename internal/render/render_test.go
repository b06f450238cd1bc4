package render

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/results"
)

func plainRenderer() *Renderer {
	return NewWithStyles(NoColorStyles(lipgloss.NewRenderer(io.Discard)), false)
}

func TestMarkup_Plain(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "no markers",
			markup: "plain text",
			want:   "plain text",
		},
		{
			name:   "one marker",
			markup: `I love <mark class="search-highlight search-highlight-yellow">Go</mark>!`,
			want:   "I love [Go]!",
		},
		{
			name:   "entities decoded",
			markup: `a &lt;b&gt; &amp; <mark class="search-highlight search-highlight-blue">c</mark>`,
			want:   "a <b> & [c]",
		},
		{
			name:   "unclosed marker closed at end",
			markup: `x <mark class="search-highlight search-highlight-green">y`,
			want:   "x [y]",
		},
		{
			name:   "other tags ignored",
			markup: `<b>bold</b> <mark>m</mark>`,
			want:   "bold [m]",
		},
	}

	r := plainRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Markup(tt.markup))
		})
	}
}

func TestMarkup_RoundTripsEngineOutput(t *testing.T) {
	res := highlight.Text("Tom & Jerry <3 cheese", "cheese jerry", highlight.Options{})

	assert.Equal(t, "Tom & [Jerry] <3 [cheese]", plainRenderer().Markup(res.HTML))
}

func TestMarkup_ColorModeKeepsText(t *testing.T) {
	// An Ascii-profile lipgloss renderer paints nothing, so only the text is left.
	r := NewWithStyles(DefaultStyles(lipgloss.NewRenderer(io.Discard)), true)

	got := r.Markup(`a <mark class="search-highlight search-highlight-pink search-highlight--title">b
c</mark> d`)

	assert.Equal(t, "a b\nc d", got)
	assert.True(t, r.Color())
}

func TestHTML_SanitizesFirst(t *testing.T) {
	got := plainRenderer().HTML(`<script>alert(1)</script><mark class="search-highlight">ok</mark>`)
	assert.Equal(t, "[ok]", got)
}

func TestStyles_MarkStyleVariants(t *testing.T) {
	s := DefaultStyles(lipgloss.NewRenderer(io.Discard))

	assert.True(t, s.markStyle(highlight.ColorBlue, highlight.VariantTitle).GetBold())
	assert.True(t, s.markStyle(highlight.ColorBlue, highlight.VariantAuthor).GetItalic())
	assert.True(t, s.markStyle(highlight.ColorBlue, highlight.VariantTag).GetUnderline())
	assert.False(t, s.markStyle(highlight.ColorBlue, "").GetBold())
	assert.Len(t, s.Marks, highlight.PaletteSize)
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTTY(&buf))
	assert.False(t, IsTTY(nil))
	assert.False(t, UseColor(&buf, false))
	assert.False(t, New(&buf, false).Color())

	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestColorMode(t *testing.T) {
	assert.Equal(t, ColorAlways, ParseColorMode(" Always "))
	assert.Equal(t, ColorNever, ParseColorMode("never"))
	assert.Equal(t, ColorAuto, ParseColorMode("sometimes"))

	var buf bytes.Buffer
	assert.False(t, ColorAuto.Enabled(&buf))
	assert.False(t, ColorNever.Enabled(&buf))

	t.Run("always forces color off a terminal", func(t *testing.T) {
		if DetectNoColor() {
			t.Skip("NO_COLOR set in environment")
		}
		r := NewForMode(&buf, ColorAlways)
		assert.True(t, r.Color())
		assert.Contains(t, r.Markup(`<mark class="search-highlight search-highlight-yellow">go</mark>`), "\x1b[")
	})

	t.Run("NO_COLOR beats always", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.False(t, NewForMode(&buf, ColorAlways).Color())
	})
}

func TestRenderer_Result(t *testing.T) {
	h := results.New(results.Config{})
	hr, err := h.Highlight(t.Context(), results.SearchResult{
		ID:            "doc-1",
		Title:         "Intro to Go",
		Content:       "Go is simple.",
		Tags:          []string{"go", "lang"},
		MatchedFields: []string{"tags"},
	}, "go")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, plainRenderer().Result(&out, hr))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"doc-1",
		"  tags: [go], lang",
		"  title: Intro to [Go]",
		"  content: [Go] is simple.",
		"  3 matches",
	}, lines)
}

func TestRenderer_FieldDegraded(t *testing.T) {
	var out bytes.Buffer
	err := plainRenderer().Field(&out, "content", highlight.Result{HTML: "x", Degraded: true})
	require.NoError(t, err)
	assert.Equal(t, "content: x (plain fallback)\n", out.String())
}
