package highlight

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/searchmark/internal/sanitize"
	"github.com/Aman-CERP/searchmark/internal/telemetry"
)

const (
	markYellow = `<mark class="search-highlight search-highlight-yellow">`
	markGreen  = `<mark class="search-highlight search-highlight-green">`
	markBlue   = `<mark class="search-highlight search-highlight-blue">`
	markOrange = `<mark class="search-highlight search-highlight-orange">`
)

func fixedStepClock(step time.Duration) telemetry.Clock {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		t := base.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// =============================================================================
// Text: empty inputs
// =============================================================================

func TestText_EmptyText(t *testing.T) {
	res := Text("", "anything", Options{})

	assert.Equal(t, "", res.HTML)
	require.NotNil(t, res.Matches)
	assert.Empty(t, res.Matches)
	assert.False(t, res.Truncated)
	assert.Equal(t, telemetry.Performance{}, res.Performance)
}

func TestText_EmptyQuery(t *testing.T) {
	res := Text("Hello world", "", Options{})

	assert.Equal(t, "Hello world", res.HTML)
	require.NotNil(t, res.Matches)
	assert.Empty(t, res.Matches)
	assert.False(t, res.Truncated)
	assert.Equal(t, 11, res.Performance.ContentLength)
	assert.Equal(t, 0, res.Performance.TermCount)
}

func TestText_EmptyQueryCapped(t *testing.T) {
	res := Text("alpha beta gamma delta", "", Options{MaxLength: Int(8)})

	assert.True(t, res.Truncated)
	assert.Equal(t, "alpha...", res.HTML)
	assert.Empty(t, res.Matches)
}

func TestText_QueryWithOnlyShortTerms(t *testing.T) {
	res := Text("a b c", "a", Options{})
	assert.Equal(t, "a b c", res.HTML)
	assert.Empty(t, res.Matches)
}

// =============================================================================
// Text: matching
// =============================================================================

func TestText_SingleTermCounts(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  int
	}{
		{"mixed case", "Go is great. go GO gopher", "go", 3},
		{"none", "nothing here", "missing", 0},
		{"punctuation around", "(rust), rust. rust!", "rust", 3},
		{"dotted term", "I use node.js and node", "node.js", 1},
		{"unicode", "Café CAFÉ café", "café", 3},
		{"inside word ignored", "cargo ago go", "go", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Text(tt.text, tt.query, Options{})
			require.Len(t, res.Matches, 1)
			assert.Equal(t, tt.want, res.Matches[0].Count)
			assert.Equal(t, tt.want, strings.Count(res.HTML, "<mark "))
		})
	}
}

func TestText_Wraps(t *testing.T) {
	res := Text("Go is fun", "go", Options{})
	assert.Equal(t, markYellow+"Go</mark> is fun", res.HTML)
	assert.Equal(t, []Match{{Term: "go", Count: 1}}, res.Matches)
}

func TestText_PhraseLongestFirst(t *testing.T) {
	res := Text("I love machine learning and machine parts", `"machine learning"`, Options{})

	assert.Equal(t,
		"I love "+markYellow+"machine learning</mark> and "+markBlue+"machine</mark> parts",
		res.HTML)
	assert.Equal(t, []Match{
		{Term: "machine learning", Count: 1},
		{Term: "learning", Count: 1},
		{Term: "machine", Count: 2},
	}, res.Matches)
}

func TestText_PhraseAcrossLineBreak(t *testing.T) {
	res := Text("deep\nlearning", `"deep learning"`, Options{})
	assert.Equal(t, 1, res.Matches[0].Count)
	assert.Equal(t, markYellow+"deep\nlearning</mark>", res.HTML)
}

func TestText_OverlapFirstMatchWins(t *testing.T) {
	res := Text("new york city", `"new york" "york city"`, Options{})

	assert.Equal(t, markOrange+"new</mark> "+markYellow+"york city</mark>", res.HTML)
	for _, m := range res.Matches {
		assert.Equal(t, 1, m.Count, m.Term)
	}
}

func TestText_CaseSensitive(t *testing.T) {
	res := Text("Go go GO", "go", Options{CaseSensitive: Bool(true)})
	assert.Equal(t, 1, res.Matches[0].Count)
	assert.Equal(t, "Go "+markYellow+"go</mark> GO", res.HTML)
}

func TestText_FoldingAgreesWithTermDedup(t *testing.T) {
	// Given: spellings that differ only by case, and one that needs ß to ss
	res := Text("Straße STRAẞE STRASSE", "straße STRASSE", Options{})

	// Then: each extracted term counts exactly the text it folds onto
	assert.ElementsMatch(t, []Match{{Term: "straße", Count: 2}, {Term: "STRASSE", Count: 1}}, res.Matches)
	assert.Equal(t, 3, res.TotalMatches())
}

func TestText_DecomposedTextMatchesComposedTerm(t *testing.T) {
	res := Text("cafe\u0301 au lait", "caf\u00e9", Options{})

	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Count)
	assert.Equal(t, markYellow+"caf\u00e9</mark> au lait", res.HTML)
}

func TestText_DistinctColorsPerTerm(t *testing.T) {
	res := Text("cats and dogs", "cats dogs", Options{})
	assert.Equal(t, markYellow+"cats</mark> and "+markGreen+"dogs</mark>", res.HTML)
}

func TestText_SingleColor(t *testing.T) {
	res := Text("cats and dogs", "cats dogs", Options{SingleColor: Bool(true)})
	assert.Equal(t, 2, strings.Count(res.HTML, markYellow))
}

func TestText_Variant(t *testing.T) {
	res := Text("go", "go", Options{Variant: VariantTag})
	assert.Equal(t, `<mark class="search-highlight search-highlight-yellow search-highlight--tag">go</mark>`, res.HTML)

	res = Text("go", "go", Options{Variant: VariantNone})
	assert.Equal(t, markYellow+"go</mark>", res.HTML)
}

func TestText_MatchedFieldsCarried(t *testing.T) {
	res := Text("go", "go", Options{}, "title", "tags")
	assert.Equal(t, []string{"title", "tags"}, res.MatchedFields)
}

// =============================================================================
// Text: truncation
// =============================================================================

func TestText_TruncationKeepsInRangeMatch(t *testing.T) {
	text := "Search results " + strings.Repeat("filler ", 60)
	res := Text(text, "results", Options{MaxLength: Int(50)})

	assert.True(t, res.Truncated)
	assert.Contains(t, res.HTML, markYellow+"results</mark>")
	assert.True(t, strings.HasSuffix(res.HTML, Ellipsis))
	assert.LessOrEqual(t, len([]rune(strings.TrimSuffix(res.HTML, Ellipsis))), 50+len(markYellow)+len("</mark>"))
}

func TestText_TruncationExtendsPastCrossingMatch(t *testing.T) {
	text := strings.Repeat("word ", 20) + "target tail tail tail tail tail tail"
	res := Text(text, "target", Options{MaxLength: Int(102)})

	assert.True(t, res.Truncated)
	assert.Equal(t, strings.Repeat("word ", 20)+markYellow+"target</mark> tail tail tail tail...", res.HTML)
}

func TestText_TruncationReachesMatchBeyondLimit(t *testing.T) {
	// Given: the only match starts well past max length
	text := strings.Repeat("filler ", 30) + "target word here" + strings.Repeat(" tail", 20)

	// When: truncating to 50 runes
	res := Text(text, "target", Options{MaxLength: Int(50)})

	// Then: the window is extended so the match is still shown
	assert.True(t, res.Truncated)
	assert.Contains(t, res.HTML, markYellow+"target</mark> word here tail tail...")
	assert.Equal(t, []Match{{Term: "target", Count: 1}}, res.Matches)
}

func TestText_ExtensionToEndIsNotTruncated(t *testing.T) {
	text := strings.Repeat("filler ", 30) + "target word here"

	res := Text(text, "target", Options{MaxLength: Int(50)})

	assert.False(t, res.Truncated)
	assert.NotContains(t, res.HTML, Ellipsis)
	assert.True(t, strings.HasSuffix(res.HTML, markYellow+"target</mark> word here"))
}

func TestText_TruncationCountsBeforeCut(t *testing.T) {
	text := "go " + strings.Repeat("x ", 100) + "go"
	res := Text(text, "go", Options{MaxLength: Int(10)})

	assert.Equal(t, 2, res.Matches[0].Count)
	assert.Equal(t, markYellow+"go</mark> x x x x...", res.HTML)
	assert.Equal(t, 205, res.Performance.ContentLength)
}

func TestText_TruncationWithoutEllipsis(t *testing.T) {
	res := Text("alpha beta gamma delta", "", Options{MaxLength: Int(8), ShowEllipsis: Bool(false)})
	assert.True(t, res.Truncated)
	assert.Equal(t, "alpha", res.HTML)
}

func TestText_TruncationNeverSplitsKeptMatch(t *testing.T) {
	res := Text("abcdefghij klmnop", "abcdefghij", Options{MaxLength: Int(12), SnapWindow: Int(30)})
	assert.Equal(t, markYellow+"abcdefghij</mark>...", res.HTML)
}

func TestText_NotTruncatedWhenShort(t *testing.T) {
	res := Text("short text", "text", Options{MaxLength: Int(100)})
	assert.False(t, res.Truncated)
	assert.NotContains(t, res.HTML, Ellipsis)
}

func TestText_ScanCap(t *testing.T) {
	text := strings.Repeat("a", MaxTextLength+100)
	res := Text(text, "zz", Options{})

	assert.True(t, res.Truncated)
	assert.Equal(t, MaxTextLength+100, res.Performance.ContentLength)
	assert.Equal(t, MaxTextLength+len(Ellipsis), len(res.HTML))
}

// =============================================================================
// Text: safety
// =============================================================================

func TestText_EscapesMarkupInText(t *testing.T) {
	res := Text(`<script>alert("x")</script> hello`, "hello", Options{})

	assert.NotContains(t, res.HTML, "<script")
	assert.Contains(t, res.HTML, "&lt;script&gt;")
	assert.Contains(t, res.HTML, markYellow+"hello</mark>")
	assert.False(t, res.Degraded)
}

func TestText_MarkupInQuery(t *testing.T) {
	res := Text("a <b> c", "<b>", Options{})
	assert.Equal(t, "a "+markYellow+"&lt;b&gt;</mark> c", res.HTML)
}

func TestText_MaliciousVariantIsSanitized(t *testing.T) {
	res := Text("go", "go", Options{Variant: Variant(`x" onmouseover="alert(1)`)})
	assert.NotContains(t, res.HTML, "onmouseover")
	assert.True(t, strings.HasPrefix(res.HTML, "<mark class="))
}

func TestText_OutputIsSanitizeFixedPoint(t *testing.T) {
	cases := []struct{ text, query string }{
		{"plain text here", "text"},
		{`it's "quoted" & <tagged>`, `"quoted" it's`},
		{"<img src=x onerror=alert(1)> img", "img"},
		{strings.Repeat("lorem ipsum ", 40), "ipsum lorem"},
		{"tab\tseparated\r\nlines", "separated"},
		{"invalid \xff bytes", "bytes"},
	}

	for _, c := range cases {
		res := Text(c.text, c.query, Options{MaxLength: Int(60)})
		assert.Equal(t, res.HTML, sanitize.Sanitize(res.HTML), "text %q", c.text)
	}
}

// =============================================================================
// Performance
// =============================================================================

func TestText_Performance(t *testing.T) {
	h := New(WithClock(fixedStepClock(time.Millisecond)))

	res := h.Text("héllo wörld", "héllo wörld", Options{})

	assert.InDelta(t, 1.0, res.Performance.ExecutionTime, 1e-9)
	assert.Equal(t, 2, res.Performance.TermCount)
	assert.Equal(t, 11, res.Performance.ContentLength)
}

func TestText_NoClock(t *testing.T) {
	h := New(WithClock(nil))
	res := h.Text("go", "go", Options{})
	assert.Equal(t, 0.0, res.Performance.ExecutionTime)

	var zero Highlighter
	assert.Equal(t, 0.0, zero.Text("go", "go", Options{}).Performance.ExecutionTime)
}

// =============================================================================
// Field context
// =============================================================================

func TestWithFieldContext_Title(t *testing.T) {
	res := WithFieldContext("Machine learning basics", "machine basics", FieldTitle, Options{})

	title := `<mark class="search-highlight search-highlight-yellow search-highlight--title">`
	assert.Equal(t, title+"Machine</mark> learning "+title+"basics</mark>", res.HTML)
}

func TestWithFieldContext_Limits(t *testing.T) {
	long := strings.Repeat("tag ", 20)

	tests := []struct {
		field FieldType
		max   int
	}{
		{FieldTitle, 100},
		{FieldAuthor, 30},
		{FieldTags, 15},
		{FieldContent, 200},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			text := strings.Repeat(long, 5)
			res := WithFieldContext(text, "", tt.field, Options{ShowEllipsis: Bool(false)})
			assert.True(t, res.Truncated)
			assert.LessOrEqual(t, len([]rune(res.HTML)), tt.max)
		})
	}
}

func TestWithFieldContext_OverrideWins(t *testing.T) {
	text := "golang generics explained in depth"

	res := WithFieldContext(text, "generics", FieldTags, Options{})
	assert.True(t, res.Truncated)

	res = WithFieldContext(text, "generics", FieldTags, Options{MaxLength: Int(100)})
	assert.False(t, res.Truncated)
	assert.Contains(t, res.HTML, "search-highlight--tag")
}

func TestWithFieldContext_UnknownFieldUsesContent(t *testing.T) {
	text := strings.Repeat("word ", 100)
	a := WithFieldContext(text, "word", FieldType("bogus"), Options{})
	b := WithFieldContext(text, "word", FieldContent, Options{})
	assert.Equal(t, b.HTML, a.HTML)
}

// =============================================================================
// Concurrency
// =============================================================================

func TestText_Concurrent(t *testing.T) {
	want := Text("concurrent highlighting works", "highlighting works", Options{}).HTML

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := Text("concurrent highlighting works", "highlighting works", Options{}).HTML
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}
