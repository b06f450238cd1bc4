// Package highlight marks search terms inside field text.
//
// Text runs the full pipeline for one piece of text: terms are extracted
// from the query, matched longest first at word boundaries, wrapped in
// <mark> elements colored from a fixed palette, truncated around the first
// match, and finally passed through the sanitizer. WithFieldContext applies
// a per-field option profile first.
//
// Lengths and positions are counted in runes. The engine keeps no state
// between calls and never logs; a Highlighter is safe for concurrent use.
package highlight

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/Aman-CERP/searchmark/internal/query"
	"github.com/Aman-CERP/searchmark/internal/sanitize"
	"github.com/Aman-CERP/searchmark/internal/telemetry"
)

// MaxTextLength caps how many runes of input are scanned per call. Longer
// text is cut and reported as truncated.
const MaxTextLength = 50000

// Ellipsis is appended to truncated output.
const Ellipsis = "..."

// Match is the occurrence count of one term in the untruncated text.
type Match struct {
	Term  string `json:"term" yaml:"term"`
	Count int    `json:"count" yaml:"count"`
}

// Result is the outcome of one highlight call. HTML has always been
// through the sanitizer.
type Result struct {
	HTML          string                `json:"html" yaml:"html"`
	Matches       []Match               `json:"matches" yaml:"matches"`
	Truncated     bool                  `json:"truncated" yaml:"truncated"`
	Performance   telemetry.Performance `json:"performance" yaml:"performance"`
	MatchedFields []string              `json:"matchedFields,omitempty" yaml:"matched_fields,omitempty"`
	// Degraded is set when sanitizing failed and HTML is the escaped plain text.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// TotalMatches sums the counts of all terms.
func (r Result) TotalMatches() int {
	total := 0
	for _, m := range r.Matches {
		total += m.Count
	}
	return total
}

// Highlighter runs highlight calls. The zero value records no execution time.
type Highlighter struct {
	clock telemetry.Clock
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithClock sets the timer used for Performance.ExecutionTime. A nil clock
// disables timing.
func WithClock(clock telemetry.Clock) Option {
	return func(h *Highlighter) {
		h.clock = clock
	}
}

// New returns a Highlighter timed by the system clock.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{clock: telemetry.SystemClock}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var defaultHighlighter = New()

// Text highlights q in text using the default Highlighter.
func Text(text, q string, opts Options, matchedFields ...string) Result {
	return defaultHighlighter.Text(text, q, opts, matchedFields...)
}

// WithFieldContext highlights q in text using the field's profile.
func WithFieldContext(text, q string, field FieldType, override Options) Result {
	return defaultHighlighter.WithFieldContext(text, q, field, override)
}

// WithFieldContext merges override over the field's profile and highlights.
// Fields set in override always win.
func (h *Highlighter) WithFieldContext(text, q string, field FieldType, override Options) Result {
	return h.Text(text, q, ParseFieldType(string(field)).Profile().Merge(override))
}

// Text highlights the terms of q in text. matchedFields is carried through
// to the result for display grouping and does not affect matching.
func (h *Highlighter) Text(text, q string, opts Options, matchedFields ...string) Result {
	res := Result{Matches: []Match{}}
	if len(matchedFields) > 0 {
		res.MatchedFields = append([]string(nil), matchedFields...)
	}
	if text == "" {
		return res
	}

	rec := telemetry.StartRecorder(h.clock)
	s := opts.resolve()

	runes := []rune(strings.ToValidUTF8(text, string(utf8.RuneError)))
	contentLength := len(runes)
	if len(runes) > MaxTextLength {
		runes = runes[:MaxTextLength]
		res.Truncated = true
	}
	runes = []rune(query.Normalize(string(runes)))

	terms := sortByLength(query.ExtractTerms(q))

	var spans []span
	if len(terms) > 0 {
		spans, res.Matches = matchTerms(runes, terms, s)
	}

	cut := len(runes)
	if s.maxLength > 0 && len(runes) > s.maxLength {
		cut = cutPoint(runes, spans, s)
		if cut < len(runes) {
			res.Truncated = true
		}
	}

	suffix := ""
	if res.Truncated && s.showEllipsis {
		suffix = Ellipsis
	}

	markup := renderMarkup(runes[:cut], spans, s.variant) + suffix
	res.HTML, res.Degraded = sanitize.WithFallback(markup, string(runes[:cut])+suffix)
	res.Performance = rec.Finish(len(terms), contentLength)
	return res
}

// renderMarkup escapes runes and wraps every span that fits inside them.
func renderMarkup(runes []rune, spans []span, v Variant) string {
	var b strings.Builder
	b.Grow(len(runes) + len(spans)*64)

	pos := 0
	for _, sp := range spans {
		if sp.end > len(runes) {
			break
		}
		b.WriteString(html.EscapeString(string(runes[pos:sp.start])))
		b.WriteString(`<mark class="`)
		b.WriteString(markerClass(sp.color, v))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(string(runes[sp.start:sp.end])))
		b.WriteString("</mark>")
		pos = sp.end
	}
	b.WriteString(html.EscapeString(string(runes[pos:])))

	return b.String()
}
