package highlighter

import (
	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/query"
	"github.com/Aman-CERP/searchmark/internal/sanitize"
)

type (
	// ParsedQuery is the classification of a raw query.
	ParsedQuery = query.ParsedQuery
	// QueryType is simple, phrase or complex.
	QueryType = query.QueryType
	// Options configures a highlight call. Nil fields use defaults.
	Options = highlight.Options
	// Result is the output of a highlight call.
	Result = highlight.Result
	// Match is one term and its occurrence count.
	Match = highlight.Match
	// FieldType selects a per-field options profile.
	FieldType = highlight.FieldType
)

const (
	QueryTypeSimple  = query.QueryTypeSimple
	QueryTypePhrase  = query.QueryTypePhrase
	QueryTypeComplex = query.QueryTypeComplex

	FieldTitle   = highlight.FieldTitle
	FieldContent = highlight.FieldContent
	FieldAuthor  = highlight.FieldAuthor
	FieldTags    = highlight.FieldTags
)

// Int returns a pointer to v, for Options fields.
func Int(v int) *int { return highlight.Int(v) }

// Bool returns a pointer to v, for Options fields.
func Bool(v bool) *bool { return highlight.Bool(v) }

// ParseSearchQuery classifies q and extracts its phrases and operators.
func ParseSearchQuery(q string) ParsedQuery {
	return query.ParseSearchQuery(q)
}

// ExtractTermsFromQuery returns the match terms of q: phrases first, then
// their words, then bare words, deduplicated case-insensitively.
func ExtractTermsFromQuery(q string) []string {
	return query.ExtractTerms(q)
}

// HighlightText marks the terms of q in text. matchedFields is a display
// hint copied to the result; it never changes what is highlighted.
func HighlightText(text, q string, opts Options, matchedFields ...string) Result {
	return highlight.Text(text, q, opts, matchedFields...)
}

// HighlightWithFieldContext highlights using the profile of field, with
// opts applied on top. Unknown fields use the content profile.
func HighlightWithFieldContext(text, q string, field FieldType, opts Options) Result {
	return highlight.WithFieldContext(text, q, field, opts)
}

// ParseFieldType maps a field name to a FieldType, defaulting to content.
func ParseFieldType(s string) FieldType {
	return highlight.ParseFieldType(s)
}

// Sanitize removes all markup except highlight markers with safe classes.
func Sanitize(markup string) string {
	return sanitize.Sanitize(markup)
}
