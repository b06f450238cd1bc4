// Package results highlights upstream search results field by field.
//
// A SearchResult arrives from a search backend with an optional hint of
// which fields already matched and a descriptor of how the query was
// classified. The hint only decides display grouping; every field is
// highlighted the same way regardless.
package results

import (
	"strings"
	"time"

	"github.com/Aman-CERP/searchmark/internal/highlight"
	"github.com/Aman-CERP/searchmark/internal/query"
)

// SearchContext mirrors the classification of the query that produced a
// result.
type SearchContext struct {
	QueryType       query.QueryType `json:"query_type" yaml:"query_type"`
	NormalizedQuery string          `json:"normalized_query" yaml:"normalized_query"`
	ExecutionTimeMs float64         `json:"execution_time_ms" yaml:"execution_time_ms"`
}

// NewSearchContext builds a context from a parsed query and the time the
// upstream search took.
func NewSearchContext(p query.ParsedQuery, elapsed time.Duration) SearchContext {
	ms := float64(elapsed) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	return SearchContext{
		QueryType:       p.QueryType,
		NormalizedQuery: p.NormalizedQuery,
		ExecutionTimeMs: ms,
	}
}

// SearchResult is one item returned by an upstream search.
type SearchResult struct {
	ID            string         `json:"id" yaml:"id"`
	Title         string         `json:"title" yaml:"title"`
	Content       string         `json:"content" yaml:"content"`
	Author        string         `json:"author,omitempty" yaml:"author,omitempty"`
	Tags          []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	MatchedFields []string       `json:"matched_fields,omitempty" yaml:"matched_fields,omitempty"`
	SearchContext *SearchContext `json:"search_context,omitempty" yaml:"search_context,omitempty"`
}

// HighlightedResult holds the highlighted fields of one SearchResult.
type HighlightedResult struct {
	ID      string             `json:"id" yaml:"id"`
	Title   highlight.Result   `json:"title" yaml:"title"`
	Content highlight.Result   `json:"content" yaml:"content"`
	Author  highlight.Result   `json:"author" yaml:"author"`
	Tags    []highlight.Result `json:"tags" yaml:"tags"`

	// Primary lists the hinted fields in hint order; Secondary the rest.
	Primary   []highlight.FieldType `json:"primary_fields" yaml:"primary_fields"`
	Secondary []highlight.FieldType `json:"secondary_fields" yaml:"secondary_fields"`

	SearchContext *SearchContext `json:"search_context,omitempty" yaml:"search_context,omitempty"`
}

// TotalMatches sums occurrences across every field.
func (h HighlightedResult) TotalMatches() int {
	n := h.Title.TotalMatches() + h.Content.TotalMatches() + h.Author.TotalMatches()
	for _, t := range h.Tags {
		n += t.TotalMatches()
	}
	return n
}

// Truncated reports whether any field was cut.
func (h HighlightedResult) Truncated() bool {
	if h.Title.Truncated || h.Content.Truncated || h.Author.Truncated {
		return true
	}
	for _, t := range h.Tags {
		if t.Truncated {
			return true
		}
	}
	return false
}

// knownField parses a matched-field hint. Unlike highlight.ParseFieldType
// it rejects unknown names instead of mapping them to content.
func knownField(s string) (highlight.FieldType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return highlight.FieldTitle, true
	case "content", "body":
		return highlight.FieldContent, true
	case "author":
		return highlight.FieldAuthor, true
	case "tags", "tag":
		return highlight.FieldTags, true
	default:
		return "", false
	}
}

// groupFields splits the four field types by the matched-field hint.
// Unknown hint entries are returned separately.
func groupFields(hint []string) (primary, secondary []highlight.FieldType, unknown []string) {
	seen := make(map[highlight.FieldType]bool, len(hint))
	for _, h := range hint {
		f, ok := knownField(h)
		if !ok {
			unknown = append(unknown, h)
			continue
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		primary = append(primary, f)
	}
	for _, f := range highlight.Fields() {
		if !seen[f] {
			secondary = append(secondary, f)
		}
	}
	if primary == nil {
		primary = []highlight.FieldType{}
	}
	if secondary == nil {
		secondary = []highlight.FieldType{}
	}
	return primary, secondary, unknown
}
