// Package query parses free-form search queries into phrases, boolean
// operators and match terms for the highlighter.
//
// Everything in this package is a pure function of its input: no caching,
// no configuration lookups and no logging. All functions are safe for
// concurrent use.
package query

// QueryType classifies the shape of a search query.
type QueryType string

const (
	// QueryTypeSimple is a plain bag of words, or a query with one operator kind and no phrases.
	QueryTypeSimple QueryType = "simple"
	// QueryTypePhrase contains at least one quoted phrase and at most one operator kind.
	QueryTypePhrase QueryType = "phrase"
	// QueryTypeComplex mixes two or more distinct boolean operators.
	QueryTypeComplex QueryType = "complex"
)

// Boolean operators recognized outside quoted spans. Matching is
// case-sensitive: "and" is a word, "AND" is an operator.
const (
	OperatorAnd = "AND"
	OperatorOr  = "OR"
)

// Per-call work caps. Queries longer than MaxQueryLength bytes are cut on a
// rune boundary before scanning.
const (
	MaxQueryLength = 1024
	MaxTerms       = 32
	MinTermLength  = 2
)

// ParsedQuery is the classification of a single raw query.
type ParsedQuery struct {
	QueryType         QueryType `json:"query_type" yaml:"query_type"`
	PhraseParts       []string  `json:"phrase_parts" yaml:"phrase_parts"`
	DetectedOperators []string  `json:"detected_operators" yaml:"detected_operators"`
	WordCount         int       `json:"word_count" yaml:"word_count"`
	NormalizedQuery   string    `json:"normalized_query" yaml:"normalized_query"`
}

// IsEmpty reports whether the query carried no words or phrases.
func (p ParsedQuery) IsEmpty() bool {
	return p.WordCount == 0 && len(p.PhraseParts) == 0
}

// HasPhrases reports whether any quoted phrase was extracted.
func (p ParsedQuery) HasPhrases() bool {
	return len(p.PhraseParts) > 0
}

// DistinctOperators returns the operator kinds in order of first appearance.
func (p ParsedQuery) DistinctOperators() []string {
	seen := make(map[string]bool, len(p.DetectedOperators))
	var kinds []string
	for _, op := range p.DetectedOperators {
		if !seen[op] {
			seen[op] = true
			kinds = append(kinds, op)
		}
	}
	return kinds
}

// String returns the query type as a string.
func (t QueryType) String() string {
	return string(t)
}
