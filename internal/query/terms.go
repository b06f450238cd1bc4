package query

import (
	"strings"
	"unicode/utf8"
)

// ExtractTerms reduces query to an ordered, deduplicated list of match terms.
//
// Order: each phrase followed by its words, phrases in order of appearance,
// then the standalone words. Duplicates are collapsed case-insensitively and
// the first-seen casing wins. Splitting only happens on whitespace and quote
// boundaries, so "node.js" stays one term. Dedup uses FoldKey. Operators are not terms, terms
// shorter than MinTermLength runes are dropped, and at most MaxTerms are returned.
func ExtractTerms(query string) []string {
	query = Normalize(capQuery(query))
	if strings.TrimSpace(query) == "" {
		return []string{}
	}

	c := newTermCollector()
	segs := splitQuoted(query)

	for _, seg := range segs {
		if !seg.quoted {
			continue
		}
		words := strings.Fields(seg.text)
		if len(words) == 0 {
			continue
		}
		c.add(strings.Join(words, " "))
		for _, w := range words {
			c.add(stripQuotes(w))
		}
	}

	for _, seg := range segs {
		if seg.quoted {
			continue
		}
		for _, tok := range strings.Fields(seg.text) {
			if isOperator(tok) {
				continue
			}
			c.add(stripQuotes(tok))
		}
	}

	return c.terms
}

// termCollector accumulates unique terms.
type termCollector struct {
	seen  map[string]bool
	terms []string
}

func newTermCollector() *termCollector {
	return &termCollector{
		seen:  make(map[string]bool),
		terms: []string{},
	}
}

func (c *termCollector) add(term string) {
	if len(c.terms) >= MaxTerms {
		return
	}
	if utf8.RuneCountInString(term) < MinTermLength {
		return
	}
	key := FoldKey(term)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.terms = append(c.terms, term)
}
