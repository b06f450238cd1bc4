package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// segment is a run of query text, either inside a matched quote pair or outside one.
type segment struct {
	text   string
	quoted bool
}

// ParseSearchQuery classifies query and extracts its quoted phrases and operators.
// Malformed input (unterminated quotes, stray operators) never fails: an
// unmatched quote is kept as a literal character.
func ParseSearchQuery(query string) ParsedQuery {
	parsed := ParsedQuery{
		QueryType:         QueryTypeSimple,
		PhraseParts:       []string{},
		DetectedOperators: []string{},
	}

	query = Normalize(capQuery(query))
	if strings.TrimSpace(query) == "" {
		return parsed
	}
	parsed.NormalizedQuery = normalize(query)

	for _, seg := range splitQuoted(query) {
		if seg.quoted {
			if strings.TrimSpace(seg.text) == "" {
				continue
			}
			if len(parsed.PhraseParts) < MaxTerms {
				parsed.PhraseParts = append(parsed.PhraseParts, seg.text)
			}
			parsed.WordCount += len(strings.Fields(seg.text))
			continue
		}

		for _, tok := range strings.Fields(seg.text) {
			if isOperator(tok) {
				parsed.DetectedOperators = append(parsed.DetectedOperators, tok)
				continue
			}
			if stripQuotes(tok) == "" {
				continue
			}
			parsed.WordCount++
		}
	}

	parsed.QueryType = classify(parsed)
	return parsed
}

// classify applies the operator/phrase rules. Two operator kinds always win
// over phrases.
func classify(p ParsedQuery) QueryType {
	switch {
	case len(p.DistinctOperators()) >= 2:
		return QueryTypeComplex
	case p.HasPhrases():
		return QueryTypePhrase
	default:
		return QueryTypeSimple
	}
}

// splitQuoted breaks query into bare and quoted segments, left to right.
// Both '"' and '\'' delimit phrases; a quote only opens a phrase at a word
// start and only closes one at a word end, so apostrophes inside words
// ("don't") stay literal.
func splitQuoted(query string) []segment {
	runes := []rune(query)
	var segs []segment
	var bare strings.Builder

	flush := func() {
		if bare.Len() > 0 {
			segs = append(segs, segment{text: bare.String()})
			bare.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isQuote(r) && (i == 0 || !isWordRune(runes[i-1])) {
			if end := closingQuote(runes, i); end > i {
				flush()
				segs = append(segs, segment{text: string(runes[i+1 : end]), quoted: true})
				i = end
				continue
			}
		}
		bare.WriteRune(r)
	}
	flush()

	return segs
}

// closingQuote returns the index of the quote closing the one at open, or -1.
func closingQuote(runes []rune, open int) int {
	q := runes[open]
	for j := open + 1; j < len(runes); j++ {
		if runes[j] != q {
			continue
		}
		if j+1 == len(runes) || !isWordRune(runes[j+1]) {
			return j
		}
	}
	return -1
}

// capQuery cuts query to MaxQueryLength bytes without splitting a rune.
func capQuery(query string) string {
	if len(query) <= MaxQueryLength {
		return query
	}
	cut := MaxQueryLength
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut]
}

// normalize lowercases and collapses whitespace.
func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func isOperator(tok string) bool {
	return tok == OperatorAnd || tok == OperatorOr
}

func isQuote(r rune) bool {
	return r == '"' || r == '\''
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func stripQuotes(tok string) string {
	return strings.Trim(tok, `"'`)
}
