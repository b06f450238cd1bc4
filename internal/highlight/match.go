package highlight

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Aman-CERP/searchmark/internal/query"
)

// span is a claimed rune range [start, end) wrapped in one marker.
type span struct {
	start, end int
	color      Color
}

// matcher finds term occurrences in a rune slice. Positions are rune
// indexes; the search itself runs on a re-encoded string so strings.Index
// does the heavy lifting.
type matcher struct {
	runes      []rune
	haystack   string
	byteToRune []int32
	claimed    []bool
	fold       bool
}

func newMatcher(runes []rune, caseSensitive bool) *matcher {
	m := &matcher{
		runes:   runes,
		claimed: make([]bool, len(runes)),
		fold:    !caseSensitive,
	}

	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		b.WriteRune(m.normalize(r))
	}
	m.haystack = b.String()

	m.byteToRune = make([]int32, len(m.haystack)+1)
	bi := 0
	for ri := 0; ri < len(runes); ri++ {
		size := utf8.RuneLen(m.normalize(runes[ri]))
		if size < 0 {
			size = utf8.RuneLen(utf8.RuneError)
		}
		for k := 0; k < size; k++ {
			m.byteToRune[bi+k] = int32(ri)
		}
		bi += size
	}
	m.byteToRune[len(m.haystack)] = int32(len(runes))

	return m
}

// normalize maps one rune to one rune, so rune indexes survive. Whitespace
// becomes a plain space so phrases match across line breaks.
func (m *matcher) normalize(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	if m.fold {
		return query.FoldRune(r)
	}
	return r
}

func (m *matcher) needle(term string) (string, []rune) {
	tr := []rune(term)
	var b strings.Builder
	for i, r := range tr {
		tr[i] = m.normalize(r)
		b.WriteRune(tr[i])
	}
	return b.String(), tr
}

// find returns every whole-word, non-overlapping occurrence of term.
func (m *matcher) find(term string) [][2]int {
	needle, tr := m.needle(term)
	if len(tr) == 0 {
		return nil
	}
	checkStart := isWordRune(tr[0])
	checkEnd := isWordRune(tr[len(tr)-1])

	var out [][2]int
	offset := 0
	for offset <= len(m.haystack)-len(needle) {
		idx := strings.Index(m.haystack[offset:], needle)
		if idx < 0 {
			break
		}
		b := offset + idx
		start := int(m.byteToRune[b])
		end := start + len(tr)

		if (!checkStart || start == 0 || !isWordRune(m.runes[start-1])) &&
			(!checkEnd || end == len(m.runes) || !isWordRune(m.runes[end])) {
			out = append(out, [2]int{start, end})
			offset = b + len(needle)
			continue
		}
		_, size := utf8.DecodeRuneInString(m.haystack[b:])
		offset = b + size
	}
	return out
}

// claim marks [start, end) as wrapped unless any rune in it already is.
func (m *matcher) claim(start, end int) bool {
	for i := start; i < end; i++ {
		if m.claimed[i] {
			return false
		}
	}
	for i := start; i < end; i++ {
		m.claimed[i] = true
	}
	return true
}

// matchTerms counts every occurrence of each term and claims spans in term
// order, so earlier terms win overlaps. Spans come back sorted by start.
func matchTerms(runes []rune, terms []string, s settings) ([]span, []Match) {
	m := newMatcher(runes, s.caseSensitive)
	matches := make([]Match, 0, len(terms))
	var spans []span

	for slot, term := range terms {
		color := ColorForSlot(slot)
		if s.singleColor {
			color = ColorForSlot(0)
		}

		occ := m.find(term)
		matches = append(matches, Match{Term: term, Count: len(occ)})
		for _, o := range occ {
			if m.claim(o[0], o[1]) {
				spans = append(spans, span{start: o[0], end: o[1], color: color})
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans, matches
}

// sortByLength orders terms longest first, keeping extraction order for ties.
func sortByLength(terms []string) []string {
	out := append([]string(nil), terms...)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r)
}
