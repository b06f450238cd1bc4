package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FoldRune maps r to the form used for case-insensitive comparison. It is
// rune-for-rune, so offsets into folded text are offsets into the original.
// Multi-rune foldings such as ß to ss are not applied.
func FoldRune(r rune) rune {
	return unicode.ToLower(unicode.ToUpper(r))
}

// FoldKey folds every rune of s with FoldRune. Term dedup and matching
// share it, so two terms collapse exactly when they match the same text.
func FoldKey(s string) string {
	return strings.Map(FoldRune, s)
}

// Normalize puts s in Unicode NFC so composed and decomposed spellings of
// the same character compare equal.
func Normalize(s string) string {
	return norm.NFC.String(s)
}
