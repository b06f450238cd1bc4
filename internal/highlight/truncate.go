package highlight

import "unicode"

// cutPoint chooses where to truncate runes so the output stays near
// s.maxLength. The caller has checked len(runes) > s.maxLength. A result
// of len(runes) means nothing needs cutting.
//
// If the earliest match ends past the limit, the window grows to keep that
// match plus s.trailingContext runes. The cut then snaps back to whitespace
// within s.snapWindow runes, but never into a match that ends before it.
func cutPoint(runes []rune, spans []span, s settings) int {
	n := len(runes)
	cut := s.maxLength

	if len(spans) > 0 && spans[0].end > cut {
		cut = spans[0].end + s.trailingContext
		if cut >= n {
			return n
		}
	}

	floor := 0
	for _, sp := range spans {
		if sp.end > cut {
			break
		}
		floor = sp.end
	}

	if midWord(runes, cut) {
		for i := cut - 1; i >= floor && i > cut-s.snapWindow; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
	}

	for cut > floor && unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	return cut
}

// midWord reports whether cutting before runes[i] splits a word.
func midWord(runes []rune, i int) bool {
	if i <= 0 || i >= len(runes) {
		return false
	}
	return !unicode.IsSpace(runes[i-1]) && !unicode.IsSpace(runes[i])
}
