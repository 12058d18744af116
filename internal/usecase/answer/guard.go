package answer

import (
	"strings"
	"unicode"
)

// factMarkers is the punctuation stripped from token edges before the
// containment lookup.
const factMarkers = ".,;:!?\"'()[]{}"

// functionWords are capitalized only by sentence position, not because they
// name anything. They are exempt from the containment check; everything else
// capitalized is treated as a potential named entity.
var functionWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"i": {}, "he": {}, "she": {}, "it": {}, "we": {}, "you": {}, "they": {},
	"his": {}, "her": {}, "him": {}, "its": {}, "our": {}, "their": {}, "them": {},
	"he's": {}, "she's": {}, "it's": {}, "they're": {},
	"yes": {}, "no": {}, "as": {}, "at": {}, "in": {}, "on": {}, "for": {},
	"and": {}, "but": {}, "also": {}, "currently": {}, "today": {},
	"this": {}, "that": {}, "these": {}, "those": {},
}

// grounded reports whether every fact-bearing token of candidate occurs in
// the grounding text. Fact-bearing means capitalized (names, employers,
// places) or containing a digit (dates, versions, team sizes). The check is
// case-insensitive and deliberately strict: a false rejection downgrades to
// the stored answer, which is always safe, while a false pass would leak
// fabricated content.
func grounded(candidate, grounding string) bool {
	source := strings.ToLower(grounding)

	for _, tok := range strings.Fields(candidate) {
		tok = strings.Trim(tok, factMarkers)
		if tok == "" || !bearsFact(tok) {
			continue
		}
		if !strings.Contains(source, strings.ToLower(tok)) {
			return false
		}
	}
	return true
}

// bearsFact reports whether a token looks like a proper noun or a number.
func bearsFact(tok string) bool {
	if _, ok := functionWords[strings.ToLower(tok)]; ok {
		return false
	}
	for i, r := range tok {
		if i == 0 && unicode.IsUpper(r) {
			return true
		}
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
