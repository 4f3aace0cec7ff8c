package verify

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"
)

// normalizeText prepares a string for fuzzy comparison: Unicode canonical
// composition (NFC), lowercase, everything that is not a letter, digit, or
// space dropped, and whitespace runs collapsed to single separators.
//
// NFC matters for Indic scripts: whisper and the word list may emit the same
// glyph as different codepoint sequences.
func normalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// tokenSortKey splits s into whitespace-delimited tokens, sorts them, and
// joins them back. Comparing token-sort keys makes the score invariant under
// word reordering — toddler speech and transliteration order both vary.
func tokenSortKey(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Score returns the order-independent token similarity between the expected
// string and a transcript, scaled to [0,100].
//
// Both inputs are normalized, token-sorted, and compared with the indel
// ratio 100·2·LCS(a,b)/(|a|+|b|), measured in runes. Word order never
// penalizes the score; character-level mismatches do.
//
// Edge cases per contract: an empty transcript against a non-empty expected
// string scores 0; empty against empty scores 100. The result is never NaN.
func Score(expected, actual string) float64 {
	a := tokenSortKey(normalizeText(expected))
	b := tokenSortKey(normalizeText(actual))

	lenA := utf8.RuneCountInString(a)
	lenB := utf8.RuneCountInString(b)
	if lenA == 0 && lenB == 0 {
		return 100
	}
	if lenA == 0 || lenB == 0 {
		return 0
	}

	lcs := matchr.LongestCommonSubsequence(a, b)
	return 100 * 2 * float64(lcs) / float64(lenA+lenB)
}
