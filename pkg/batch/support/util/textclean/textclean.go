// Package textclean removes invisible characters that commonly leak into the first column of exported text files.
package textclean

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// invisible matches every rune of the Unicode "Other" category (\p{C}): control, format
// (including the byte order mark), surrogate and private use characters.
var invisible = runes.In(unicode.C)

// StripInvisible returns s without any \p{C} rune.
func StripInvisible(s string) string {
	out, _, err := transform.String(runes.Remove(invisible), s)
	if err != nil {
		// runes.Remove never fails on valid input; keep the original on the impossible path.
		return s
	}
	return out
}

// CleanHeader returns a copy of header whose first field has been passed through StripInvisible.
func CleanHeader(header []string) []string {
	out := make([]string, len(header))
	copy(out, header)
	if len(out) > 0 {
		out[0] = StripInvisible(out[0])
	}
	return out
}
