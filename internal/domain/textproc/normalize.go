// Package textproc normalizes and chunks extracted document text.
package textproc

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
)

// Sanitize drops invalid UTF-8 bytes and unpaired surrogate code points that
// would make downstream JSON encoding fail. Deterministic, side-effect-free.
func Sanitize(s string) string {
	if utf8.ValidString(s) && !hasSurrogate(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if utf16.IsSurrogate(r) {
			i += size
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func hasSurrogate(s string) bool {
	for _, r := range s {
		if utf16.IsSurrogate(r) {
			return true
		}
	}
	return false
}

// Detect returns AR if the text contains any Arabic-script rune, EN
// otherwise. Script presence is a coarse heuristic: mixed-script text is
// tagged AR as soon as a single Arabic rune appears.
func Detect(s string) domain.Lang {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return domain.LangAR
		}
	}
	return domain.LangEN
}
