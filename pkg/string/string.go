package string

import (
	"strings"
	"unicode"
)

// Humanize splits a Go or camelCase identifier into lower-case words, so
// "DateNaissance" and "dateNaissance" both read "date naissance" in a
// visitor-facing message. Acronym runs stay together: "SIRETNumber" gives
// "siret number".
func Humanize(ident string) string {
	var b strings.Builder
	runes := []rune(ident)
	for i, r := range runes {
		if r == '_' || r == '-' {
			b.WriteByte(' ')
			continue
		}
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
