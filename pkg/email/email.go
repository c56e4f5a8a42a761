// Package email derives a displayable first/last name from an address, for
// reminder jobs whose entity record carries no usable name.
package email

import (
	"strings"
	"unicode"
)

const fallback = "User"

// DeriveNameFromEmail splits the local part of an address on common
// separators and title-cases the first and last pieces. Addresses with a
// single piece get the fallback surname; unusable input falls back entirely.
func DeriveNameFromEmail(address string) (first, last string) {
	local, _, _ := strings.Cut(address, "@")

	pieces := strings.FieldsFunc(local, func(r rune) bool {
		switch r {
		case '.', '_', '-', '+':
			return true
		}
		return false
	})
	if len(pieces) == 0 {
		return fallback, fallback
	}

	first = title(pieces[0])
	last = fallback
	if len(pieces) > 1 {
		last = title(pieces[len(pieces)-1])
	}
	return first, last
}

func title(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
