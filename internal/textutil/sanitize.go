package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName turns a recording title into a safe base file name.
// Path separators, colons and asterisks become dashes; quotes, angle
// brackets, pipes, question marks and control characters are dropped.
// Whitespace runs collapse to one space and leading dots are removed so the
// result is never a hidden file.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	cleaned := strings.Join(strings.Fields(mapped), " ")
	return strings.TrimSpace(strings.TrimLeft(cleaned, "."))
}
