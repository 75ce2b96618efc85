package util

import (
	"strings"
)

// ParseNames splits free-form input into full names, one per line or
// semicolon. Inner whitespace is collapsed, blank entries are dropped, and
// repeated names (compared case-insensitively) keep their first occurrence.
func ParseNames(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ';'
	})

	seen := make(map[string]bool, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		name := strings.Join(strings.Fields(f), " ")
		if name == "" {
			continue
		}
		key := NormalizeKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// Initials returns up to two leading letters of name, e.g. "ИИ" for
// "Иван Иванов".
func Initials(name string) string {
	var b strings.Builder
	for i, part := range strings.Fields(name) {
		if i == 2 {
			break
		}
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(b.String())
}
