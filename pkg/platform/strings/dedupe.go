// Package strings holds small text helpers shared by the form models.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every value, drops blanks and removes repeats compared
// case-insensitively. The first spelling seen wins and order is kept, so
// {" Vol ", "vol", "Incendie"} becomes {"Vol", "Incendie"}.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := values[:0:0]
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
