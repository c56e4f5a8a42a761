// Package strings holds small string-slice helpers shared across features.
package strings

import "strings"

// DedupeAndTrim trims each element, drops empties, and removes duplicates
// while keeping first-seen order. Used when joining document display names
// into notification messages.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
