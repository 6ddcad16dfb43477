// Package textset splits free text into an ordered set of tokens.
package textset

import "strings"

// Extract splits text on runs of tabs, spaces, newlines and commas and returns
// the distinct tokens in first-seen order. Empty input yields an empty slice.
func Extract(text string) []string {
	out := []string{}
	if len(text) == 0 {
		return out
	}

	parts := strings.FieldsFunc(text, isSeparator)
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func isSeparator(r rune) bool {
	switch r {
	case '\t', ' ', '\n', ',':
		return true
	default:
		return false
	}
}
