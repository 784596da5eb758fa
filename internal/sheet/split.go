package sheet

import "strings"

// SplitList splits comma-separated cell text into trimmed tokens. Empty input
// yields an empty slice; empty tokens between commas are kept.
func SplitList(text string) []string {
	if text == "" {
		return []string{}
	}
	parts := strings.Split(text, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
