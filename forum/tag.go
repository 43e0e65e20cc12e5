package forum

import (
	"slices"
	"strings"
)

const maxTagsPerPost = 10

// NormalizeTags lowercases, trims, and dedupes tag names, dropping empties.
// Order of first occurrence is preserved.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}

		if slices.Contains(normalized, tag) {
			continue
		}

		normalized = append(normalized, tag)
	}

	if len(normalized) > maxTagsPerPost {
		normalized = normalized[:maxTagsPerPost]
	}

	return normalized
}
