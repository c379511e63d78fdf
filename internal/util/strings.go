// Package util provides small shared helpers that don't fit into
// domain-specific packages.
package util

import "strings"

// SafeTruncate safely truncates a string to maxLen characters without
// panicking. Used when logging sensitive values like tokens, where only a
// short prefix should ever appear.
//
// If maxLen is negative, it's treated as 0 and returns an empty string.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// JoinScopes joins OAuth scopes with a single space, skipping empties,
// producing the space-delimited scope list the authorize endpoint expects.
func JoinScopes(scopes []string) string {
	parts := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
