// Package utils holds small string helpers shared by config and clients.
package utils

import "strings"

// SplitList splits s on sep and returns the trimmed non-empty parts.
// Returns nil when nothing is left.
func SplitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
