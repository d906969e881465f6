package tui

import "strings"

// truncateEnd shortens s to at most limit characters, appending an ellipsis
// if truncation occurs.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s around a single ellipsis. Used for
// ids and URLs where the tail matters.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left <= 0 {
		return "…" + string(r[n-right:])
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}

// singleLine collapses newlines, tabs and repeated spaces.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeInput trims and bounds text typed into the search form.
func sanitizeInput(input string) string {
	input = singleLine(input)
	if r := []rune(input); len(r) > 256 {
		input = string(r[:256])
	}
	return strings.TrimSpace(input)
}
