package command

import "strings"

// shortID returns the first 8 characters of a record ID, the way reviewers
// reference applications in channels.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, max int) string {
	if s == "" {
		return "N/A"
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func bulletList(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	return "- " + strings.Join(items, "\n- ")
}
