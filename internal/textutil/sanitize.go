package textutil

import "strings"

// quoteCutset covers wrapping characters models add around short answers.
const quoteCutset = "\"'`*_“”‘’"

// StripQuotes trims whitespace and any surrounding quote or markdown emphasis
// characters, repeatedly, so `**"Sony CDP-227ESD"**` becomes `Sony CDP-227ESD`.
func StripQuotes(value string) string {
	value = strings.TrimSpace(value)
	for {
		trimmed := strings.TrimSpace(strings.Trim(value, quoteCutset))
		if trimmed == value {
			return value
		}
		value = trimmed
	}
}

// FirstLine returns the first non-blank line of value, trimmed.
func FirstLine(value string) string {
	for _, line := range strings.Split(value, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// CollapseSpace replaces runs of whitespace with a single space.
func CollapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
