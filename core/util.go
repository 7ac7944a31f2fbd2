package core

import (
	"strings"

	"github.com/volatiletech/null/v8"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FormatTime renders a nullable timestamp for list screens; "-" when unset.
func FormatTime(t null.Time) string {
	if !t.Valid {
		return "-"
	}
	return t.Time.Local().Format("2006-01-02 15:04")
}
