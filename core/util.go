package core

import "strings"

// NotAvailable is printed wherever an optional value is missing.
const NotAvailable = "N/A"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// OrNA returns the first non-blank value of `vals`, or NotAvailable.
func OrNA(vals ...string) string {
	for _, v := range vals {
		if v = CleanString(v); v != "" {
			return v
		}
	}
	return NotAvailable
}

// StrPtrValue dereferences `s`, returning "" for nil.
func StrPtrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
