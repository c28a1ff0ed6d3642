package utils

// InSlice reports whether val is one of s.
func InSlice[T comparable](s []T, val T) bool {
	for _, item := range s {
		if item == val {
			return true
		}
	}

	return false
}

// Truncate cuts s to at most n bytes for logging, marking the cut with "...".
func Truncate(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
