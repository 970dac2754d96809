package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or not
// a valid number.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ClampPage normalizes pagination inputs: page is at least 1 and size is
// clamped to [1, max].
func ClampPage(page, size, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if size > max {
		size = max
	}
	return page, size
}
