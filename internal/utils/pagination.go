// Package utils holds tiny helpers shared across layers.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// plain integer. Handlers use it for query parameters like page and
// page_size, where a malformed value should mean "use the default" rather
// than a 400.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
