package core

import (
	"strconv"
	"strings"
)

// ParseNumber extracts a number from a display cell such as "1,200" or
// "3.5억". Every rune other than a digit, '.' or '-' is discarded first; an
// empty or unparsable remainder reports ok=false rather than an error.
func ParseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
