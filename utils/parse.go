package utils

import "strconv"

// ParseUint parses a decimal path or query parameter into a uint.
func ParseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
