// Package atoi provides functions for efficient & allocation-free
// parsing of []byte and string to int32.
package atoi

import (
	"errors"
	"math"
)

// ErrSyntax is returned by I32 for inputs that are not a valid
// signed 32-bit integer.
var ErrSyntax = errors.New("syntax error")

// I32 parses s as a signed 32-bit integer without allocating.
func I32[S []byte | string](s S) (int32, error) {
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) < 1 || len(s) > 10 {
		return 0, ErrSyntax
	}

	n := int64(0)
	for i := 0; i < len(s); i++ {
		c := s[i] - '0'
		if c > 9 {
			return 0, ErrSyntax
		}
		n = n*10 + int64(c)
	}
	if neg {
		n = -n
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, ErrSyntax
	}
	return int32(n), nil
}

// MustI32 parses s assuming that it's a valid signed 32-bit integer.
// Panics if s contains an invalid number.
func MustI32[S []byte | string](s S) int32 {
	n, err := I32(s)
	if err != nil {
		panic(err)
	}
	return n
}
