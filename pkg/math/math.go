// Package math provides generic helpers over the primitive
// number types.
package math

// Number is the constraint covering all primitive number types.
type Number interface {
	uint8 | uint16 | uint32 | uint64 | int | int8 | int16 | int32 | int64 | float32 | float64
}

// Max returns the greater of a and b.
func Max[T Number](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Min returns the lesser of a and b.
func Min[T Number](a, b T) T {
	if a < b {
		return a
	}
	return b
}
