// Package mathutil includes important helpers for the beacon chain such as
// fast integer square root.
package mathutil

// IntegerSquareRoot defines a function that returns the
// largest possible integer root of a number using Newton's method.
func IntegerSquareRoot(n uint64) uint64 {
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// CeilDiv8 divides the input number by 8
// and takes the ceiling of that number.
func CeilDiv8(n int) int {
	ret := n / 8
	if n%8 > 0 {
		ret++
	}
	return ret
}

// Min returns the smaller of two given numbers.
func Min(a uint64, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two given numbers.
func Max(a uint64, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
