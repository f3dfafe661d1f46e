package mathx

import "golang.org/x/exp/constraints"

// CheckedMul returns a*b and whether the product fits in T.
func CheckedMul[T constraints.Unsigned](a, b T) (T, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// CheckedDiv returns a/b, or false when b is zero.
func CheckedDiv[T constraints.Unsigned](a, b T) (T, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}
