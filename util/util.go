package util

import (
	"golang.org/x/exp/constraints"
)

func Min[A constraints.Integer](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Integer](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

// Clamp limits num to [lo, hi]. When hi < lo the floor wins, so an empty
// range collapses onto lo.
func Clamp[A constraints.Integer](num A, lo A, hi A) A {
	return Max(lo, Min(num, hi))
}
