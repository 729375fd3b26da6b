// Package fib answers the two questions the day counter asks of the
// Fibonacci sequence: is this value a member, and what is the next member
// above it.
//
// Both walk the sequence from (0, 1) term by term. Counter values grow by
// one per calendar day, so a walk is a few dozen additions at most and stays
// exact, with no floating point and no table to keep in sync.
package fib

// IsMember reports whether n appears in 0, 1, 1, 2, 3, 5, 8, ...
// Zero is a member.
func IsMember(n uint64) bool {
	if n == 0 {
		return true
	}
	a, b := uint64(0), uint64(1)
	for b < n {
		a, b = b, a+b
		if b < a {
			// overflowed past the largest uint64 term
			return false
		}
	}
	return b == n
}

// NextAbove returns the smallest Fibonacci number strictly greater than n.
// NextAbove(0) is 1. For n at or beyond the largest term representable in a
// uint64 the result saturates at that term.
func NextAbove(n uint64) uint64 {
	a, b := uint64(0), uint64(1)
	for b <= n {
		next := a + b
		if next < b {
			return b
		}
		a, b = b, next
	}
	return b
}

// DaysUntilNext is the distance from n to the next milestone above it.
func DaysUntilNext(n uint64) uint64 {
	next := NextAbove(n)
	if next <= n {
		return 0
	}
	return next - n
}
