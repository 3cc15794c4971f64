package keyedtable

import (
	"unsafe"
)

// Returns the smallest prime that is >= v.
func NextPrime(v uintptr) uintptr {
	if v <= 2 {
		return 2
	}

	if v%2 == 0 {
		v++
	}

	for !isPrime(v) {
		v += 2
	}

	return v
}

func isPrime(v uintptr) bool {
	if v < 2 {
		return false
	}

	if v%2 == 0 {
		return v == 2
	}

	for d := uintptr(3); d*d <= v; d += 2 {
		if v%d == 0 {
			return false
		}
	}

	return true
}

// Returns the size the table grows to from `size`. Growth keeps sizes odd.
func growSize(size uintptr, primes bool) uintptr {
	next := size*2 + 1
	if primes {
		next = NextPrime(next)
	}

	return next
}

// Estimates capacity (number of slots) from the given memory size in bytes.
// The result is below minSize when not even two slots fit.
func CapacityFromSize[K comparable, V any](size uintptr) int {
	sizeOfSlot := unsafe.Sizeof(slot[K, V]{})

	return int(size / sizeOfSlot)
}
