// Package utils collects small generic helpers shared across the module that don't
// belong to any one scheme or layer.
package utils

import "golang.org/x/exp/constraints"

// AllDistinct reports whether every element of s is unique.
func AllDistinct[T constraints.Ordered](s []T) bool {
	seen := make(map[T]struct{}, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}

// RotateUint64SliceAllocFree writes into out the left-rotation of s by k positions
// (negative k rotates right), without allocating. out and s may alias only if k == 0.
func RotateUint64SliceAllocFree(s []uint64, k int, out []uint64) {
	n := len(s)
	if n == 0 {
		return
	}
	k = ((k % n) + n) % n
	if k == 0 {
		if &out[0] != &s[0] {
			copy(out, s)
		}
		return
	}
	if &out[0] == &s[0] {
		tmp := append([]uint64(nil), s...)
		copy(out, tmp[k:])
		copy(out[n-k:], tmp[:k])
		return
	}
	copy(out, s[k:])
	copy(out[n-k:], s[:k])
}
