// Package perm enumerates permutations of small index sets.
//
// The ExorLink rewrite of two cubes at distance d has one alternative
// grouping per ordering of the d differing positions. The rewrite engine
// stores those groupings as fixed tables and uses [Generate] to check, once
// at start-up, that the tables list every ordering exactly once.
package perm

import "slices"

// Seq returns [0, 1, ..., n-1]. For n <= 0 it returns an empty slice.
func Seq(n int) []int {
	result := make([]int, max(n, 0))
	for i := range result {
		result[i] = i
	}
	return result
}

// Factorial returns n!, or 1 for n <= 1. It overflows int for n > 20.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// Generate returns permutations of [0, 1, ..., n-1] in the order produced by
// Heap's algorithm, each in its own slice. With limit > 0 at most limit
// permutations are returned, otherwise all n! of them.
//
// The order is not lexicographic but it is deterministic, which is what
// callers that derive lookup tables from it rely on.
func Generate(n, limit int) [][]int {
	if n <= 1 {
		return [][]int{Seq(n)}
	}

	p := Seq(n)
	state := make([]int, n)

	capacity := limit
	if capacity <= 0 || n <= 10 {
		capacity = Factorial(min(n, 10))
	}
	result := make([][]int, 0, capacity)
	result = append(result, slices.Clone(p))

	for i := 0; i < n && (limit <= 0 || len(result) < limit); {
		if state[i] >= i {
			state[i] = 0
			i++
			continue
		}
		j := 0
		if i%2 == 1 {
			j = state[i]
		}
		p[j], p[i] = p[i], p[j]
		result = append(result, slices.Clone(p))
		state[i]++
		i = 0
	}
	return result
}

// Index returns the position of p in the output of Generate(len(p), 0), or
// -1 if p is not a permutation of [0, len(p)).
func Index(p []int) int {
	if !IsPermutation(p) {
		return -1
	}
	for i, q := range Generate(len(p), 0) {
		if slices.Equal(p, q) {
			return i
		}
	}
	return -1
}

// IsPermutation reports whether p holds every value of [0, len(p)) once.
func IsPermutation(p []int) bool {
	seen := make([]bool, len(p))
	for _, v := range p {
		if v < 0 || v >= len(p) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
