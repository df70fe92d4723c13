package topology

import (
	"slices"

	"github.com/gomlx/mpidist/types/mderr"
)

// ResolveDims fills the zero entries of dims so that the product of the
// result equals numLocales, leaving non-zero entries untouched (spec.md
// §4.5.1). Zero axes are grown one prime factor of the remaining quotient at
// a time, taking the factors in ascending order, each factor going to
// whichever zero axis currently holds the smallest value -- ties (including
// the initial all-ones state) favour the earlier axis. Because the factors
// ascend, a later axis can end up with more partitions than an earlier one:
// 6 locales over two zero axes resolve to [2, 3]. Any deterministic rule is
// admissible per spec; this one generalises a 2-axis row/column
// factorisation to N axes.
func ResolveDims(dims []int, numLocales int) ([]int, error) {
	if numLocales <= 0 {
		return nil, mderr.Configurationf("num_locales must be positive, got %d", numLocales).WithParam("num_locales")
	}
	resolved := slices.Clone(dims)
	known := 1
	var zeroIdxs []int
	for i, d := range resolved {
		switch {
		case d < 0:
			return nil, mderr.Configurationf("dims[%d] must be >= 0, got %d", i, d).WithParam("dims")
		case d == 0:
			zeroIdxs = append(zeroIdxs, i)
		default:
			known *= d
		}
	}
	if len(zeroIdxs) == 0 {
		if known != numLocales {
			return nil, mderr.Geometricf(
				"dims %v has product %d, which does not equal num_locales %d", dims, known, numLocales).WithParam("dims")
		}
		return resolved, nil
	}
	if numLocales%known != 0 {
		return nil, mderr.Geometricf(
			"num_locales %d is not divisible by the fixed dims product %d in %v", numLocales, known, dims).WithParam("dims")
	}
	quotient := numLocales / known
	for _, i := range zeroIdxs {
		resolved[i] = 1
	}
	for _, p := range primeFactors(quotient) {
		best := zeroIdxs[0]
		for _, i := range zeroIdxs {
			if resolved[i] < resolved[best] {
				best = i
			}
		}
		resolved[best] *= p
	}
	return resolved, nil
}

// primeFactors returns the prime factorisation of n (n >= 1) in ascending
// order, with multiplicity.
func primeFactors(n int) []int {
	var factors []int
	for p := 2; p*p <= n; p++ {
		for n%p == 0 {
			factors = append(factors, p)
			n /= p
		}
	}
	if n > 1 {
		factors = append(factors, n)
	}
	return factors
}
