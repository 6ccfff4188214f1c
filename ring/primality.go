package ring

import "math/big"

// IsPrime reports whether q is prime, via math/big's Baillie-PSW probable-prime test
// (20 Miller-Rabin rounds, deterministic for the modulus sizes this package validates).
func IsPrime(q uint64) bool {
	return new(big.Int).SetUint64(q).ProbablyPrime(20)
}

// ModExp computes base^exp mod m via math/big, used only during parameter generation
// (finding NTT roots, computing CRT inverses) where performance is immaterial.
func ModExp(base, exp, m uint64) uint64 {
	b := new(big.Int).SetUint64(base)
	e := new(big.Int).SetUint64(exp)
	mm := new(big.Int).SetUint64(m)
	return b.Exp(b, e, mm).Uint64()
}

// GeneratorOrder2N finds a primitive NthRoot-th root of unity modulo q, i.e. a
// generator of the cyclic subgroup of order NthRoot of (Z/qZ)*. Requires q = 1 mod NthRoot.
// It returns g^((q-1)/NthRoot) for the smallest g >= 2 for which that power is primitive;
// this is not necessarily the numerically smallest primitive NthRoot-th root.
func GeneratorOrder2N(q, nthRoot uint64) (uint64, error) {
	if (q-1)%nthRoot != 0 {
		return 0, ErrInvalidParameters
	}
	factors := primeFactors(nthRoot)
	exp := (q - 1) / nthRoot
	for g := uint64(2); g < q; g++ {
		root := ModExp(g, exp, q)
		if root == 1 {
			continue
		}
		isGenerator := true
		for _, f := range factors {
			if ModExp(root, nthRoot/f, q) == 1 {
				isGenerator = false
				break
			}
		}
		if isGenerator {
			return root, nil
		}
	}
	return 0, ErrInvalidParameters
}

func primeFactors(n uint64) []uint64 {
	var factors []uint64
	for p := uint64(2); p*p <= n; p++ {
		if n%p == 0 {
			factors = append(factors, p)
			for n%p == 0 {
				n /= p
			}
		}
	}
	if n > 1 {
		factors = append(factors, n)
	}
	return factors
}
