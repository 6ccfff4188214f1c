package rlwe

import (
	"crypto/sha256"
	"encoding/binary"
)

// ParamsID is the content-addressed identifier of a parameter-chain node (section 3):
// two parameter sets with equal ParamsID are guaranteed interoperable (same degree,
// same surviving primes, same plaintext modulus).
type ParamsID [sha256.Size]byte

// computeParamsID hashes the canonical encoding of (logN, q_i..., t) into a ParamsID.
func computeParamsID(logN int, q []uint64, t uint64) ParamsID {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(logN))
	h.Write(buf[:])
	for _, qi := range q {
		binary.LittleEndian.PutUint64(buf[:], qi)
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], t)
	h.Write(buf[:])
	var id ParamsID
	copy(id[:], h.Sum(nil))
	return id
}
