// Package sampling provides the seedable pseudorandom byte stream that drives every
// sampler (ternary, Gaussian, uniform) used by key generation and encryption.
package sampling

import (
	"crypto/rand"
	"io"

	"github.com/zeebo/blake3"
)

// PRNG is an io.Reader that can be reset to its initial state, so the same byte stream
// can be replayed deterministically from the same seed.
type PRNG interface {
	io.Reader
	// Reset rewinds the stream to the state it had immediately after construction.
	Reset()
}

// KeyedPRNG is a PRNG backed by BLAKE3's keyed extendable-output mode: the key is hashed
// once to derive a 32-byte BLAKE3 key, and every Read call pulls the next bytes of that
// key's infinite output stream.
type KeyedPRNG struct {
	key []byte
	xof *blake3.OutputReader
}

// NewKeyedPRNG derives a PRNG from key. If key is nil, a fresh 32-byte key is drawn from
// crypto/rand, making every instance independent unless a key is supplied explicitly.
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}

	p := &KeyedPRNG{key: append([]byte(nil), key...)}
	if err := p.seed(); err != nil {
		return nil, err
	}
	return p, nil
}

func (k *KeyedPRNG) seed() error {
	digest := blake3.Sum256(k.key)
	h, err := blake3.NewKeyed(digest[:])
	if err != nil {
		return err
	}
	k.xof = h.Digest()
	return nil
}

// Read fills p with the next bytes of the keyed output stream.
func (k *KeyedPRNG) Read(p []byte) (int, error) {
	return k.xof.Read(p)
}

// Reset rewinds the stream: the next Read reproduces the bytes seen right after
// construction (or after the last Reset).
func (k *KeyedPRNG) Reset() {
	_ = k.seed()
}

var _ PRNG = (*KeyedPRNG)(nil)
