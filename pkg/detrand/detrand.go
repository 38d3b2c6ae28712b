// Package detrand provides the two reproducible sources of synthetic
// variability used across the ledger: a seeded Lehmer sequence and a
// string-keyed unit-interval hash. Neither touches an entropy source.
package detrand

import "hash/fnv"

const (
	modulus    = 2147483647 // 2^31 - 1
	multiplier = 48271
)

// Source is a Park-Miller linear congruential generator. The zero value is
// not usable; construct with New.
type Source struct {
	seed  int64
	state int64
}

// New returns a Source for seed. Seeds are folded into [1, modulus-1] so
// that zero and negative seeds still yield a full-period sequence.
func New(seed int64) *Source {
	s := &Source{seed: seed}
	s.Reset()
	return s
}

// Reset restarts the sequence from its seed.
func (s *Source) Reset() {
	x := s.seed % modulus
	if x <= 0 {
		x += modulus - 1
	}
	s.state = x
}

// Float64 advances the sequence and returns a value in [0, 1).
func (s *Source) Float64() float64 {
	s.state = s.state * multiplier % modulus
	return float64(s.state) / modulus
}

// Intn returns a value in [0, n). n must be positive.
func (s *Source) Intn(n int) int {
	return int(s.Float64() * float64(n))
}

// Between returns a value in [lo, hi).
func (s *Source) Between(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// Hash maps key to [0, 1). The FNV-1a accumulation over the key's bytes is
// finished with two multiply-xorshift avalanche rounds so that keys that
// differ in one trailing byte still land far apart.
func Hash(key string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	x := h.Sum32()

	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16

	return float64(x) / 4294967296.0
}
