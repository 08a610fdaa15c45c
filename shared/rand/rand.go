/*
Package rand defines methods of obtaining random number generators.

One is expected to use randomness from this package only, without introducing any other packages.
This limits the scope of code that needs to be hardened.

There are two modes, one for deterministic and another non-deterministic randomness:
1. If deterministic pseudo-random generator is enough, use:

	randGen := rand.NewDeterministicGenerator()
	randGen.Intn(32)

This generator is seeded with a cryptographically random value, then produces a
deterministic sequence. It is cheap and suitable for tests and shuffling work.

2. For cryptographically secure non-deterministic randomness, use:

	randGen := rand.NewGenerator()
	randGen.Intn(32)

Every value produced by this generator is read from crypto/rand, so performance
takes a hit and it should be used sparingly.
*/
package rand

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

type source struct{}

var lock sync.RWMutex

// Seed does nothing when crypto/rand is used as source.
func (s *source) Seed(seed int64) {}

// Int63 returns uniformly-distributed random (as in CSPRNG) int64 value within [0, 1<<63) range.
// Panics if random generator reader cannot return data.
func (s *source) Int63() int64 {
	return int64(s.Uint64() & ^uint64(1<<63))
}

// Uint64 returns uniformly-distributed random (as in CSPRNG) uint64 value within [0, 1<<64) range.
// Panics if random generator reader cannot return data.
func (s *source) Uint64() (val uint64) {
	lock.RLock()
	defer lock.RUnlock()
	if err := binary.Read(rand.Reader, binary.BigEndian, &val); err != nil {
		panic(err)
	}
	return
}

// NewGenerator returns a new generator that uses random values from crypto/rand as a source
// (cryptographically secure random number generator).
// Panics if crypto/rand input cannot be read.
func NewGenerator() *mrand.Rand {
	return mrand.New(&source{}) // #nosec G404 -- crypto seeded
}

// NewDeterministicGenerator returns a random generator which is only seeded with pseudo-random
// source, cryptographically insecure, and deterministic. Use for testing or anywhere else where
// deterministic pseudo-random source is enough.
func NewDeterministicGenerator() *mrand.Rand {
	generator := NewGenerator()
	return mrand.New(mrand.NewSource(generator.Int63())) // #nosec G404 -- test and shuffle use only
}
