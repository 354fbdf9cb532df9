package permutation

import (
	"context"
	"hash/fnv"
	"math/rand"
)

// SeedStreams derives independent deterministic rand streams from a base
// seed. A permutation's stream depends only on (seed, index), so splitting
// the indices differently across workers cannot change which permutations
// get sampled.
type SeedStreams struct{}

// NewSeedStreams returns the default stream deriver.
func NewSeedStreams() *SeedStreams { return &SeedStreams{} }

// SeededStream creates a generator for a named operation.
func (*SeedStreams) SeededStream(_ context.Context, name string, seed int64) (*rand.Rand, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return rand.New(rand.NewSource(int64(splitmix64(uint64(seed) ^ h.Sum64())))), nil
}

// PermutationStream creates the generator for one permutation index.
func (*SeedStreams) PermutationStream(_ context.Context, seed int64, index int) (*rand.Rand, error) {
	// Weyl-sequence offset keeps neighboring indices statistically unrelated.
	const gamma = 0x9e3779b97f4a7c15
	state := uint64(seed) + gamma*uint64(index+1)
	return rand.New(rand.NewSource(int64(splitmix64(state)))), nil
}

// splitmix64 is the standard finalizer used to turn correlated seeds into
// well-mixed generator states.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
