package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// permutation sampling. Streams derived from the same base seed and index
// must be identical across runs and across parallelism degrees, so that the
// set of sampled permutations is reproducible no matter how work is split
// over workers.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// PermutationStream creates the generator for one permutation index.
	// The stream depends only on (seed, index), never on worker identity.
	PermutationStream(ctx context.Context, seed int64, index int) (*rand.Rand, error)
}
