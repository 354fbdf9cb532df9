// Package permutation drives the label-permutation loop that builds the
// empirical null distribution of maximum cluster summaries. Permutations are
// embarrassingly parallel: workers share the read-only tensors and adjacency
// and each writes exactly one slot of the result.
package permutation

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"clusterperm/domain/cluster"
	"clusterperm/domain/tensor"
	"clusterperm/internal"
	"clusterperm/internal/clusterfind"
	"clusterperm/internal/errors"
	"clusterperm/ports"
)

// Options configure one permutation run.
type Options struct {
	// Threshold is the cluster-forming threshold tau.
	Threshold float64
	// Tail selects which exceedances cluster.
	Tail cluster.Tail
	// Permutations is the number of relabelings N; the minimum detectable
	// corrected p-value is 1/(N+1).
	Permutations int
	// Parallelism is the worker count; 0 means one worker per CPU.
	Parallelism int
	// Seed fixes the sampled permutation set for reproducibility.
	Seed int64
}

// Engine recomputes the statistic and clustering under random relabelings.
type Engine struct {
	stat ports.StatisticFunc
	adj  ports.AdjacencyPort
	rng  ports.RNGPort
	log  *internal.Logger
}

// NewEngine wires an engine. A nil rng falls back to the default seed-stream
// deriver; a nil logger falls back to the package default.
func NewEngine(stat ports.StatisticFunc, adj ports.AdjacencyPort, rng ports.RNGPort, log *internal.Logger) *Engine {
	if rng == nil {
		rng = NewSeedStreams()
	}
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Engine{stat: stat, adj: adj, rng: rng, log: log.WithPrefix("permutation")}
}

// Run executes opt.Permutations relabelings of groups and returns the null
// distribution H0, where H0[i] is the largest |cluster summary| of
// permutation i (0 when it yields no cluster). With one group the relabeling
// is an unrestricted per-subject sign flip; with two or more groups it is a
// random partition of the pooled subjects preserving the original group
// sizes.
//
// Any worker error aborts the whole run and no partial H0 is returned: a
// truncated null would silently understate the corrected p-values.
func (e *Engine) Run(ctx context.Context, groups []*tensor.GroupTensor, opt Options) (cluster.NullDistribution, error) {
	if opt.Permutations < 1 {
		return nil, errors.InvalidInput("permutation count must be at least 1")
	}
	if err := tensor.CheckShapes(groups, e.adj.Spaces()); err != nil {
		return nil, err
	}
	workers := opt.Parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > opt.Permutations {
		workers = opt.Permutations
	}

	times, spaces := groups[0].Times(), groups[0].Spaces()
	pooled, sizes := poolRows(groups)
	oneSample := len(groups) == 1

	e.log.Debug("running %d permutations on %d workers (seed=%d, tail=%s)",
		opt.Permutations, workers, opt.Seed, opt.Tail)

	h0 := make(cluster.NullDistribution, opt.Permutations)
	indexCh := make(chan int, opt.Permutations)
	for i := 0; i < opt.Permutations; i++ {
		indexCh <- i
	}
	close(indexCh)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			// Sign flips negate values, so the one-sample path needs a
			// worker-local writable copy of the pooled rows.
			var scratch [][]float64
			if oneSample {
				scratch = make([][]float64, len(pooled))
				for s := range scratch {
					scratch[s] = make([]float64, times*spaces)
				}
			}
			for idx := range indexCh {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				max, err := e.onePermutation(ctx, idx, pooled, sizes, scratch, times, spaces, opt)
				if err != nil {
					return errors.WorkerFailure(errors.Wrapf(err, "permutation %d failed", idx))
				}
				// Each index is consumed by exactly one worker, so this
				// write is race-free without further coordination.
				h0[idx] = max
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Error("permutation run aborted: %v", err)
		return nil, err
	}
	return h0, nil
}

func (e *Engine) onePermutation(ctx context.Context, idx int, pooled [][]float64, sizes []int, scratch [][]float64, times, spaces int, opt Options) (float64, error) {
	rng, err := e.rng.PermutationStream(ctx, opt.Seed, idx)
	if err != nil {
		return 0, err
	}

	var relabeled []*tensor.GroupTensor
	if scratch != nil {
		signFlipInto(rng, pooled, scratch)
		g, err := tensor.FromSubjectRows(times, spaces, scratch)
		if err != nil {
			return 0, err
		}
		relabeled = []*tensor.GroupTensor{g}
	} else {
		assignment := shuffledAssignment(rng, len(pooled))
		relabeled, err = relabelGroups(pooled, sizes, assignment, times, spaces)
		if err != nil {
			return 0, err
		}
	}

	stat, err := e.stat(relabeled)
	if err != nil {
		return 0, err
	}
	clusters, err := clusterfind.Find(stat, e.adj, clusterfind.Options{
		Threshold: opt.Threshold,
		Tail:      opt.Tail,
	})
	if err != nil {
		return 0, err
	}
	return clusterfind.MaxSummaryMagnitude(clusters), nil
}
