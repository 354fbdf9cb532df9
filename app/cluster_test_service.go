// Package app wires the pointwise statistic, cluster finder and permutation
// engine into the spatio-temporal cluster test orchestrator.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clusterperm/domain/cluster"
	"clusterperm/domain/tensor"
	"clusterperm/internal"
	"clusterperm/internal/clusterfind"
	"clusterperm/internal/permutation"
	"clusterperm/ports"
)

// TestOptions are the caller-facing knobs of one cluster test run.
type TestOptions struct {
	// Threshold is the cluster-forming threshold tau.
	Threshold float64
	// Tail selects positive, negative or two-tailed clustering.
	Tail cluster.Tail
	// Permutations is the null-distribution size N.
	Permutations int
	// Parallelism bounds the permutation workers; 0 means one per CPU.
	Parallelism int
	// Seed fixes the sampled permutation set.
	Seed int64
	// Alpha is the significance level the caller intends to test at. Only
	// used to warn when N cannot resolve it; the run never filters by it.
	Alpha float64
}

// ClusterTestService runs the full pipeline: observed statistic, observed
// clusters, permutation null, corrected p-values.
type ClusterTestService struct {
	stat   ports.StatisticFunc
	adj    ports.AdjacencyPort
	engine *permutation.Engine
	log    *internal.Logger
}

// NewClusterTestService builds a service around one statistic choice and one
// adjacency structure. A nil rng or logger selects the defaults.
func NewClusterTestService(stat ports.StatisticFunc, adj ports.AdjacencyPort, rng ports.RNGPort, log *internal.Logger) *ClusterTestService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &ClusterTestService{
		stat:   stat,
		adj:    adj,
		engine: permutation.NewEngine(stat, adj, rng, log),
		log:    log.WithPrefix("cluster-test"),
	}
}

// Run executes the test on the given groups. The observed pass is never
// counted as a permutation; each observed cluster's corrected p-value is
// (1 + #{H0 >= |summary|}) / (1 + N). An observed statistic that nowhere
// exceeds the threshold yields an empty cluster and p-value list without
// running any permutations, and without error.
func (s *ClusterTestService) Run(ctx context.Context, groups []*tensor.GroupTensor, opt TestOptions) (*cluster.Result, error) {
	if err := tensor.CheckShapes(groups, s.adj.Spaces()); err != nil {
		return nil, err
	}

	res := &cluster.Result{
		RunID:          uuid.New(),
		CreatedAt:      time.Now().UTC(),
		Threshold:      opt.Threshold,
		Tail:           opt.Tail,
		Permutations:   opt.Permutations,
		Seed:           opt.Seed,
		MinDetectableP: 1 / float64(opt.Permutations+1),
	}

	alpha := opt.Alpha
	if alpha <= 0 {
		alpha = 0.05
	}
	if res.MinDetectableP > alpha {
		s.log.Warn("permutation count %d cannot resolve p < %.3g (floor is %.3g); results are imprecise",
			opt.Permutations, alpha, res.MinDetectableP)
	}

	observed, err := s.stat(groups)
	if err != nil {
		return nil, err
	}
	res.ObservedStat = observed

	clusters, err := clusterfind.Find(observed, s.adj, clusterfind.Options{
		Threshold: opt.Threshold,
		Tail:      opt.Tail,
	})
	if err != nil {
		return nil, err
	}
	res.Clusters = clusters
	res.PValues = []float64{}
	res.H0 = cluster.NullDistribution{}

	if len(clusters) == 0 {
		s.log.Info("no observed point exceeds threshold %.4g; skipping permutations", opt.Threshold)
		return res, nil
	}
	s.log.Info("found %d observed clusters (largest |summary| %.4g); permuting",
		len(clusters), clusterfind.MaxSummaryMagnitude(clusters))

	h0, err := s.engine.Run(ctx, groups, permutation.Options{
		Threshold:    opt.Threshold,
		Tail:         opt.Tail,
		Permutations: opt.Permutations,
		Parallelism:  opt.Parallelism,
		Seed:         opt.Seed,
	})
	if err != nil {
		// A failed or cancelled run keeps no partial null distribution.
		return nil, err
	}
	res.H0 = h0
	res.H0Summary = h0.Summarize()
	res.PValues = cluster.CorrectedPValues(clusters, h0)
	return res, nil
}

// RunFromSource loads the groups through a tensor source, then runs the test.
func (s *ClusterTestService) RunFromSource(ctx context.Context, src ports.TensorSource, opt TestOptions) (*cluster.Result, error) {
	groups, err := src.Groups(ctx)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, groups, opt)
}

// Publish hands a completed result to each sink in order, stopping at the
// first failure.
func Publish(ctx context.Context, res *cluster.Result, sinks ...ports.ResultSink) error {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
