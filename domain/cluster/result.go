package cluster

import (
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"clusterperm/domain/tensor"
)

// NullDistribution holds the maximum cluster summary magnitude of each
// permutation, zero when a permutation produced no cluster. Immutable once
// the permutation loop completes.
type NullDistribution []float64

// NullSummary captures the shape of the null distribution for reporting and
// persistence without storing every sample downstream.
type NullSummary struct {
	Mean         float64
	StdDev       float64
	Min          float64
	Max          float64
	Percentile95 float64
	Percentile99 float64
}

// Summarize computes descriptive statistics over the null distribution.
func (h NullDistribution) Summarize() NullSummary {
	if len(h) == 0 {
		return NullSummary{}
	}
	data := stats.Float64Data(h)
	mean, _ := stats.Mean(data)
	stdDev, _ := stats.StandardDeviation(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	p95, _ := stats.Percentile(data, 95)
	p99, _ := stats.Percentile(data, 99)
	return NullSummary{
		Mean:         mean,
		StdDev:       stdDev,
		Min:          min,
		Max:          max,
		Percentile95: p95,
		Percentile99: p99,
	}
}

// Result is the full outcome of one spatio-temporal cluster test run. The
// caller applies its own significance cutoff; no filtering happens here.
type Result struct {
	RunID        uuid.UUID
	CreatedAt    time.Time
	ObservedStat *tensor.Field
	Clusters     []Cluster
	PValues      []float64 // parallel to Clusters
	H0           NullDistribution
	H0Summary    NullSummary

	// Run parameters, recorded for reproducibility.
	Threshold    float64
	Tail         Tail
	Permutations int
	Seed         int64

	// MinDetectableP is 1/(Permutations+1), the resolution floor of the
	// corrected p-values for this run.
	MinDetectableP float64
}

// SignificantAt returns the indices of clusters with p below alpha, in the
// stored (descending |summary|) order. Convenience for consumers; the core
// contract itself never filters.
func (r *Result) SignificantAt(alpha float64) []int {
	var idx []int
	for i, p := range r.PValues {
		if p < alpha {
			idx = append(idx, i)
		}
	}
	return idx
}
