package cluster

import (
	"fmt"
	"math"
	"sort"
)

// Tail selects which threshold exceedances form clusters.
type Tail int

const (
	// TailBoth clusters both positive and negative exceedances, never
	// merging opposite signs even when they are graph-adjacent.
	TailBoth Tail = 0
	// TailPositive clusters points with statistic > threshold.
	TailPositive Tail = 1
	// TailNegative clusters points with statistic < -threshold.
	TailNegative Tail = -1
)

// ParseTail maps a configuration string onto a Tail mode.
func ParseTail(s string) (Tail, error) {
	switch s {
	case "two-tailed", "both", "":
		return TailBoth, nil
	case "positive", "upper":
		return TailPositive, nil
	case "negative", "lower":
		return TailNegative, nil
	}
	return TailBoth, fmt.Errorf("unknown tail mode %q", s)
}

func (t Tail) String() string {
	switch t {
	case TailPositive:
		return "positive"
	case TailNegative:
		return "negative"
	default:
		return "two-tailed"
	}
}

// Point is one spatio-temporal grid location.
type Point struct {
	Time  int
	Space int
}

// Cluster is a maximal connected set of above-threshold points together with
// its summary statistic: the signed sum of the pointwise statistic over all
// members. Negative-tail clusters carry negative summaries.
type Cluster struct {
	Points  []Point
	Summary float64
}

// Size returns the number of member points.
func (c *Cluster) Size() int { return len(c.Points) }

// TimeSpan returns the inclusive [first, last] time indices the cluster
// touches. Points are kept sorted time-major by the finder.
func (c *Cluster) TimeSpan() (first, last int) {
	if len(c.Points) == 0 {
		return 0, -1
	}
	first, last = c.Points[0].Time, c.Points[0].Time
	for _, p := range c.Points[1:] {
		if p.Time < first {
			first = p.Time
		}
		if p.Time > last {
			last = p.Time
		}
	}
	return first, last
}

// Vertices returns the sorted distinct spatial indices the cluster covers.
func (c *Cluster) Vertices() []int {
	seen := make(map[int]struct{}, len(c.Points))
	for _, p := range c.Points {
		seen[p.Space] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// VertexDurations returns, per involved vertex, how many time samples the
// cluster occupies there. This feeds the per-vertex duration summary that
// result consumers typically render.
func (c *Cluster) VertexDurations() map[int]int {
	durations := make(map[int]int)
	for _, p := range c.Points {
		durations[p.Space]++
	}
	return durations
}

// CorrectedPValues assigns each observed cluster a multiple-comparisons
// corrected p-value by rank against the null distribution of maximum cluster
// summaries: p = (1 + #{H0 >= |summary|}) / (1 + N). The +1 Monte Carlo
// correction counts the observed data as one more draw from the null, so p
// is never exactly zero and is bounded below by 1/(N+1).
func CorrectedPValues(clusters []Cluster, h0 NullDistribution) []float64 {
	pvals := make([]float64, len(clusters))
	n := float64(len(h0))
	for i, c := range clusters {
		mag := math.Abs(c.Summary)
		exceed := 0
		for _, v := range h0 {
			if v >= mag {
				exceed++
			}
		}
		pvals[i] = (1 + float64(exceed)) / (1 + n)
	}
	return pvals
}
