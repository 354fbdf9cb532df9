// Package clusterfind partitions above-threshold points of a [time, space]
// statistic map into connected components under the combined spatio-temporal
// adjacency: same vertex at neighboring time steps, or neighboring vertices
// at the same time step.
package clusterfind

import (
	"math"
	"sort"

	"clusterperm/domain/cluster"
	"clusterperm/domain/tensor"
	"clusterperm/internal/errors"
	"clusterperm/ports"
)

// Options control active-point selection.
type Options struct {
	// Threshold is the (positive) exceedance level tau. A point is active
	// when stat > tau, stat < -tau, or either, depending on Tail.
	Threshold float64
	// Tail selects which exceedances count.
	Tail cluster.Tail
}

// Find computes the clusters of stat under the options and adjacency.
// Opposite-sign exceedances never merge, even when graph-adjacent. The
// returned clusters are sorted by descending |summary|, ties broken by first
// member point, so the order is independent of traversal details. An empty
// active set yields an empty slice, not an error.
//
// Work is near-linear in the number of active points plus the adjacency
// edges touched: the union-find arena spans the grid, but only active
// entries are ever visited.
func Find(stat *tensor.Field, adj ports.AdjacencyPort, opt Options) ([]cluster.Cluster, error) {
	if opt.Threshold <= 0 {
		return nil, errors.InvalidThreshold("cluster-forming threshold must be positive")
	}
	if stat.Spaces() != adj.Spaces() {
		return nil, errors.ShapeMismatch(
			"statistic covers %d spatial points but adjacency covers %d", stat.Spaces(), adj.Spaces())
	}

	times, spaces := stat.Times(), stat.Spaces()
	points := stat.Len()
	data := stat.Data()

	// Tag each point with the tail it exceeds, if any. NaN makes membership
	// undefined, so it is fatal; +/-Inf orders fine and passes through.
	tag := make([]int8, points)
	active := 0
	for p, v := range data {
		if math.IsNaN(v) {
			t, s := stat.Coord(p)
			return nil, errors.NonFiniteStatistic("statistic is NaN at (time=%d, space=%d)", t, s)
		}
		switch {
		case v > opt.Threshold && opt.Tail != cluster.TailNegative:
			tag[p] = 1
			active++
		case v < -opt.Threshold && opt.Tail != cluster.TailPositive:
			tag[p] = -1
			active++
		}
	}
	if active == 0 {
		return []cluster.Cluster{}, nil
	}

	uf := newUnionFind(points)
	for p := 0; p < points; p++ {
		if tag[p] == 0 {
			continue
		}
		t := p / spaces
		v := p % spaces
		// Temporal neighbor: same vertex, next time step.
		if t+1 < times {
			q := p + spaces
			if tag[q] == tag[p] {
				uf.union(p, q)
			}
		}
		// Spatial neighbors at the same time step. Each undirected edge is
		// visited from its lower endpoint only.
		for _, w := range adj.Neighbors(v) {
			if w <= v {
				continue
			}
			q := t*spaces + w
			if tag[q] == tag[p] {
				uf.union(p, q)
			}
		}
	}

	// Gather components. Iterating points in ascending flat order keeps each
	// cluster's member list sorted time-major.
	byRoot := make(map[int]int)
	var clusters []cluster.Cluster
	for p := 0; p < points; p++ {
		if tag[p] == 0 {
			continue
		}
		root := uf.find(p)
		ci, ok := byRoot[root]
		if !ok {
			ci = len(clusters)
			byRoot[root] = ci
			clusters = append(clusters, cluster.Cluster{})
		}
		c := &clusters[ci]
		c.Points = append(c.Points, cluster.Point{Time: p / spaces, Space: p % spaces})
		c.Summary += data[p]
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		ai, aj := math.Abs(clusters[i].Summary), math.Abs(clusters[j].Summary)
		if ai != aj {
			return ai > aj
		}
		pi, pj := clusters[i].Points[0], clusters[j].Points[0]
		if pi.Time != pj.Time {
			return pi.Time < pj.Time
		}
		return pi.Space < pj.Space
	})
	return clusters, nil
}

// MaxSummaryMagnitude returns the largest |cluster summary|, or 0 for an
// empty cluster list. This is the per-permutation reduction the null
// distribution accumulates.
func MaxSummaryMagnitude(clusters []cluster.Cluster) float64 {
	max := 0.0
	for _, c := range clusters {
		if m := math.Abs(c.Summary); m > max {
			max = m
		}
	}
	return max
}
