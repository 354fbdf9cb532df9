package clusterfind

import (
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clusterperm/adapters/adjacency"
	"clusterperm/domain/cluster"
	"clusterperm/domain/tensor"
	"clusterperm/internal/errors"
)

// fieldFrom builds a [time, space] statistic map from row-per-time literals.
func fieldFrom(rows [][]float64) *tensor.Field {
	f := tensor.NewField(len(rows), len(rows[0]))
	for t, row := range rows {
		for v, val := range row {
			f.Set(t, v, val)
		}
	}
	return f
}

func lineAdjacency(t *testing.T, spaces int) *adjacency.Adjacency {
	t.Helper()
	adj, err := adjacency.Lattice(spaces, 1)
	require.NoError(t, err)
	return adj
}

func TestFind_SpatialAndTemporalConnectivity(t *testing.T) {
	// Vertices 0-1-2-3 in a line. Two active blobs: one connected through
	// space and time, one isolated at a later time.
	stat := fieldFrom([][]float64{
		{5, 6, 0, 0},
		{0, 7, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 8},
	})
	adj := lineAdjacency(t, 4)

	clusters, err := Find(stat, adj, Options{Threshold: 2, Tail: cluster.TailPositive})
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	// Sorted by |summary| descending: the 5+6+7 blob first.
	assert.Equal(t, 18.0, clusters[0].Summary)
	assert.Equal(t, 3, clusters[0].Size())
	assert.Equal(t, 8.0, clusters[1].Summary)
	assert.Equal(t, []cluster.Point{{Time: 3, Space: 3}}, clusters[1].Points)
}

func TestFind_PartitionOfActiveSet(t *testing.T) {
	// Every active point appears in exactly one cluster; no inactive point
	// appears anywhere.
	stat := fieldFrom([][]float64{
		{3, 0, 4, 0, 5},
		{0, 6, 0, 7, 0},
		{8, 0, 9, 0, 1},
	})
	adj := lineAdjacency(t, 5)
	tau := 2.0

	clusters, err := Find(stat, adj, Options{Threshold: tau, Tail: cluster.TailPositive})
	require.NoError(t, err)

	seen := map[cluster.Point]int{}
	for ci, c := range clusters {
		require.NotEmpty(t, c.Points)
		for _, p := range c.Points {
			_, dup := seen[p]
			assert.False(t, dup, "point %v in two clusters", p)
			seen[p] = ci
			assert.Greater(t, stat.At(p.Time, p.Space), tau)
		}
	}
	active := 0
	for t2 := 0; t2 < stat.Times(); t2++ {
		for v := 0; v < stat.Spaces(); v++ {
			if stat.At(t2, v) > tau {
				active++
			}
		}
	}
	assert.Equal(t, active, len(seen), "active set not fully covered")
}

func TestFind_ThresholdMonotonicity(t *testing.T) {
	stat := fieldFrom([][]float64{
		{1, 3, 5, 3, 1},
		{2, 4, 6, 4, 2},
		{1, 3, 5, 3, 1},
	})
	adj := lineAdjacency(t, 5)

	totalActive := func(tau float64) int {
		clusters, err := Find(stat, adj, Options{Threshold: tau, Tail: cluster.TailPositive})
		require.NoError(t, err)
		n := 0
		for _, c := range clusters {
			n += c.Size()
		}
		return n
	}

	prev := totalActive(0.5)
	for _, tau := range []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5} {
		cur := totalActive(tau)
		assert.LessOrEqual(t, cur, prev, "raising threshold to %v grew the active set", tau)
		prev = cur
	}
	assert.Equal(t, 0, totalActive(6.5))
}

func TestFind_TwoTailedNeverMergesOppositeSigns(t *testing.T) {
	// Adjacent positive and negative exceedances must form two clusters.
	stat := fieldFrom([][]float64{
		{5, -5, 5},
	})
	adj := lineAdjacency(t, 3)

	clusters, err := Find(stat, adj, Options{Threshold: 2, Tail: cluster.TailBoth})
	require.NoError(t, err)
	require.Len(t, clusters, 3)
	for _, c := range clusters {
		require.Len(t, c.Points, 1)
	}
}

func TestFind_TwoTailedEqualsUnionOfSingleTails(t *testing.T) {
	stat := fieldFrom([][]float64{
		{4, -4, 0, 6, 0},
		{5, -6, 0, 0, -3},
		{0, 0, 0, 7, -8},
	})
	adj := lineAdjacency(t, 5)
	opt := func(tail cluster.Tail) Options { return Options{Threshold: 2, Tail: tail} }

	both, err := Find(stat, adj, opt(cluster.TailBoth))
	require.NoError(t, err)
	pos, err := Find(stat, adj, opt(cluster.TailPositive))
	require.NoError(t, err)
	neg, err := Find(stat, adj, opt(cluster.TailNegative))
	require.NoError(t, err)

	assert.ElementsMatch(t, clusterKeys(both), append(clusterKeys(pos), clusterKeys(neg)...))
}

// clusterKeys canonicalizes clusters as sorted point-set strings.
func clusterKeys(clusters []cluster.Cluster) []string {
	keys := make([]string, len(clusters))
	for i, c := range clusters {
		pts := make([]string, len(c.Points))
		for j, p := range c.Points {
			pts[j] = fmt.Sprintf("(%d,%d)", p.Time, p.Space)
		}
		sort.Strings(pts)
		keys[i] = fmt.Sprint(pts)
	}
	return keys
}

func TestFind_NegativeTailSummariesAreNegative(t *testing.T) {
	stat := fieldFrom([][]float64{
		{-5, -6, 0},
	})
	adj := lineAdjacency(t, 3)

	clusters, err := Find(stat, adj, Options{Threshold: 2, Tail: cluster.TailNegative})
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, -11.0, clusters[0].Summary)
	assert.Equal(t, 11.0, MaxSummaryMagnitude(clusters))
}

func TestFind_EmptyActiveSet(t *testing.T) {
	stat := fieldFrom([][]float64{
		{1, 2, 1},
		{2, 1, 2},
	})
	adj := lineAdjacency(t, 3)

	clusters, err := Find(stat, adj, Options{Threshold: 100, Tail: cluster.TailBoth})
	require.NoError(t, err)
	assert.Empty(t, clusters)
	assert.Equal(t, 0.0, MaxSummaryMagnitude(clusters))
}

func TestFind_SingleClusterSpanningGrid(t *testing.T) {
	stat := fieldFrom([][]float64{
		{9, 9, 9},
		{9, 9, 9},
	})
	adj := lineAdjacency(t, 3)

	clusters, err := Find(stat, adj, Options{Threshold: 1, Tail: cluster.TailPositive})
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 6, clusters[0].Size())
	assert.Equal(t, 54.0, clusters[0].Summary)
}

func TestFind_TemporalOnlyConnectivity(t *testing.T) {
	// No spatial edges: vertices are isolated, so activity connects only
	// through time at the same vertex.
	adj, err := adjacency.FromEdges(2, nil)
	require.NoError(t, err)
	stat := fieldFrom([][]float64{
		{5, 5},
		{5, 0},
	})

	clusters, err := Find(stat, adj, Options{Threshold: 1, Tail: cluster.TailPositive})
	require.NoError(t, err)
	require.Len(t, clusters, 2)
}

func TestFind_NaNStatisticIsFatal(t *testing.T) {
	stat := fieldFrom([][]float64{
		{1, math.NaN(), 3},
	})
	adj := lineAdjacency(t, 3)

	_, err := Find(stat, adj, Options{Threshold: 2, Tail: cluster.TailPositive})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNonFiniteStatistic, errors.GetCode(err))
}

func TestFind_RejectsBadInputs(t *testing.T) {
	stat := fieldFrom([][]float64{{1, 2, 3}})
	adj := lineAdjacency(t, 3)

	_, err := Find(stat, adj, Options{Threshold: 0, Tail: cluster.TailPositive})
	assert.Equal(t, errors.CodeInvalidThreshold, errors.GetCode(err))

	wrongAdj := lineAdjacency(t, 5)
	_, err = Find(stat, wrongAdj, Options{Threshold: 1, Tail: cluster.TailPositive})
	assert.Equal(t, errors.CodeShapeMismatch, errors.GetCode(err))
}

func TestFind_OrderIndependentOfMagnitudeTies(t *testing.T) {
	// Equal |summary| clusters order by first member point.
	stat := fieldFrom([][]float64{
		{0, 4, 0, 0, 4},
	})
	adj := lineAdjacency(t, 5)

	clusters, err := Find(stat, adj, Options{Threshold: 2, Tail: cluster.TailPositive})
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, 1, clusters[0].Points[0].Space)
	assert.Equal(t, 4, clusters[1].Points[0].Space)
}
