package adjacency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEdges(t *testing.T) {
	adj, err := FromEdges(4, [][2]int{{0, 1}, {1, 2}, {1, 0}, {2, 1}})
	require.NoError(t, err)

	assert.Equal(t, 4, adj.Spaces())
	assert.Equal(t, 2, adj.Edges(), "duplicate pairs collapse")
	assert.Equal(t, []int{1}, adj.Neighbors(0))
	assert.Equal(t, []int{0, 2}, adj.Neighbors(1))
	assert.Equal(t, []int{1}, adj.Neighbors(2))
	assert.Empty(t, adj.Neighbors(3), "isolated vertex keeps an empty list")
}

func TestFromEdgesSymmetry(t *testing.T) {
	adj, err := FromEdges(6, [][2]int{{0, 3}, {3, 5}, {2, 4}})
	require.NoError(t, err)
	for v := 0; v < adj.Spaces(); v++ {
		for _, w := range adj.Neighbors(v) {
			assert.Contains(t, adj.Neighbors(w), v, "edge %d-%d not symmetric", v, w)
		}
	}
}

func TestFromEdgesRejectsBadInput(t *testing.T) {
	_, err := FromEdges(0, nil)
	assert.Error(t, err)

	_, err = FromEdges(3, [][2]int{{1, 1}})
	assert.Error(t, err, "self-loop")

	_, err = FromEdges(3, [][2]int{{0, 3}})
	assert.Error(t, err, "vertex out of range")

	_, err = FromEdges(3, [][2]int{{-1, 0}})
	assert.Error(t, err)
}

func TestFromTriangles(t *testing.T) {
	// Two triangles sharing the 1-2 side.
	adj, err := FromTriangles(4, [][3]int{{0, 1, 2}, {1, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, 5, adj.Edges())
	assert.Equal(t, []int{1, 2}, adj.Neighbors(0))
	assert.Equal(t, []int{0, 2, 3}, adj.Neighbors(1))
	assert.Equal(t, []int{0, 1, 3}, adj.Neighbors(2))
	assert.Equal(t, []int{1, 2}, adj.Neighbors(3))
}

func TestLattice(t *testing.T) {
	adj, err := Lattice(3, 2)
	require.NoError(t, err)

	assert.Equal(t, 6, adj.Spaces())
	assert.Equal(t, 7, adj.Edges())
	// Row-major: corner 0 touches 1 (right) and 3 (below).
	assert.Equal(t, []int{1, 3}, adj.Neighbors(0))
	// Center of the top row touches left, right and below.
	assert.Equal(t, []int{0, 2, 4}, adj.Neighbors(1))
	assert.Equal(t, []int{1, 3, 5}, adj.Neighbors(4))
}

func TestLatticeSingleVertex(t *testing.T) {
	adj, err := Lattice(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, adj.Spaces())
	assert.Zero(t, adj.Edges())
	assert.Empty(t, adj.Neighbors(0))
}
