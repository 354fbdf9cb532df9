// Package adjacency builds the immutable spatial neighbor relation the
// cluster finder consumes. The usual provider is a triangulated cortical
// mesh; a regular lattice builder exists for tests and demos.
package adjacency

import (
	"sort"

	"clusterperm/internal/errors"
)

// Adjacency is a compact neighbor-list representation of a symmetric,
// irreflexive relation over spatial indices 0..S-1. Neighbor lists are
// sub-slices of one flat arena, so a 10k-vertex mesh costs a single
// allocation rather than a dense S x S matrix. Immutable once built and safe
// for concurrent readers.
type Adjacency struct {
	lists [][]int // lists[v] is sorted; all slices share one backing array
	edges int
}

// Spaces returns the number of spatial indices covered.
func (a *Adjacency) Spaces() int { return len(a.lists) }

// Neighbors returns the sorted neighbor indices of v. The slice is shared;
// callers must not mutate it.
func (a *Adjacency) Neighbors(v int) []int { return a.lists[v] }

// Edges returns the number of undirected edges.
func (a *Adjacency) Edges() int { return a.edges }

// FromEdges builds the relation from undirected vertex pairs. Self-loops are
// rejected, duplicate pairs collapse, and both directions are stored.
func FromEdges(spaces int, edges [][2]int) (*Adjacency, error) {
	if spaces < 1 {
		return nil, errors.InvalidInput("adjacency needs at least one vertex")
	}
	sets := make([]map[int]struct{}, spaces)
	add := func(u, w int) error {
		if u == w {
			return errors.InvalidInput("adjacency must be irreflexive, got a self-loop")
		}
		if u < 0 || u >= spaces || w < 0 || w >= spaces {
			return errors.InvalidInput("edge vertex out of range")
		}
		if sets[u] == nil {
			sets[u] = make(map[int]struct{})
		}
		sets[u][w] = struct{}{}
		return nil
	}
	for _, e := range edges {
		if err := add(e[0], e[1]); err != nil {
			return nil, err
		}
		if err := add(e[1], e[0]); err != nil {
			return nil, err
		}
	}

	total := 0
	for _, s := range sets {
		total += len(s)
	}
	arena := make([]int, 0, total)
	lists := make([][]int, spaces)
	for v := 0; v < spaces; v++ {
		start := len(arena)
		for w := range sets[v] {
			arena = append(arena, w)
		}
		sort.Ints(arena[start:])
		lists[v] = arena[start:len(arena):len(arena)]
	}
	return &Adjacency{lists: lists, edges: total / 2}, nil
}

// FromTriangles builds the relation a triangle mesh induces: every triangle
// side is an edge. This mirrors what mesh providers derive from a morphed
// source space.
func FromTriangles(spaces int, tris [][3]int) (*Adjacency, error) {
	edges := make([][2]int, 0, len(tris)*3)
	for _, t := range tris {
		edges = append(edges,
			[2]int{t[0], t[1]},
			[2]int{t[1], t[2]},
			[2]int{t[2], t[0]})
	}
	return FromEdges(spaces, edges)
}

// Lattice builds a width x height 4-connected grid, row-major indexing.
// Useful as a small synthetic "mesh" in tests and demos.
func Lattice(width, height int) (*Adjacency, error) {
	if width < 1 || height < 1 {
		return nil, errors.InvalidInput("lattice extents must be positive")
	}
	var edges [][2]int
	idx := func(x, y int) int { return y*width + x }
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x+1 < width {
				edges = append(edges, [2]int{idx(x, y), idx(x + 1, y)})
			}
			if y+1 < height {
				edges = append(edges, [2]int{idx(x, y), idx(x, y + 1)})
			}
		}
	}
	return FromEdges(width*height, edges)
}
