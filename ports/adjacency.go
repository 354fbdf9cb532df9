package ports

// AdjacencyPort exposes the spatial neighbor relation over mesh vertices.
// Implementations must be symmetric and irreflexive, and immutable once
// built: the permutation loop shares one instance across workers without
// locking. Construction from mesh files or morph maps is the provider's
// business; the core only queries neighbors.
type AdjacencyPort interface {
	// Spaces returns the number of spatial indices the relation covers.
	Spaces() int

	// Neighbors returns the spatial indices adjacent to v. The returned
	// slice is owned by the adjacency structure and must not be mutated.
	Neighbors(v int) []int
}
