package tensor

import (
	"clusterperm/internal/errors"
)

// GroupTensor holds one group's observations indexed [subject, time, space].
// Each subject's measurements are stored as a flat time-major row, so a
// relabeled group can be assembled from pooled rows without copying data.
type GroupTensor struct {
	times  int
	spaces int
	rows   [][]float64 // rows[s] has length times*spaces
}

// NewGroupTensor allocates a zeroed tensor for the given extents.
func NewGroupTensor(subjects, times, spaces int) (*GroupTensor, error) {
	if subjects < 1 || times < 1 || spaces < 1 {
		return nil, errors.InvalidInput("tensor extents must all be positive")
	}
	rows := make([][]float64, subjects)
	for s := range rows {
		rows[s] = make([]float64, times*spaces)
	}
	return &GroupTensor{times: times, spaces: spaces, rows: rows}, nil
}

// FromSubjectRows wraps pre-built subject rows without copying. Every row
// must have length times*spaces. The tensor takes ownership of the slices.
func FromSubjectRows(times, spaces int, rows [][]float64) (*GroupTensor, error) {
	if times < 1 || spaces < 1 {
		return nil, errors.InvalidInput("tensor extents must all be positive")
	}
	if len(rows) == 0 {
		return nil, errors.InvalidInput("a group needs at least one subject")
	}
	want := times * spaces
	for s, r := range rows {
		if len(r) != want {
			return nil, errors.ShapeMismatch("subject %d has %d values, want %d", s, len(r), want)
		}
	}
	return &GroupTensor{times: times, spaces: spaces, rows: rows}, nil
}

// Subjects returns the number of subjects in the group.
func (g *GroupTensor) Subjects() int { return len(g.rows) }

// Times returns the temporal extent.
func (g *GroupTensor) Times() int { return g.times }

// Spaces returns the spatial extent.
func (g *GroupTensor) Spaces() int { return g.spaces }

// At returns the value for (subject, time, space).
func (g *GroupTensor) At(subject, t, v int) float64 {
	return g.rows[subject][t*g.spaces+v]
}

// Set stores a value for (subject, time, space).
func (g *GroupTensor) Set(subject, t, v int, value float64) {
	g.rows[subject][t*g.spaces+v] = value
}

// Row exposes one subject's flat time-major measurements. Callers must treat
// the returned slice as read-only; rows may be shared across relabelings.
func (g *GroupTensor) Row(subject int) []float64 { return g.rows[subject] }

// CheckShapes verifies that every group agrees on time and space extents and
// that the spatial extent matches the adjacency size. Subject counts may
// differ per group. Returns a SHAPE_MISMATCH error on the first disagreement.
func CheckShapes(groups []*GroupTensor, spaces int) error {
	if len(groups) == 0 {
		return errors.InvalidInput("no groups supplied")
	}
	times := groups[0].Times()
	for i, g := range groups {
		if g.Times() != times || g.Spaces() != groups[0].Spaces() {
			return errors.ShapeMismatch(
				"group %d is [%d x %d x %d], group 0 is [%d x %d x %d]",
				i, g.Subjects(), g.Times(), g.Spaces(),
				groups[0].Subjects(), times, groups[0].Spaces())
		}
	}
	if spaces > 0 && groups[0].Spaces() != spaces {
		return errors.ShapeMismatch(
			"groups have %d spatial points but adjacency covers %d", groups[0].Spaces(), spaces)
	}
	return nil
}
