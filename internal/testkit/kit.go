// Package testkit provides seeded synthetic fixtures: group tensors built
// from a shared spatio-temporal signal plus independent noise, the same
// construction the classic two-sample simulation uses.
package testkit

import (
	"context"
	"math"
	"math/rand"

	"clusterperm/domain/tensor"
	"clusterperm/ports"
)

// SignalRegion describes where the injected effect lives on the grid.
type SignalRegion struct {
	TimeFirst, TimeLast   int // inclusive
	SpaceFirst, SpaceLast int // inclusive
}

// DefaultRegion centers the effect over the middle third of time and an
// interior band of vertices.
func DefaultRegion(times, spaces int) SignalRegion {
	return SignalRegion{
		TimeFirst:  times / 3,
		TimeLast:   2*times/3 - 1,
		SpaceFirst: spaces / 5,
		SpaceLast:  2*spaces/5 - 1,
	}
}

// Baseline builds the shared signal map: a smooth bump with the given peak
// amplitude inside the region, zero elsewhere.
func Baseline(times, spaces int, region SignalRegion, peak float64) *tensor.Field {
	f := tensor.NewField(times, spaces)
	tc := float64(region.TimeFirst+region.TimeLast) / 2
	tw := math.Max(1, float64(region.TimeLast-region.TimeFirst)/2)
	for t := region.TimeFirst; t <= region.TimeLast && t < times; t++ {
		// Cosine taper in time keeps the bump smooth at its edges.
		w := 0.5 * (1 + math.Cos(math.Pi*(float64(t)-tc)/tw))
		for v := region.SpaceFirst; v <= region.SpaceLast && v < spaces; v++ {
			f.Set(t, v, peak*w)
		}
	}
	return f
}

// TwoGroups simulates two groups sharing a baseline signal, with the second
// group's signal scaled by amp2 and independent unit-variance noise added to
// every observation. Magnitudes are taken, matching the overall-activity
// comparison of the reference simulation. Deterministic per seed.
func TwoGroups(seed int64, n1, n2, times, spaces int, peak, amp2 float64) (*tensor.GroupTensor, *tensor.GroupTensor) {
	rng := rand.New(rand.NewSource(seed))
	signal := Baseline(times, spaces, DefaultRegion(times, spaces), peak)
	g1 := noisyGroup(rng, n1, times, spaces, signal, 1)
	g2 := noisyGroup(rng, n2, times, spaces, signal, amp2)
	return g1, g2
}

// NullTwoGroups simulates two groups of pure noise, statistically identical.
func NullTwoGroups(seed int64, n1, n2, times, spaces int) (*tensor.GroupTensor, *tensor.GroupTensor) {
	return TwoGroups(seed, n1, n2, times, spaces, 0, 0)
}

// OneGroup simulates a single group with the baseline signal, for sign-flip
// testing.
func OneGroup(seed int64, n, times, spaces int, peak float64) *tensor.GroupTensor {
	rng := rand.New(rand.NewSource(seed))
	signal := Baseline(times, spaces, DefaultRegion(times, spaces), peak)
	g, _ := tensor.NewGroupTensor(n, times, spaces)
	for s := 0; s < n; s++ {
		row := g.Row(s)
		for p := range row {
			row[p] = signal.AtIndex(p) + rng.NormFloat64()
		}
	}
	return g
}

func noisyGroup(rng *rand.Rand, n, times, spaces int, signal *tensor.Field, amp float64) *tensor.GroupTensor {
	g, _ := tensor.NewGroupTensor(n, times, spaces)
	for s := 0; s < n; s++ {
		row := g.Row(s)
		for p := range row {
			row[p] = math.Abs(amp*signal.AtIndex(p) + rng.NormFloat64())
		}
	}
	return g
}

// StaticSource serves a fixed set of groups through the TensorSource port.
type StaticSource struct {
	groups []*tensor.GroupTensor
}

// NewStaticSource wraps pre-built groups.
func NewStaticSource(groups ...*tensor.GroupTensor) *StaticSource {
	return &StaticSource{groups: groups}
}

// Groups returns the wrapped tensors.
func (s *StaticSource) Groups(context.Context) ([]*tensor.GroupTensor, error) {
	return s.groups, nil
}

var _ ports.TensorSource = (*StaticSource)(nil)
