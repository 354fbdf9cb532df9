package stats

import (
	"math"

	"clusterperm/domain/tensor"
	"clusterperm/internal/errors"
	"clusterperm/ports"
)

// TwoSampleT returns the Welch t statistic between exactly two groups at
// every (time, space) point. Unlike the F-ratio it is signed, so it can feed
// two-tailed clustering. Zero-variance points resolve to 0.
func TwoSampleT() ports.StatisticFunc {
	return func(groups []*tensor.GroupTensor) (*tensor.Field, error) {
		if len(groups) != 2 {
			return nil, errors.InvalidInput("two-sample t statistic needs exactly two groups")
		}
		if err := tensor.CheckShapes(groups, 0); err != nil {
			return nil, err
		}
		a, b := groups[0], groups[1]
		if a.Subjects() < 2 || b.Subjects() < 2 {
			return nil, errors.InvalidInput("two-sample t statistic needs at least two subjects per group")
		}

		times, spaces := a.Times(), a.Spaces()
		points := times * spaces
		meanA, varA := meanVar(a, points)
		meanB, varB := meanVar(b, points)
		na, nb := float64(a.Subjects()), float64(b.Subjects())

		out := tensor.NewField(times, spaces)
		dst := out.Data()
		for p := 0; p < points; p++ {
			se := math.Sqrt(varA[p]/na + varB[p]/nb)
			if se == 0 {
				dst[p] = 0
				continue
			}
			dst[p] = (meanA[p] - meanB[p]) / se
		}
		return out, nil
	}
}

// OneSampleT returns the one-sample t statistic against zero for a single
// group, the statistic used with sign-flip permutations. Signed; zero
// variance resolves to 0.
func OneSampleT() ports.StatisticFunc {
	return func(groups []*tensor.GroupTensor) (*tensor.Field, error) {
		if len(groups) != 1 {
			return nil, errors.InvalidInput("one-sample t statistic needs exactly one group")
		}
		g := groups[0]
		if g.Subjects() < 2 {
			return nil, errors.InvalidInput("one-sample t statistic needs at least two subjects")
		}

		times, spaces := g.Times(), g.Spaces()
		points := times * spaces
		mean, variance := meanVar(g, points)
		n := float64(g.Subjects())

		out := tensor.NewField(times, spaces)
		dst := out.Data()
		for p := 0; p < points; p++ {
			se := math.Sqrt(variance[p] / n)
			if se == 0 {
				dst[p] = 0
				continue
			}
			dst[p] = mean[p] / se
		}
		return out, nil
	}
}

// meanVar computes the per-point sample mean and unbiased variance across a
// group's subjects.
func meanVar(g *tensor.GroupTensor, points int) (mean, variance []float64) {
	n := float64(g.Subjects())
	mean = make([]float64, points)
	variance = make([]float64, points)
	for s := 0; s < g.Subjects(); s++ {
		row := g.Row(s)
		for p := 0; p < points; p++ {
			mean[p] += row[p]
		}
	}
	for p := 0; p < points; p++ {
		mean[p] /= n
	}
	for s := 0; s < g.Subjects(); s++ {
		row := g.Row(s)
		for p := 0; p < points; p++ {
			d := row[p] - mean[p]
			variance[p] += d * d
		}
	}
	for p := 0; p < points; p++ {
		variance[p] /= n - 1
	}
	return mean, variance
}
