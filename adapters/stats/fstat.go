// Package stats provides the pluggable pointwise statistic functions and the
// distribution-quantile helpers that turn a p-value into a clustering
// threshold.
package stats

import (
	"gonum.org/v1/gonum/floats"

	"clusterperm/domain/tensor"
	"clusterperm/internal/errors"
	"clusterperm/ports"
)

// OneWayF returns the one-way F-ratio statistic over two or more groups,
// computed independently at every (time, space) point:
//
//	F = MS_between / MS_within
//
// with df1 = k-1 and df2 = n-k. Points where the within-group variance is
// zero resolve deterministically to 0 rather than NaN or an error, so a
// degenerate resample inside a long permutation loop never aborts the run.
func OneWayF() ports.StatisticFunc {
	return func(groups []*tensor.GroupTensor) (*tensor.Field, error) {
		if len(groups) < 2 {
			return nil, errors.InvalidInput("F statistic needs at least two groups")
		}
		if err := tensor.CheckShapes(groups, 0); err != nil {
			return nil, err
		}

		times, spaces := groups[0].Times(), groups[0].Spaces()
		points := times * spaces
		k := len(groups)

		total := 0
		groupMeans := make([][]float64, k)
		grandSum := make([]float64, points)
		for gi, g := range groups {
			sum := make([]float64, points)
			for s := 0; s < g.Subjects(); s++ {
				floats.Add(sum, g.Row(s))
			}
			floats.Add(grandSum, sum)
			floats.Scale(1/float64(g.Subjects()), sum)
			groupMeans[gi] = sum
			total += g.Subjects()
		}
		if total <= k {
			return nil, errors.InvalidInput("F statistic needs more subjects than groups")
		}
		grandMean := grandSum
		floats.Scale(1/float64(total), grandMean)

		between := make([]float64, points)
		within := make([]float64, points)
		for gi, g := range groups {
			n := float64(g.Subjects())
			mean := groupMeans[gi]
			for p := 0; p < points; p++ {
				d := mean[p] - grandMean[p]
				between[p] += n * d * d
			}
			for s := 0; s < g.Subjects(); s++ {
				row := g.Row(s)
				for p := 0; p < points; p++ {
					d := row[p] - mean[p]
					within[p] += d * d
				}
			}
		}

		df1 := float64(k - 1)
		df2 := float64(total - k)
		out := tensor.NewField(times, spaces)
		dst := out.Data()
		for p := 0; p < points; p++ {
			msw := within[p] / df2
			if msw == 0 {
				dst[p] = 0
				continue
			}
			dst[p] = (between[p] / df1) / msw
		}
		return out, nil
	}
}
