package stats

import (
	"gonum.org/v1/gonum/stat/distuv"

	"clusterperm/internal/errors"
)

// FThresholdForP converts a pointwise p-value into an F threshold via the
// F(df1, df2) quantile: the returned value is exceeded with probability p
// under the null. Callers following the classic two-sided convention pass
// p/2 here.
func FThresholdForP(p, df1, df2 float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, errors.InvalidThreshold("threshold p-value must be in (0, 1)")
	}
	if df1 <= 0 || df2 <= 0 {
		return 0, errors.InvalidThreshold("F degrees of freedom must be positive")
	}
	dist := distuv.F{D1: df1, D2: df2}
	return dist.Quantile(1 - p), nil
}

// TThresholdForP converts a pointwise p-value into a t threshold with df
// degrees of freedom. With twoTailed set, the mass is split across both
// tails, matching two-tailed clustering on a signed statistic.
func TThresholdForP(p, df float64, twoTailed bool) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, errors.InvalidThreshold("threshold p-value must be in (0, 1)")
	}
	if df <= 0 {
		return 0, errors.InvalidThreshold("t degrees of freedom must be positive")
	}
	if twoTailed {
		p /= 2
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return dist.Quantile(1 - p), nil
}
