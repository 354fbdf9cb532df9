package ports

import (
	"clusterperm/domain/tensor"
)

// StatisticFunc maps group tensors onto a pointwise [time, space] test
// statistic. Implementations must be pure and deterministic, and must resolve
// degenerate resamples (e.g. zero pooled variance) to a deterministic finite
// value rather than returning an error, so a single pathological permutation
// cannot abort a long run. Structural problems (wrong group count, shape
// disagreement) are errors.
type StatisticFunc func(groups []*tensor.GroupTensor) (*tensor.Field, error)
