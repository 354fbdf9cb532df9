package ports

import (
	"context"

	"clusterperm/domain/tensor"
)

// TensorSource provides the per-group observation tensors. Loading from disk,
// morphing onto a common mesh and resampling all happen behind this port; the
// core only requires matching time/space extents across groups.
type TensorSource interface {
	Groups(ctx context.Context) ([]*tensor.GroupTensor, error)
}
