package ports

import (
	"context"

	"github.com/google/uuid"

	"clusterperm/domain/cluster"
)

// RunRecord is the persisted view of a run: parameters, null summary and
// per-cluster outcomes, without the pointwise statistic map or per-point
// cluster membership.
type RunRecord struct {
	RunID          uuid.UUID
	CreatedAt      string
	Threshold      float64
	Tail           string
	Permutations   int
	Seed           int64
	Times          int
	Spaces         int
	MinDetectableP float64
	H0Summary      cluster.NullSummary
	Clusters       []ClusterRecord
}

// ClusterRecord is one persisted observed cluster.
type ClusterRecord struct {
	Rank      int
	Size      int
	Summary   float64
	PValue    float64
	FirstTime int
	LastTime  int
	Vertices  int
}

// ResultRepository persists completed runs and serves them back by run ID.
type ResultRepository interface {
	Save(ctx context.Context, res *cluster.Result) error
	Get(ctx context.Context, runID uuid.UUID) (*RunRecord, error)
	List(ctx context.Context, limit int) ([]*RunRecord, error)
}
