package ports

import (
	"context"

	"clusterperm/domain/cluster"
)

// ResultSink receives a completed run for downstream consumption: report
// writing, persistence, rendering. Sinks apply their own significance
// filtering; the core hands over the full result.
type ResultSink interface {
	Consume(ctx context.Context, res *cluster.Result) error
}
