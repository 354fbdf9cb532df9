package api

import (
	"clusterperm/domain/cluster"
	"clusterperm/ports"
)

// ClusterTestRequest is the JSON body of POST /v1/cluster-test. Each group is
// indexed [subject][time][space]; all groups must agree on time and space
// extents, and the space extent must match the adjacency the server was
// configured with.
type ClusterTestRequest struct {
	Groups       [][][][]float64 `json:"groups"`
	Threshold    float64         `json:"threshold"`
	Tail         string          `json:"tail"`
	Permutations int             `json:"permutations"`
	Parallelism  int             `json:"parallelism"`
	Seed         int64           `json:"seed"`
	Alpha        float64         `json:"alpha"`
}

// ClusterView is one observed cluster in a response.
type ClusterView struct {
	Rank      int     `json:"rank"`
	PValue    float64 `json:"p_value"`
	Summary   float64 `json:"summary"`
	Size      int     `json:"size"`
	FirstTime int     `json:"first_time"`
	LastTime  int     `json:"last_time"`
	Vertices  int     `json:"vertices"`
}

// ClusterTestResponse is the JSON body returned for a completed run.
type ClusterTestResponse struct {
	RunID          string              `json:"run_id"`
	Clusters       []ClusterView       `json:"clusters"`
	H0Summary      cluster.NullSummary `json:"h0_summary"`
	MinDetectableP float64             `json:"min_detectable_p"`
	Permutations   int                 `json:"permutations"`
	Threshold      float64             `json:"threshold"`
	Tail           string              `json:"tail"`
}

// ErrorResponse carries a coded failure.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toResponse(res *cluster.Result) ClusterTestResponse {
	views := make([]ClusterView, len(res.Clusters))
	for i := range res.Clusters {
		c := &res.Clusters[i]
		first, last := c.TimeSpan()
		pval := 1.0
		if i < len(res.PValues) {
			pval = res.PValues[i]
		}
		views[i] = ClusterView{
			Rank:      i + 1,
			PValue:    pval,
			Summary:   c.Summary,
			Size:      c.Size(),
			FirstTime: first,
			LastTime:  last,
			Vertices:  len(c.Vertices()),
		}
	}
	return ClusterTestResponse{
		RunID:          res.RunID.String(),
		Clusters:       views,
		H0Summary:      res.H0Summary,
		MinDetectableP: res.MinDetectableP,
		Permutations:   res.Permutations,
		Threshold:      res.Threshold,
		Tail:           res.Tail.String(),
	}
}

func recordToResponse(rec *ports.RunRecord) ClusterTestResponse {
	views := make([]ClusterView, len(rec.Clusters))
	for i, c := range rec.Clusters {
		views[i] = ClusterView{
			Rank:      c.Rank + 1,
			PValue:    c.PValue,
			Summary:   c.Summary,
			Size:      c.Size,
			FirstTime: c.FirstTime,
			LastTime:  c.LastTime,
			Vertices:  c.Vertices,
		}
	}
	return ClusterTestResponse{
		RunID:          rec.RunID.String(),
		Clusters:       views,
		H0Summary:      rec.H0Summary,
		MinDetectableP: rec.MinDetectableP,
		Permutations:   rec.Permutations,
		Threshold:      rec.Threshold,
		Tail:           rec.Tail,
	}
}
