package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clusterperm/app"
	"clusterperm/domain/cluster"
	"clusterperm/domain/tensor"
	"clusterperm/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClusterTest(w http.ResponseWriter, r *http.Request) {
	var req ClusterTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("malformed request body"))
		return
	}

	groups, err := decodeGroups(req.Groups)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tail, err := cluster.ParseTail(req.Tail)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput(err.Error()))
		return
	}

	res, err := s.service.Run(r.Context(), groups, app.TestOptions{
		Threshold:    req.Threshold,
		Tail:         tail,
		Permutations: req.Permutations,
		Parallelism:  req.Parallelism,
		Seed:         req.Seed,
		Alpha:        req.Alpha,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if s.repo != nil {
		if err := s.repo.Save(r.Context(), res); err != nil {
			// Persistence is best-effort for the synchronous API path.
			s.log.Warn("failed to persist run %s: %v", res.RunID, err)
		}
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("run ID must be a UUID"))
		return
	}
	rec, err := s.repo.Get(r.Context(), runID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	recs, err := s.repo.List(r.Context(), 50)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	out := make([]ClusterTestResponse, len(recs))
	for i, rec := range recs {
		out[i] = recordToResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeGroups converts nested JSON arrays into group tensors, copying each
// subject's [time][space] rows into flat time-major storage.
func decodeGroups(raw [][][][]float64) ([]*tensor.GroupTensor, error) {
	if len(raw) == 0 {
		return nil, errors.InvalidInput("at least one group is required")
	}
	groups := make([]*tensor.GroupTensor, len(raw))
	for gi, subjects := range raw {
		if len(subjects) == 0 || len(subjects[0]) == 0 || len(subjects[0][0]) == 0 {
			return nil, errors.InvalidInput("groups must be non-empty [subject][time][space] arrays")
		}
		times, spaces := len(subjects[0]), len(subjects[0][0])
		rows := make([][]float64, len(subjects))
		for si, subj := range subjects {
			if len(subj) != times {
				return nil, errors.ShapeMismatch("group %d subject %d has %d time steps, want %d", gi, si, len(subj), times)
			}
			row := make([]float64, 0, times*spaces)
			for ti, spatial := range subj {
				if len(spatial) != spaces {
					return nil, errors.ShapeMismatch("group %d subject %d time %d has %d points, want %d", gi, si, ti, len(spatial), spaces)
				}
				row = append(row, spatial...)
			}
			rows[si] = row
		}
		g, err := tensor.FromSubjectRows(times, spaces, rows)
		if err != nil {
			return nil, err
		}
		groups[gi] = g
	}
	return groups, nil
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeShapeMismatch, errors.CodeInvalidThreshold, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Code: errors.GetCode(err), Message: err.Error()})
}
