package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clusterperm/adapters/adjacency"
	"clusterperm/adapters/stats"
	"clusterperm/app"
	"clusterperm/domain/cluster"
	"clusterperm/internal/errors"
	"clusterperm/ports"
)

type memoryRepo struct {
	runs map[uuid.UUID]*ports.RunRecord
	err  error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{runs: make(map[uuid.UUID]*ports.RunRecord)}
}

func (m *memoryRepo) Save(_ context.Context, res *cluster.Result) error {
	if m.err != nil {
		return m.err
	}
	rec := &ports.RunRecord{
		RunID:          res.RunID,
		Threshold:      res.Threshold,
		Tail:           res.Tail.String(),
		Permutations:   res.Permutations,
		Seed:           res.Seed,
		MinDetectableP: res.MinDetectableP,
		H0Summary:      res.H0Summary,
	}
	for i := range res.Clusters {
		c := &res.Clusters[i]
		first, last := c.TimeSpan()
		rec.Clusters = append(rec.Clusters, ports.ClusterRecord{
			Rank: i, Size: c.Size(), Summary: c.Summary,
			PValue: res.PValues[i], FirstTime: first, LastTime: last,
			Vertices: len(c.Vertices()),
		})
	}
	m.runs[res.RunID] = rec
	return nil
}

func (m *memoryRepo) Get(_ context.Context, runID uuid.UUID) (*ports.RunRecord, error) {
	if rec, ok := m.runs[runID]; ok {
		return rec, nil
	}
	return nil, errors.NotFound("run")
}

func (m *memoryRepo) List(_ context.Context, limit int) ([]*ports.RunRecord, error) {
	out := make([]*ports.RunRecord, 0, len(m.runs))
	for _, rec := range m.runs {
		if len(out) == limit {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

func testServer(t *testing.T, repo ports.ResultRepository) *Server {
	t.Helper()
	adj, err := adjacency.Lattice(3, 1)
	require.NoError(t, err)
	svc := app.NewClusterTestService(stats.OneWayF(), adj, nil, nil)
	return NewServer(svc, repo, nil)
}

// requestGroups builds a two-group request body over a 4x3 grid with a
// strong group difference everywhere.
func requestGroups(seed int64, offset float64) [][][][]float64 {
	rng := rand.New(rand.NewSource(seed))
	group := func(n int, base float64) [][][]float64 {
		subjects := make([][][]float64, n)
		for s := range subjects {
			steps := make([][]float64, 4)
			for ti := range steps {
				row := make([]float64, 3)
				for v := range row {
					row[v] = base + 0.1*rng.Float64()
				}
				steps[ti] = row
			}
			subjects[s] = steps
		}
		return subjects
	}
	return [][][][]float64{group(5, 0), group(5, offset)}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := testServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestClusterTestEndpoint(t *testing.T) {
	srv := testServer(t, nil)
	req := ClusterTestRequest{
		Groups:       requestGroups(1, 10),
		Threshold:    20,
		Tail:         "positive",
		Permutations: 49,
		Seed:         7,
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ClusterTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 49, resp.Permutations)
	assert.Equal(t, "positive", resp.Tail)
	require.NotEmpty(t, resp.Clusters)
	assert.Equal(t, 1, resp.Clusters[0].Rank)
	assert.GreaterOrEqual(t, resp.Clusters[0].PValue, 1.0/50.0)
	assert.LessOrEqual(t, resp.Clusters[0].PValue, 0.1)
	assert.Equal(t, 12, resp.Clusters[0].Size, "uniform difference clusters the whole grid")
}

func TestClusterTestRejectsBadBodies(t *testing.T) {
	srv := testServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", map[string]string{"groups": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", ClusterTestRequest{Threshold: 2, Permutations: 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no groups")

	ragged := requestGroups(1, 10)
	ragged[0][0][2] = []float64{1}
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", ClusterTestRequest{
		Groups: ragged, Threshold: 2, Permutations: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "ragged spatial row")
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, errors.CodeShapeMismatch, errResp.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", ClusterTestRequest{
		Groups: requestGroups(1, 10), Threshold: 2, Permutations: 10, Tail: "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown tail")
}

func TestClusterTestWrongSpatialExtent(t *testing.T) {
	// Server adjacency covers 3 vertices; send 2.
	srv := testServer(t, nil)
	groups := [][][][]float64{
		{{{1, 1}, {1, 1}}, {{1, 1}, {1, 1}}},
		{{{5, 5}, {5, 5}}, {{5, 5}, {5, 5}}},
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", ClusterTestRequest{
		Groups: groups, Threshold: 2, Permutations: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunPersistenceRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	srv := testServer(t, repo)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", ClusterTestRequest{
		Groups: requestGroups(2, 10), Threshold: 20, Tail: "positive", Permutations: 19, Seed: 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClusterTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, repo.runs, 1)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/v1/runs/"+resp.RunID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched ClusterTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, resp.RunID, fetched.RunID)
	assert.Equal(t, resp.Clusters, fetched.Clusters)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []ClusterTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestGetRunErrors(t *testing.T) {
	srv := testServer(t, newMemoryRepo())

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveFailureDoesNotFailRequest(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.DatabaseError("connection lost")
	srv := testServer(t, repo)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/cluster-test", ClusterTestRequest{
		Groups: requestGroups(1, 10), Threshold: 20, Tail: "positive", Permutations: 19, Seed: 1,
	})
	assert.Equal(t, http.StatusOK, rec.Code, "persistence is best-effort")
}

func TestPersistenceRoutesAbsentWithoutRepo(t *testing.T) {
	srv := testServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/runs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
