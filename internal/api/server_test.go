package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-matcher/internal/ai/offline"
	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/state"
	"github.com/spigell/cv-matcher/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *state.Manager) {
	t.Helper()
	st := state.New(memory.New(), nil)
	st.Load(context.Background())

	adapter := matching.NewAdapter(offline.Scorer{}, st.Settings, "en", nil)
	svc := matching.NewService(st, matching.NewExecutor(adapter, matching.Options{}, nil), nil)
	return NewServer(st, svc, offline.Enricher{}, nil), st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
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

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestDocumentsMatchAndCascade(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Router()

	rec := do(t, h, http.MethodPost, "/api/v1/candidates", map[string]string{"name": "alice", "content": "Golang Kubernetes PostgreSQL engineer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cv := decode[domain.Document](t, rec)

	rec = do(t, h, http.MethodPost, "/api/v1/jobs", map[string]string{"name": "backend", "content": "Golang engineer with Kubernetes"})
	require.Equal(t, http.StatusCreated, rec.Code)
	jd := decode[domain.Document](t, rec)

	rec = do(t, h, http.MethodPost, "/api/v1/jobs", map[string]string{"name": "empty"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/match", matchRequest{CandidateIDs: []string{cv.ID}, JobIDs: []string{jd.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Successes []domain.MatchResult `json:"successes"`
		Failures  []failureResponse    `json:"failures"`
		Added     int                  `json:"added"`
	}](t, rec)
	require.Len(t, body.Successes, 1)
	assert.Empty(t, body.Failures)
	assert.Equal(t, 1, body.Added)

	rec = do(t, h, http.MethodGet, "/api/v1/results/"+body.Successes[0].ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/jobs/"+jd.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["resultsRemoved"])
	assert.Equal(t, 0, st.Results().Len())

	rec = do(t, h, http.MethodGet, "/api/v1/jobs/"+jd.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	rec := do(t, h, http.MethodPost, "/api/v1/match", matchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/match", matchRequest{CandidateIDs: []string{"nope"}, JobIDs: []string{"nope"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	for _, id := range []string{"skills", "experience", "education"} {
		rec := do(t, h, http.MethodPatch, "/api/v1/settings/dimensions/"+id, map[string]bool{"active": false})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := do(t, h, http.MethodPatch, "/api/v1/settings/dimensions/soft_skills", map[string]bool{"active": false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/settings/threshold", map[string]float64{"threshold": 65})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 65.0, decode[domain.Settings](t, rec).Threshold)

	rec = do(t, h, http.MethodDelete, "/api/v1/settings/dimensions/skills", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/settings/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DefaultSettings(), decode[domain.Settings](t, rec))
}

func TestResultsFilteringAndEnrich(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Router()
	ctx := context.Background()

	st.MergeResults(ctx, []*domain.MatchResult{
		{ID: "r1", CandidateID: "a", JobID: "x", OverallScore: 30},
		{ID: "r2", CandidateID: "b", JobID: "x", OverallScore: 90},
	})

	rec := do(t, h, http.MethodGet, "/api/v1/results?ranked=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[struct {
		Items []domain.MatchResult `json:"items"`
	}](t, rec).Items
	require.Len(t, items, 1)
	assert.Equal(t, "r2", items[0].ID)

	rec = do(t, h, http.MethodGet, "/api/v1/results?top=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[map[string]int](t, rec)["removed"])

	doc, err := domain.NewDocument(domain.KindCandidate, "cv", "Alice\nGolang developer")
	require.NoError(t, err)
	_, err = st.AddDocument(ctx, doc)
	require.NoError(t, err)

	rec = do(t, h, http.MethodPost, "/api/v1/candidates/"+doc.ID+"/enrich", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	enriched := decode[domain.Document](t, rec)
	assert.False(t, enriched.Enriching)
	assert.Equal(t, "Alice", enriched.Structured["summary"])
}

func TestCreateWithBackgroundEnrichment(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Router()

	rec := do(t, h, http.MethodPost, "/api/v1/jobs?enrich=true", map[string]string{"name": "backend", "content": "Backend engineer\nGo and Redis"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Document](t, rec)

	srv.Wait()

	doc, err := st.GetDocument(domain.KindJob, created.ID)
	require.NoError(t, err)
	assert.False(t, doc.Enriching)
	assert.Equal(t, "Backend engineer", doc.Structured["summary"])
}
