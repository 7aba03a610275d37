package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexperf/roster-cli/internal/importer"
	"github.com/apexperf/roster-cli/internal/matcher"
	"github.com/apexperf/roster-cli/internal/model"
	"github.com/apexperf/roster-cli/internal/review"
	"github.com/apexperf/roster-cli/internal/store"
)

func newTestEnv(t *testing.T) (*pipelineEnv, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemory()
	metrics := model.DefaultMetrics()
	engine := matcher.New(matcher.Config{})
	queue := review.NewQueue(st, metrics, 30)
	env := &pipelineEnv{
		Store:    st,
		Metrics:  metrics,
		Matcher:  engine,
		Queue:    queue,
		Importer: importer.New(st, engine, queue, metrics, nil),
	}

	_, err := st.CreateRosterEntry(context.Background(), model.RosterEntry{
		ID: "ath-1", FirstName: "John", LastName: "Smith", TeamName: "Tigers", OrganizationID: "org-1",
	})
	require.NoError(t, err)
	return env, st
}

func testRouter(env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/import", handleImport(env))
	r.Get("/api/review", handleReviewList(env))
	r.Post("/api/review/{id}/approve", handleReviewDecision(env, model.ReviewActionApprove))
	r.Post("/api/review/{id}/reject", handleReviewDecision(env, model.ReviewActionReject))
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleImport(t *testing.T) {
	env, st := newTestEnv(t)
	h := testRouter(env)

	rec := postJSON(t, h, "/api/import", map[string]any{
		"acting_user_id":  "user-1",
		"organization_id": "org-1",
		"rows": []model.RowInput{
			{Row: 2, FirstName: "John", LastName: "Smith", TeamName: "Tigers", Metric: "forty", Value: "4.52"},
			{Row: 3, FirstName: "Nobody", LastName: "Unknown", Metric: "forty", Value: "4.60"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Summary model.ImportSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.Successful)
	assert.Equal(t, 1, resp.Summary.Failed)
	assert.Len(t, st.Measurements(), 1)
}

func TestHandleImport_Validation(t *testing.T) {
	env, _ := newTestEnv(t)
	h := testRouter(env)

	rec := postJSON(t, h, "/api/import", map[string]any{
		"rows": []model.RowInput{{Row: 2, FirstName: "John", LastName: "Smith", Metric: "forty", Value: "4.52"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "acting_user_id")

	rec = postJSON(t, h, "/api/import", map[string]any{"acting_user_id": "user-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "rows")
}

func TestHandleReviewLifecycle(t *testing.T) {
	env, st := newTestEnv(t)
	h := testRouter(env)

	// Queue a review-band row: nickname without a team hint.
	rec := postJSON(t, h, "/api/import", map[string]any{
		"acting_user_id":  "user-1",
		"organization_id": "org-1",
		"rows": []model.RowInput{
			{Row: 2, FirstName: "Jon", LastName: "Smith", Metric: "forty", Value: "4.52"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/api/review?org=org-1", nil)
	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	var list review.PendingList
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	itemID := list.Items[0].ID

	rec = postJSON(t, h, "/api/review/"+itemID+"/approve", map[string]string{
		"reviewer_id": "reviewer-1",
		"notes":       "confirmed at practice",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, st.Measurements(), 1)

	// Terminal decision: a second call conflicts.
	rec = postJSON(t, h, "/api/review/"+itemID+"/reject", map[string]string{"reviewer_id": "reviewer-2"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleReviewDecision_NotFound(t *testing.T) {
	env, _ := newTestEnv(t)
	h := testRouter(env)

	rec := postJSON(t, h, "/api/review/unknown/approve", map[string]string{"reviewer_id": "reviewer-1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReviewDecision_MissingReviewer(t *testing.T) {
	env, _ := newTestEnv(t)
	h := testRouter(env)

	rec := postJSON(t, h, "/api/review/any/approve", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
