package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/model"
)

// --- GET /api/criteria テスト ---

func TestCriteriaHandler_Get_ReturnsStoredCriteria(t *testing.T) {
	deps := testDeps(t)
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	deps.CriteriaRepo = &mockCriteriaRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CriteriaSession, error) {
			if id != testSessionID {
				t.Errorf("id = %q, want %q", id, testSessionID)
			}
			return &model.CriteriaSession{
				ID:        id,
				Criteria:  []byte(`{"country":"ken","regions":["MEA"],"date":"last-year"}`),
				ExpiresAt: expires,
			}, nil
		},
	}

	w := serve(deps, newRequest(http.MethodGet, "/api/criteria", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	var body struct {
		Criteria  catalog.Criteria `json:"criteria"`
		Query     string           `json:"query"`
		ExpiresAt time.Time        `json:"expires_at"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Criteria.CountryPrefix != "ken" || !body.Criteria.Regions.Has(model.RegionMEA) {
		t.Errorf("criteria = %+v", body.Criteria)
	}
	if body.Criteria.DateMode != catalog.DateModeLastYear {
		t.Errorf("date mode = %q", body.Criteria.DateMode)
	}
	q, err := url.ParseQuery(body.Query)
	if err != nil {
		t.Fatalf("invalid query %q: %v", body.Query, err)
	}
	if q.Get("country") != "ken" || q.Get("region") != "MEA" || q.Get("date") != "last-year" {
		t.Errorf("query = %q", body.Query)
	}
	if !body.ExpiresAt.Equal(expires) {
		t.Errorf("expires_at = %v", body.ExpiresAt)
	}
}

func TestCriteriaHandler_Get_Empty(t *testing.T) {
	tests := []struct {
		name    string
		session *model.CriteriaSession
	}{
		{name: "not saved", session: nil},
		{name: "corrupt", session: &model.CriteriaSession{ID: testSessionID, Criteria: []byte(`not json`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := testDeps(t)
			deps.CriteriaRepo = &mockCriteriaRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.CriteriaSession, error) {
					return tt.session, nil
				},
			}

			w := serve(deps, newRequest(http.MethodGet, "/api/criteria", ""))

			if w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
			}
		})
	}
}

func TestCriteriaHandler_Get_RepositoryError(t *testing.T) {
	deps := testDeps(t)
	deps.CriteriaRepo = &mockCriteriaRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CriteriaSession, error) {
			return nil, errors.New("db down")
		},
	}

	w := serve(deps, newRequest(http.MethodGet, "/api/criteria", ""))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- PUT /api/criteria テスト ---

func TestCriteriaHandler_Put_SavesNormalizedCriteria(t *testing.T) {
	deps := testDeps(t)
	var saved *model.CriteriaSession
	deps.CriteriaRepo = &mockCriteriaRepo{
		saveFn: func(ctx context.Context, session *model.CriteriaSession) error {
			saved = session
			return nil
		},
	}

	before := time.Now()
	w := serve(deps, newRequest(http.MethodPut, "/api/criteria",
		`{"country":"ke","facets":["tenders","awards"],"date":"custom","from":"2020-01-01","to":"bogus"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	if saved == nil {
		t.Fatal("expected Save to be called")
	}
	if saved.ID != testSessionID {
		t.Errorf("ID = %q, want %q", saved.ID, testSessionID)
	}

	var stored map[string]any
	if err := json.Unmarshal(saved.Criteria, &stored); err != nil {
		t.Fatalf("stored criteria is not JSON: %v", err)
	}
	facets, _ := stored["facets"].([]any)
	if len(facets) != 2 || facets[0] != "awards" || facets[1] != "tenders" {
		t.Errorf("facets = %v, want sorted [awards tenders]", stored["facets"])
	}
	if _, ok := stored["to"]; ok {
		t.Errorf("malformed date should be dropped, got to = %v", stored["to"])
	}

	wantMin := before.Add(time.Hour)
	if saved.ExpiresAt.Before(wantMin.Add(-time.Second)) || saved.ExpiresAt.After(time.Now().Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want about %v", saved.ExpiresAt, wantMin)
	}
}

func TestCriteriaHandler_Put_InvalidJSON(t *testing.T) {
	deps := testDeps(t)
	deps.CriteriaRepo = &mockCriteriaRepo{
		saveFn: func(ctx context.Context, session *model.CriteriaSession) error {
			t.Fatal("Save should not be called")
			return nil
		},
	}

	w := serve(deps, newRequest(http.MethodPut, "/api/criteria", `{"country":`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCriteriaHandler_Put_RequiresCSRFToken(t *testing.T) {
	deps := testDeps(t)
	req := newRequest(http.MethodPut, "/api/criteria", `{"country":"ke"}`)
	req.Header.Set("X-CSRF-Token", "wrong")

	w := serve(deps, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// --- DELETE /api/criteria テスト ---

func TestCriteriaHandler_Delete(t *testing.T) {
	deps := testDeps(t)
	deleted := ""
	deps.CriteriaRepo = &mockCriteriaRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	w := serve(deps, newRequest(http.MethodDelete, "/api/criteria", ""))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != testSessionID {
		t.Errorf("deleted = %q, want %q", deleted, testSessionID)
	}
}
