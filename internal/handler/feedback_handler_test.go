package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/hitoshi/dataregistry/internal/collection"
	"github.com/hitoshi/dataregistry/internal/model"
)

// --- POST /api/collections/{id}/feedback テスト ---

func TestFeedbackHandler_Submit_Success(t *testing.T) {
	deps := testDeps(t)
	deps.CollectionService = &mockCollectionService{
		getFn: func(ctx context.Context, id int64, lang string) (*collection.Detail, error) {
			if lang != "es" {
				t.Errorf("lang = %q, want es", lang)
			}
			return detailOf(sampleCollection(), "es"), nil
		},
	}
	submitted := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	deps.FeedbackService = &mockFeedbackService{
		submitFn: func(ctx context.Context, collectionID int64, message, email, lang string) (*model.Feedback, error) {
			if collectionID != 7 {
				t.Errorf("collectionID = %d, want 7", collectionID)
			}
			if message != "Broken link" || email != "user@example.com" {
				t.Errorf("message = %q, email = %q", message, email)
			}
			if lang != "es" {
				t.Errorf("lang = %q, want resolved language es", lang)
			}
			return &model.Feedback{ID: "fb-123", CollectionID: collectionID, SubmittedAt: submitted}, nil
		},
	}

	w := serve(deps, newRequest(http.MethodPost, "/api/collections/7/feedback?lang=es", `{"message":"Broken link","email":"user@example.com"}`))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusAccepted, w.Body.String())
	}
	var body feedbackResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != "fb-123" || body.CollectionID != 7 || !body.SubmittedAt.Equal(submitted) {
		t.Errorf("body = %+v", body)
	}
}

func TestFeedbackHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		submitErr  error
		wantStatus int
	}{
		{name: "invalid json", path: "/api/collections/7/feedback", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "unknown collection", path: "/api/collections/8/feedback", body: `{"message":"hi"}`, wantStatus: http.StatusNotFound},
		{name: "bad id", path: "/api/collections/x/feedback", body: `{"message":"hi"}`, wantStatus: http.StatusBadRequest},
		{name: "validation", path: "/api/collections/7/feedback", body: `{"message":""}`, submitErr: model.NewInvalidFeedbackError("empty"), wantStatus: http.StatusBadRequest},
		{name: "queue down", path: "/api/collections/7/feedback", body: `{"message":"hi"}`, submitErr: model.NewFeedbackUnavailableError(), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := testDeps(t)
			deps.CollectionService = collectionServiceWith(sampleCollection())
			deps.FeedbackService = &mockFeedbackService{
				submitFn: func(ctx context.Context, collectionID int64, message, email, lang string) (*model.Feedback, error) {
					if tt.submitErr != nil {
						return nil, tt.submitErr
					}
					return &model.Feedback{ID: "fb"}, nil
				},
			}

			w := serve(deps, newRequest(http.MethodPost, tt.path, tt.body))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestFeedbackHandler_Submit_Disabled(t *testing.T) {
	deps := testDeps(t)
	deps.CollectionService = collectionServiceWith(sampleCollection())

	w := serve(deps, newRequest(http.MethodPost, "/api/collections/7/feedback", `{"message":"hi"}`))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestFeedbackHandler_Submit_RequiresCSRFToken(t *testing.T) {
	deps := testDeps(t)
	deps.CollectionService = collectionServiceWith(sampleCollection())
	deps.FeedbackService = &mockFeedbackService{
		submitFn: func(ctx context.Context, collectionID int64, message, email, lang string) (*model.Feedback, error) {
			t.Fatal("Submit should not be called without a CSRF token")
			return nil, nil
		},
	}

	req := newRequest(http.MethodPost, "/api/collections/7/feedback", `{"message":"hi"}`)
	req.Header.Del("X-CSRF-Token")
	w := serve(deps, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
