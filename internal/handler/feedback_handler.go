package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/model"
)

// FeedbackServiceInterface はフィードバックハンドラーが必要とするサービスインターフェース。
type FeedbackServiceInterface interface {
	// Submit はフィードバックを検証してキューに送信する。
	Submit(ctx context.Context, collectionID int64, message, email, lang string) (*model.Feedback, error)
}

// FeedbackHandler はコレクションへのフィードバック送信のHTTPハンドラー。
// serviceがnilの場合、フィードバックは無効として503を返す。
type FeedbackHandler struct {
	collections CollectionServiceInterface
	service     FeedbackServiceInterface
}

// NewFeedbackHandler はFeedbackHandlerを生成する。
func NewFeedbackHandler(collections CollectionServiceInterface, service FeedbackServiceInterface) *FeedbackHandler {
	return &FeedbackHandler{
		collections: collections,
		service:     service,
	}
}

// submitFeedbackRequest はフィードバック送信リクエストのボディ。
type submitFeedbackRequest struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// feedbackResponse はフィードバック受付のレスポンス。
type feedbackResponse struct {
	ID           string    `json:"id"`
	CollectionID int64     `json:"collection_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Submit はフィードバックを受け付ける。
// POST /api/collections/{id}/feedback
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		handleServiceError(w, model.NewFeedbackUnavailableError())
		return
	}

	id, err := collectionIDParam(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req submitFeedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidFeedbackError("リクエストボディの解析に失敗しました"))
		return
	}

	// 存在しないコレクションへのフィードバックは受け付けない
	detail, err := h.collections.Get(r.Context(), id, requestLanguage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	fb, err := h.service.Submit(r.Context(), id, req.Message, req.Email, detail.Language)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, feedbackResponse{
		ID:           fb.ID,
		CollectionID: fb.CollectionID,
		SubmittedAt:  fb.SubmittedAt,
	})
}
