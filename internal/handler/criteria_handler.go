package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/model"
	"github.com/hitoshi/dataregistry/internal/repository"
)

// CriteriaHandler は検索条件セッションの保存と復元のHTTPハンドラー。
// セッションIDは検索条件セッションミドルウェアがコンテキストに注入する。
type CriteriaHandler struct {
	repo   repository.CriteriaSessionRepository
	maxAge time.Duration
	now    func() time.Time
}

// NewCriteriaHandler はCriteriaHandlerを生成する。
// maxAgeは保存した検索条件の有効期間。
func NewCriteriaHandler(repo repository.CriteriaSessionRepository, maxAge time.Duration) *CriteriaHandler {
	return &CriteriaHandler{
		repo:   repo,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// criteriaResponse は保存済み検索条件のレスポンス。
// queryは GET /api/collections にそのまま渡せるクエリ文字列。
type criteriaResponse struct {
	Criteria  catalog.Criteria `json:"criteria"`
	Query     string           `json:"query"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Get は現在のセッションに保存された検索条件を返す。
// GET /api/criteria
func (h *CriteriaHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.repo.FindByID(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if session == nil {
		handleServiceError(w, model.NewCriteriaSessionEmptyError())
		return
	}

	var c catalog.Criteria
	if err := json.Unmarshal(session.Criteria, &c); err != nil {
		// 壊れた保存値は未保存として扱う
		slog.Warn("stored criteria could not be decoded",
			slog.String("criteria_session", sessionID),
			slog.String("error", err.Error()),
		)
		handleServiceError(w, model.NewCriteriaSessionEmptyError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toCriteriaResponse(c, session.ExpiresAt))
}

// Put は現在のセッションに検索条件を保存する。
// PUT /api/criteria
func (h *CriteriaHandler) Put(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var c catalog.Criteria
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&c); err != nil {
		handleServiceError(w, model.NewInvalidCriteriaError("検索条件のJSONを解析できません"))
		return
	}

	// 正規化した表現で保存する
	data, err := json.Marshal(c)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	session := &model.CriteriaSession{
		ID:        sessionID,
		Criteria:  data,
		ExpiresAt: h.now().Add(h.maxAge).UTC(),
	}
	if err := h.repo.Save(r.Context(), session); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toCriteriaResponse(c, session.ExpiresAt))
}

// Delete は現在のセッションに保存された検索条件を削除する。
// DELETE /api/criteria
func (h *CriteriaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteByID(r.Context(), sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CriteriaHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := middleware.CriteriaSessionIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return id, true
}

func toCriteriaResponse(c catalog.Criteria, expiresAt time.Time) criteriaResponse {
	return criteriaResponse{
		Criteria:  c,
		Query:     c.Query().Encode(),
		ExpiresAt: expiresAt.UTC(),
	}
}
