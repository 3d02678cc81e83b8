// Package handler はカタログAPIのHTTPハンドラーとルーティングを提供する。
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/model"
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeCollectionNotFound, model.ErrCodeExportNotFound, model.ErrCodeCriteriaSessionEmpty:
		return http.StatusNotFound
	case model.ErrCodeInvalidCollectionID, model.ErrCodeInvalidCriteria, model.ErrCodeInvalidFeedback:
		return http.StatusBadRequest
	case model.ErrCodeExportsUnavailable, model.ErrCodeFeedbackUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeCSRFTokenInvalid:
		return http.StatusForbidden
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// collectionIDParam はURLパスの {id} をコレクションIDとして解釈する。
func collectionIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewInvalidCollectionIDError(raw)
	}
	return id, nil
}

// requestLanguage はリクエストの表示言語を返す。
// lang クエリパラメータを優先し、なければ Accept-Language ヘッダーを使う。
// サポート言語への解決はサービス層が行う。
func requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return r.Header.Get("Accept-Language")
}
