package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dataregistry/internal/metrics"
	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/model"
)

// ExportStoreInterface はエクスポートハンドラーが必要とするストレージインターフェース。
type ExportStoreInterface interface {
	// List はジョブのエクスポートファイル一覧を返す。
	List(ctx context.Context, jobID int64) ([]model.ExportFile, error)
	// PresignedURL はエクスポートファイルの期限付きダウンロードURLを返す。
	PresignedURL(ctx context.Context, jobID int64, name, filename string) (string, model.ExportFormat, error)
}

// ExportHandler はエクスポートファイルの一覧とダウンロードのHTTPハンドラー。
// storeがnilの場合、エクスポートは無効として503を返す。
type ExportHandler struct {
	collections CollectionServiceInterface
	store       ExportStoreInterface
	metrics     metrics.MetricsCollector
}

// NewExportHandler はExportHandlerを生成する。
func NewExportHandler(collections CollectionServiceInterface, store ExportStoreInterface, m metrics.MetricsCollector) *ExportHandler {
	return &ExportHandler{
		collections: collections,
		store:       store,
		metrics:     m,
	}
}

// exportFileResponse はエクスポートファイル1件分のレスポンス。
type exportFileResponse struct {
	Name         string    `json:"name"`
	Format       string    `json:"format"`
	Year         string    `json:"year,omitempty"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

// exportListResponse はエクスポート一覧のレスポンス。
type exportListResponse struct {
	CollectionID int64                `json:"collection_id"`
	JobID        *int64               `json:"job_id"`
	Files        []exportFileResponse `json:"files"`
}

// List はコレクションのアクティブジョブのエクスポートファイル一覧を返す。
// GET /api/collections/{id}/exports
func (h *ExportHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		handleServiceError(w, model.NewExportsUnavailableError())
		return
	}

	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	resp := exportListResponse{
		CollectionID: c.ID,
		Files:        []exportFileResponse{},
	}
	if c.ActiveJob == nil {
		middleware.WriteJSON(w, http.StatusOK, resp)
		return
	}

	jobID := c.ActiveJob.ID
	resp.JobID = &jobID

	files, err := h.store.List(r.Context(), jobID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	for _, f := range files {
		resp.Files = append(resp.Files, exportFileResponse{
			Name:         f.Name,
			Format:       string(f.Format),
			Year:         f.Year,
			Size:         f.Size,
			LastModified: f.LastModified.UTC(),
			URL:          fmt.Sprintf("/api/collections/%d/exports/%s", c.ID, f.Name),
		})
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Download はエクスポートファイルの期限付きURLへリダイレクトする。
// GET /api/collections/{id}/exports/{name}
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		handleServiceError(w, model.NewExportsUnavailableError())
		return
	}

	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if c.ActiveJob == nil {
		handleServiceError(w, model.NewExportNotFoundError(name))
		return
	}

	u, format, err := h.store.PresignedURL(r.Context(), c.ActiveJob.ID, name, downloadFilename(c, name))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordExportRedirect(string(format))
	}
	http.Redirect(w, r, u, http.StatusTemporaryRedirect)
}

// lookup はパスのIDから表示対象のコレクションを取得する。
// 失敗した場合はエラーレスポンスを書き込み、falseを返す。
func (h *ExportHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Collection, bool) {
	id, err := collectionIDParam(r)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}

	detail, err := h.collections.Get(r.Context(), id, "")
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return &detail.Collection, true
}

// downloadFilename は保存時のファイル名を返す（例: "mx_leon_full.jsonl.gz"）。
func downloadFilename(c *model.Collection, name string) string {
	if c.SourceID == "" {
		return name
	}
	return c.SourceID + "_" + name
}
