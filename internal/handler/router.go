package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dataregistry/internal/metrics"
	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	Metrics        metrics.MetricsCollector
	Logger         *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	Cookie            middleware.CookieConfig
	RateLimiter       *middleware.RateLimiter

	// カタログ
	CollectionService CollectionServiceInterface

	// エクスポート（nilの場合は無効）
	ExportStore ExportStoreInterface

	// フィードバック（nilの場合は無効）
	FeedbackService FeedbackServiceInterface

	// 検索条件セッション
	CriteriaRepo   repository.CriteriaSessionRepository
	CriteriaMaxAge time.Duration
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Metrics → Logging → Recovery → SecurityHeaders → CORS
//	  → CriteriaSession → RateLimit(General) → CSRF
//
// /health と /metrics はセッションとレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(middleware.DefaultCORSConfig(deps.CORSAllowedOrigin)))

	collectionHandler := NewCollectionHandler(deps.CollectionService)
	exportHandler := NewExportHandler(deps.CollectionService, deps.ExportStore, deps.Metrics)
	feedbackHandler := NewFeedbackHandler(deps.CollectionService, deps.FeedbackService)
	criteriaHandler := NewCriteriaHandler(deps.CriteriaRepo, deps.CriteriaMaxAge)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- API ---
	// ミドルウェアスタック: CriteriaSession → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCriteriaSessionMiddleware(deps.Cookie))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.Cookie))

		r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.Cookie).ServeHTTP)

		r.Route("/api/collections", func(r chi.Router) {
			r.Get("/", collectionHandler.Search)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", collectionHandler.Get)

				r.Get("/exports", exportHandler.List)
				r.Get("/exports/{name}", exportHandler.Download)

				// POST /api/collections/{id}/feedback - フィードバック専用レート制限を追加
				r.With(deps.RateLimiter.FeedbackMiddleware()).Post("/feedback", feedbackHandler.Submit)
			})
		})

		r.Route("/api/criteria", func(r chi.Router) {
			r.Get("/", criteriaHandler.Get)
			r.Put("/", criteriaHandler.Put)
			r.Delete("/", criteriaHandler.Delete)
		})
	})

	return r
}
