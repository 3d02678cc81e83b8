// Package app はコマンドラインの起動モードと依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/collection"
	"github.com/hitoshi/dataregistry/internal/config"
	"github.com/hitoshi/dataregistry/internal/database"
	"github.com/hitoshi/dataregistry/internal/export"
	"github.com/hitoshi/dataregistry/internal/feedback"
	"github.com/hitoshi/dataregistry/internal/handler"
	"github.com/hitoshi/dataregistry/internal/logger"
	"github.com/hitoshi/dataregistry/internal/metrics"
	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/repository"
	"github.com/hitoshi/dataregistry/internal/security"
	"github.com/hitoshi/dataregistry/internal/source"
	"github.com/hitoshi/dataregistry/internal/worker/cleanup"
)

// pingTimeout は起動時のDB疎通確認のタイムアウト。
const pingTimeout = 5 * time.Second

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	root := newRootCmd(w)
	root.SetArgs(args)
	return root.Execute()
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Ping(context.Background(), db, pingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)
	return db, nil
}

// newRecordSource は設定に応じたレコード取得元と、その名前を返す。
// 上流APIが設定されていればそれを、なければデータベースを使う。
func newRecordSource(cfg *config.Config, db *sql.DB) (source.RecordSource, string) {
	if cfg.UpstreamEnabled() {
		guard := security.NewSSRFGuard()
		return source.NewRemoteSource(cfg.UpstreamAPIURL, guard, cfg.UpstreamTimeout, cfg.UpstreamMaxSize), "upstream"
	}
	return source.NewRepositorySource(repository.NewPostgresCollectionRepo(db)), "database"
}

// newExportStore はエクスポート設定があればStoreを返す。
// 未設定の場合はnilを返し、エクスポートAPIは503を返す。
func newExportStore(ctx context.Context, cfg *config.Config) (*export.Store, error) {
	if !cfg.ExportsEnabled() {
		slog.Info("exports disabled: MINIO_ENDPOINT is not set")
		return nil, nil
	}

	backend, err := export.NewMinioBackend(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioBucket, cfg.MinioRegion, cfg.MinioUseSSL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create export backend: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := backend.HealthCheck(checkCtx); err != nil {
		// 起動は継続し、ダウンロード時のエラーとして扱う
		slog.Warn("export storage is not reachable", slog.String("error", err.Error()))
	}

	return export.NewStore(backend, cfg.ExportURLTTL), nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. レコード取得元とスナップショット
	src, srcName := newRecordSource(cfg, db)
	snapshot := source.NewSnapshot(src, srcName, collector, slog.Default())
	go snapshot.Start(ctx, cfg.SnapshotRefreshInterval)

	// 4. ドメインサービスの初期化
	locales := catalog.NewLocaleSelector(cfg.DefaultLanguage, cfg.SupportedLanguages...)
	collectionService := collection.NewService(
		snapshot, locales,
		security.NewContentSanitizer(), security.NewSSRFGuard(),
		collector, slog.Default(),
	)

	deps := &handler.RouterDeps{
		HealthChecker:     db,
		MetricsHandler:    metrics.Handler(reg),
		Metrics:           collector,
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Cookie: middleware.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
			MaxAge: cfg.CriteriaSessionMaxAge,
		},
		CollectionService: collectionService,
		CriteriaRepo:      repository.NewPostgresCriteriaSessionRepo(db),
		CriteriaMaxAge:    time.Duration(cfg.CriteriaSessionMaxAge) * time.Second,
	}

	// 5. エクスポート（任意）
	exportStore, err := newExportStore(ctx, cfg)
	if err != nil {
		return err
	}
	if exportStore != nil {
		deps.ExportStore = exportStore
	}

	// 6. フィードバック（任意）
	if cfg.FeedbackEnabled() {
		publisher, err := feedback.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to set up feedback publisher: %w", err)
		}
		defer publisher.Close()
		deps.FeedbackService = feedback.NewService(publisher, collector, slog.Default())
	} else {
		slog.Info("feedback disabled: RABBITMQ_URL is not set")
	}

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitFeedback),
	)
	defer rateLimiter.Stop()
	deps.RateLimiter = rateLimiter

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("record_source", srcName),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れの検索条件セッションを日次で削除する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config, interval time.Duration) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	job := cleanup.NewCleanupJob(db, slog.Default())
	job.RetentionDays = cfg.SessionRetentionDays

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", interval),
		slog.Int("retention_days", job.RetentionDays),
	)

	job.RunEvery(ctx, interval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// directionは "up"（未適用をすべて適用）、"down"（steps件戻す）、"version" のいずれか。
func runMigrate(w io.Writer, cfg *config.Config, direction string, steps int) error {
	slog.Info("running database migrations",
		slog.String("direction", direction),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch direction {
	case "up":
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case "down":
		if err := database.RollbackMigrations(cfg.DatabaseURL, steps); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
	case "version":
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		fmt.Fprintf(w, "version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migration direction %q (want up, down or version)", direction)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
