// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string
	LogLevel   string

	// Locale
	DefaultLanguage    string
	SupportedLanguages []string

	// Criteria session
	CriteriaSessionMaxAge int
	SessionRetentionDays  int

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitGeneral  int
	RateLimitFeedback int

	// Upstream record source。未設定の場合はデータベースから読み込む。
	UpstreamAPIURL          string
	UpstreamTimeout         time.Duration
	UpstreamMaxSize         int64
	SnapshotRefreshInterval time.Duration

	// Exports (MinIO / S3)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	ExportURLTTL   time.Duration

	// Feedback (RabbitMQ)
	RabbitMQURL      string
	RabbitMQExchange string
}

// LoadDotEnv は.envファイルが存在すれば環境変数として読み込む。
// 既に設定されている環境変数は上書きしない。ファイルがない場合は何もしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.DefaultLanguage = strings.ToLower(getEnvString("DEFAULT_LANGUAGE", "en"))
	cfg.SupportedLanguages = getEnvList("SUPPORTED_LANGUAGES", []string{"en", "es", "ru"})
	cfg.CriteriaSessionMaxAge = getEnvInt("CRITERIA_SESSION_MAX_AGE", 86400)
	cfg.SessionRetentionDays = getEnvInt("SESSION_RETENTION_DAYS", 30)
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitFeedback = getEnvInt("RATE_LIMIT_FEEDBACK", 10)
	cfg.UpstreamAPIURL = getEnvString("UPSTREAM_API_URL", "")
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.UpstreamMaxSize = getEnvInt64("UPSTREAM_MAX_SIZE", 10485760)
	cfg.SnapshotRefreshInterval = getEnvDuration("SNAPSHOT_REFRESH_INTERVAL", 10*time.Minute)
	cfg.MinioEndpoint = getEnvString("MINIO_ENDPOINT", "")
	cfg.MinioAccessKey = getEnvString("MINIO_ACCESS_KEY", "")
	cfg.MinioSecretKey = getEnvString("MINIO_SECRET_KEY", "")
	cfg.MinioBucket = getEnvString("MINIO_BUCKET", "exports")
	cfg.MinioRegion = getEnvString("MINIO_REGION", "us-east-1")
	cfg.MinioUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.ExportURLTTL = getEnvDuration("EXPORT_URL_TTL", 15*time.Minute)
	cfg.RabbitMQURL = getEnvString("RABBITMQ_URL", "")
	cfg.RabbitMQExchange = getEnvString("RABBITMQ_EXCHANGE", "registry.feedback")

	if cfg.UpstreamAPIURL != "" {
		u, err := url.Parse(cfg.UpstreamAPIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("UPSTREAM_API_URL must be an absolute http(s) URL: %q", cfg.UpstreamAPIURL)
		}
	}

	return cfg, nil
}

// UpstreamEnabled は上流APIからレコードを取得する設定かを返す。
func (c *Config) UpstreamEnabled() bool {
	return c.UpstreamAPIURL != ""
}

// ExportsEnabled はエクスポートのダウンロードが設定されているかを返す。
func (c *Config) ExportsEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioBucket != ""
}

// FeedbackEnabled はフィードバックの送信先が設定されているかを返す。
func (c *Config) FeedbackEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの値を小文字のスライスとして返す。空要素は除く。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
