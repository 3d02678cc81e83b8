// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ミドルウェア、レコードソースから利用する。
type MetricsCollector interface {
	RecordSearch(resultCount int, duration time.Duration)
	RecordSourceFailure(source string)
	RecordHTTPStatus(statusCode int)
	RecordExportRedirect(format string)
	RecordFeedbackPublished()
	SetSnapshotSize(n int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	searches         prometheus.Counter
	searchResults    prometheus.Histogram
	searchLatency    prometheus.Histogram
	sourceFail       *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	exportRedirects  *prometheus.CounterVec
	feedbackMessages prometheus.Counter
	snapshotSize     prometheus.Gauge
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataregistry_searches_total",
			Help: "コレクション検索の合計数",
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataregistry_search_results",
			Help:    "検索1回あたりの該当コレクション数",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataregistry_search_latency_seconds",
			Help:    "検索処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sourceFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataregistry_source_fail_total",
			Help: "レコードソース読み込み失敗の合計数",
		}, []string{"source"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataregistry_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		exportRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataregistry_export_redirects_total",
			Help: "エクスポートファイルへのリダイレクト数",
		}, []string{"format"}),
		feedbackMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataregistry_feedback_published_total",
			Help: "送信されたフィードバックの合計数",
		}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataregistry_snapshot_collections",
			Help: "スナップショットに保持しているコレクション数",
		}),
	}

	reg.MustRegister(
		c.searches,
		c.searchResults,
		c.searchLatency,
		c.sourceFail,
		c.httpStatus,
		c.exportRedirects,
		c.feedbackMessages,
		c.snapshotSize,
	)

	return c
}

// RecordSearch は検索1回分の件数とレイテンシを記録する。
func (c *Collector) RecordSearch(resultCount int, duration time.Duration) {
	c.searches.Inc()
	c.searchResults.Observe(float64(resultCount))
	c.searchLatency.Observe(duration.Seconds())
}

// RecordSourceFailure はレコードソースの読み込み失敗を記録する。
func (c *Collector) RecordSourceFailure(source string) {
	c.sourceFail.WithLabelValues(source).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordExportRedirect はエクスポートのダウンロードを記録する。
func (c *Collector) RecordExportRedirect(format string) {
	c.exportRedirects.WithLabelValues(format).Inc()
}

// RecordFeedbackPublished はフィードバック送信を記録する。
func (c *Collector) RecordFeedbackPublished() {
	c.feedbackMessages.Inc()
}

// SetSnapshotSize はスナップショットのコレクション数を設定する。
func (c *Collector) SetSnapshotSize(n int) {
	c.snapshotSize.Set(float64(n))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
