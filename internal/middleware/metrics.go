package middleware

import (
	"net/http"

	"github.com/hitoshi/dataregistry/internal/metrics"
)

// NewMetricsMiddleware はレスポンスのステータスコードを集計するミドルウェアを返す。
func NewMetricsMiddleware(m metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newResponseRecorder(w)
			next.ServeHTTP(rec, r)
			m.RecordHTTPStatus(rec.status)
		})
	}
}
