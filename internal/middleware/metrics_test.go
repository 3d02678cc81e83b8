package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockMetrics struct {
	statuses []int
}

func (m *mockMetrics) RecordSearch(int, time.Duration) {}
func (m *mockMetrics) RecordSourceFailure(string) {}
func (m *mockMetrics) RecordHTTPStatus(code int) { m.statuses = append(m.statuses, code) }
func (m *mockMetrics) RecordExportRedirect(string) {}
func (m *mockMetrics) RecordFeedbackPublished() {}
func (m *mockMetrics) SetSnapshotSize(int) {}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{
			name:    "implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{}")) },
			want:    http.StatusOK,
		},
		{
			name:    "redirect",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTemporaryRedirect) },
			want:    http.StatusTemporaryRedirect,
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			want:    http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockMetrics{}
			NewMetricsMiddleware(m)(tt.handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			if len(m.statuses) != 1 || m.statuses[0] != tt.want {
				t.Errorf("recorded = %v, want [%d]", m.statuses, tt.want)
			}
		})
	}
}
