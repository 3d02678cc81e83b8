package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/collection"
	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/model"
)

// --- モック定義 ---

// mockCollectionService はCollectionServiceInterfaceのモック実装。
type mockCollectionService struct {
	searchFn func(ctx context.Context, c catalog.Criteria, lang string) (*collection.SearchResult, error)
	getFn    func(ctx context.Context, id int64, lang string) (*collection.Detail, error)
}

func (m *mockCollectionService) Search(ctx context.Context, c catalog.Criteria, lang string) (*collection.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, c, lang)
	}
	return &collection.SearchResult{Language: "en"}, nil
}

func (m *mockCollectionService) Get(ctx context.Context, id int64, lang string) (*collection.Detail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id, lang)
	}
	return nil, model.NewCollectionNotFoundError(id)
}

// panicCollectionService は常にpanicするCollectionServiceInterfaceの実装。
type panicCollectionService struct{}

func (p *panicCollectionService) Search(ctx context.Context, c catalog.Criteria, lang string) (*collection.SearchResult, error) {
	panic("search exploded")
}

func (p *panicCollectionService) Get(ctx context.Context, id int64, lang string) (*collection.Detail, error) {
	panic("get exploded")
}

// mockExportStore はExportStoreInterfaceのモック実装。
type mockExportStore struct {
	listFn    func(ctx context.Context, jobID int64) ([]model.ExportFile, error)
	presignFn func(ctx context.Context, jobID int64, name, filename string) (string, model.ExportFormat, error)
}

func (m *mockExportStore) List(ctx context.Context, jobID int64) ([]model.ExportFile, error) {
	if m.listFn != nil {
		return m.listFn(ctx, jobID)
	}
	return nil, nil
}

func (m *mockExportStore) PresignedURL(ctx context.Context, jobID int64, name, filename string) (string, model.ExportFormat, error) {
	if m.presignFn != nil {
		return m.presignFn(ctx, jobID, name, filename)
	}
	return "", "", model.NewExportNotFoundError(name)
}

// mockFeedbackService はFeedbackServiceInterfaceのモック実装。
type mockFeedbackService struct {
	submitFn func(ctx context.Context, collectionID int64, message, email, lang string) (*model.Feedback, error)
}

func (m *mockFeedbackService) Submit(ctx context.Context, collectionID int64, message, email, lang string) (*model.Feedback, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, collectionID, message, email, lang)
	}
	return &model.Feedback{ID: "fb-1", CollectionID: collectionID}, nil
}

// mockCriteriaRepo はCriteriaSessionRepositoryのモック実装。
type mockCriteriaRepo struct {
	saveFn     func(ctx context.Context, session *model.CriteriaSession) error
	findByIDFn func(ctx context.Context, id string) (*model.CriteriaSession, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockCriteriaRepo) Save(ctx context.Context, session *model.CriteriaSession) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, session)
	}
	return nil
}

func (m *mockCriteriaRepo) FindByID(ctx context.Context, id string) (*model.CriteriaSession, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCriteriaRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockMetrics はMetricsCollectorのモック実装。
type mockMetrics struct {
	statuses  []int
	redirects []string
}

func (m *mockMetrics) RecordSearch(int, time.Duration) {}
func (m *mockMetrics) RecordSourceFailure(string) {}
func (m *mockMetrics) RecordHTTPStatus(code int) { m.statuses = append(m.statuses, code) }
func (m *mockMetrics) RecordExportRedirect(format string) { m.redirects = append(m.redirects, format) }
func (m *mockMetrics) RecordFeedbackPublished() {}
func (m *mockMetrics) SetSnapshotSize(int) {}

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- テストヘルパー ---

const (
	testSessionID = "6f1c1f0e-3a51-4a0e-8a47-6b3f4c2d9e10"
	testCSRFToken = "test-csrf-token"
)

// testDeps はテスト用の依存関係を返す。レート制限は実質無制限にする。
func testDeps(t *testing.T) *RouterDeps {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(6000, 6000))
	t.Cleanup(rl.Stop)
	return &RouterDeps{
		Metrics:           &mockMetrics{},
		CORSAllowedOrigin: "http://localhost:3000",
		Cookie:            middleware.CookieConfig{MaxAge: 3600},
		RateLimiter:       rl,
		CollectionService: &mockCollectionService{},
		CriteriaRepo:      &mockCriteriaRepo{},
		CriteriaMaxAge:    time.Hour,
	}
}

// newRequest は検索条件セッションCookieとCSRFトークンを付与したリクエストを生成する。
func newRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: middleware.CriteriaSessionCookieName, Value: testSessionID})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	return req
}

// serve はNewRouterでリクエストを処理する。
func serve(deps *RouterDeps, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	NewRouter(deps).ServeHTTP(w, req)
	return w
}

func sampleCollection() model.Collection {
	return model.Collection{
		ID:              7,
		Title:           "Mexico: León",
		Description:     "Contracting data",
		Country:         map[string]string{"en": "Mexico", "es": "México"},
		CountryFlag:     "mx.png",
		Region:          model.RegionLAC,
		UpdateFrequency: model.FrequencyMonthly,
		SourceID:        "mexico_leon",
		SourceURL:       "https://example.com/leon",
		Public:          true,
		ActiveJob: &model.Job{
			ID:       42,
			Status:   model.JobStatusCompleted,
			DateFrom: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
			DateTo:   time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
			Counts:   map[model.Facet]int{model.FacetTenders: 10, model.FacetAwards: 3},
		},
	}
}

func detailOf(c model.Collection, lang string) *collection.Detail {
	return &collection.Detail{
		Collection: c,
		Language:   lang,
		Country:    c.Country[lang],
		Range:      catalog.RecordRange(c),
	}
}
