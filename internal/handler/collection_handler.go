package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/collection"
	"github.com/hitoshi/dataregistry/internal/middleware"
	"github.com/hitoshi/dataregistry/internal/model"
)

// CollectionServiceInterface はコレクションハンドラーが必要とするサービスインターフェース。
type CollectionServiceInterface interface {
	// Search は検索条件に一致するコレクションと選択肢ごとの件数を返す。
	Search(ctx context.Context, c catalog.Criteria, lang string) (*collection.SearchResult, error)
	// Get は表示対象のコレクションを1件返す。
	Get(ctx context.Context, id int64, lang string) (*collection.Detail, error)
}

// CollectionHandler はカタログ検索と詳細表示のHTTPハンドラー。
type CollectionHandler struct {
	service CollectionServiceInterface
}

// NewCollectionHandler はCollectionHandlerを生成する。
func NewCollectionHandler(service CollectionServiceInterface) *CollectionHandler {
	return &CollectionHandler{service: service}
}

// collectionSummaryResponse は一覧に表示する1件分のコレクション。
// overlap_* は今回の検索条件に対して計算した表示用の注釈。
type collectionSummaryResponse struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Country         string   `json:"country"`
	CountryFlag     string   `json:"country_flag,omitempty"`
	Region          string   `json:"region"`
	UpdateFrequency string   `json:"update_frequency"`
	DateFrom        string   `json:"date_from,omitempty"`
	DateTo          string   `json:"date_to,omitempty"`
	Facets          []string `json:"facets"`
	OverlapAlert    bool     `json:"overlap_alert"`
	OverlapFrom     string   `json:"overlap_from,omitempty"`
	OverlapTo       string   `json:"overlap_to,omitempty"`
}

// countsResponse は検索画面の選択肢ごとの件数。
type countsResponse struct {
	Countries   map[string]int                `json:"countries"`
	Frequencies map[model.UpdateFrequency]int `json:"frequencies"`
	Regions     map[model.Region]int          `json:"regions"`
	DateModes   map[catalog.DateMode]int      `json:"date_modes"`
	Facets      map[model.Facet]int           `json:"facets"`
}

// searchResponse は GET /api/collections のレスポンス。
type searchResponse struct {
	Language     string                      `json:"language"`
	CountryField string                      `json:"country_field"`
	Criteria     catalog.Criteria            `json:"criteria"`
	Total        int                         `json:"total"`
	Count        int                         `json:"count"`
	Results      []collectionSummaryResponse `json:"results"`
	Counts       countsResponse              `json:"counts"`
}

// jobResponse はアクティブジョブの情報。
type jobResponse struct {
	ID       int64               `json:"id"`
	Status   string              `json:"status"`
	DateFrom string              `json:"date_from,omitempty"`
	DateTo   string              `json:"date_to,omitempty"`
	Counts   map[model.Facet]int `json:"counts"`
}

// collectionDetailResponse は GET /api/collections/{id} のレスポンス。
type collectionDetailResponse struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	DescriptionLong string            `json:"description_long"`
	Country         string            `json:"country"`
	CountryNames    map[string]string `json:"country_names"`
	CountryFlag     string            `json:"country_flag,omitempty"`
	Region          string            `json:"region"`
	UpdateFrequency string            `json:"update_frequency"`
	Summary         string            `json:"summary"`
	AdditionalData  string            `json:"additional_data"`
	Language        string            `json:"language"`
	SourceID        string            `json:"source_id"`
	SourceURL       string            `json:"source_url"`
	LastRetrieved   *time.Time        `json:"last_retrieved,omitempty"`
	NoDataRationale string            `json:"no_data_rationale,omitempty"`
	DateFrom        string            `json:"date_from,omitempty"`
	DateTo          string            `json:"date_to,omitempty"`
	ActiveJob       *jobResponse      `json:"active_job"`
	DisplayLanguage string            `json:"display_language"`
}

// Search はクエリパラメータの検索条件でコレクションを絞り込む。
// GET /api/collections?country=&frequency=&facet=&region=&date=&from=&to=&lang=
func (h *CollectionHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria := catalog.CriteriaFromQuery(r.URL.Query())

	result, err := h.service.Search(r.Context(), criteria, requestLanguage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toSearchResponse(result))
}

// Get はコレクションの詳細を返す。
// GET /api/collections/{id}
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := collectionIDParam(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	detail, err := h.service.Get(r.Context(), id, requestLanguage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toCollectionDetailResponse(detail))
}

// --- ヘルパー関数 ---

func toSearchResponse(res *collection.SearchResult) searchResponse {
	results := make([]collectionSummaryResponse, len(res.Results))
	for i, r := range res.Results {
		country := ""
		if res.Country != nil {
			country = res.Country(r.Collection)
		}
		results[i] = toCollectionSummaryResponse(r, country)
	}

	return searchResponse{
		Language:     res.Language,
		CountryField: res.CountryField,
		Criteria:     res.Criteria,
		Total:        res.Total,
		Count:        len(results),
		Results:      results,
		Counts: countsResponse{
			Countries:   res.Counts.Countries,
			Frequencies: res.Counts.Frequencies,
			Regions:     res.Counts.Regions,
			DateModes:   res.Counts.DateModes,
			Facets:      res.Counts.Facets,
		},
	}
}

func toCollectionSummaryResponse(r catalog.Result, country string) collectionSummaryResponse {
	c := r.Collection
	rng := catalog.RecordRange(c)

	resp := collectionSummaryResponse{
		ID:              c.ID,
		Title:           c.Title,
		Country:         country,
		CountryFlag:     c.CountryFlag,
		Region:          string(c.Region),
		UpdateFrequency: string(c.UpdateFrequency),
		DateFrom:        catalog.FormatDate(rng.From),
		DateTo:          catalog.FormatDate(rng.To),
		Facets:          presentFacets(c.ActiveJob),
		OverlapAlert:    r.Overlap.Alert,
	}
	if r.Overlap.Alert {
		resp.OverlapFrom = catalog.FormatDate(r.Overlap.From)
		resp.OverlapTo = catalog.FormatDate(r.Overlap.To)
	}
	return resp
}

func toCollectionDetailResponse(d *collection.Detail) collectionDetailResponse {
	c := d.Collection
	resp := collectionDetailResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		DescriptionLong: c.DescriptionLong,
		Country:         d.Country,
		CountryNames:    c.Country,
		CountryFlag:     c.CountryFlag,
		Region:          string(c.Region),
		UpdateFrequency: string(c.UpdateFrequency),
		Summary:         c.Summary,
		AdditionalData:  c.AdditionalData,
		Language:        c.Language,
		SourceID:        c.SourceID,
		SourceURL:       c.SourceURL,
		NoDataRationale: c.NoDataRationale,
		DateFrom:        catalog.FormatDate(d.Range.From),
		DateTo:          catalog.FormatDate(d.Range.To),
		DisplayLanguage: d.Language,
	}
	if !c.LastRetrieved.IsZero() {
		t := c.LastRetrieved.UTC()
		resp.LastRetrieved = &t
	}
	if j := c.ActiveJob; j != nil {
		counts := make(map[model.Facet]int, len(model.Facets))
		for _, f := range model.Facets {
			counts[f] = j.Counts[f]
		}
		resp.ActiveJob = &jobResponse{
			ID:       j.ID,
			Status:   string(j.Status),
			DateFrom: catalog.FormatDate(j.DateFrom),
			DateTo:   catalog.FormatDate(j.DateTo),
			Counts:   counts,
		}
	}
	return resp
}

// presentFacets はジョブが1件以上のデータを持つファセットを表示順で返す。
func presentFacets(j *model.Job) []string {
	out := []string{}
	for _, f := range model.Facets {
		if j.Has(f) {
			out = append(out, string(f))
		}
	}
	return out
}
