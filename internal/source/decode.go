package source

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/model"
)

// recordJSON は上流APIが返すコレクション1件のJSON表現。
// date_from/date_toはactive_jobがない場合のトップレベル表現にも対応する。
type recordJSON struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DescriptionLong string   `json:"description_long"`
	Country         string   `json:"country"`
	CountryEN       string   `json:"country_en"`
	CountryES       string   `json:"country_es"`
	CountryRU       string   `json:"country_ru"`
	CountryFlag     string   `json:"country_flag"`
	Region          string   `json:"region"`
	UpdateFrequency string   `json:"update_frequency"`
	Summary         string   `json:"summary"`
	AdditionalData  string   `json:"additional_data"`
	Language        string   `json:"language"`
	SourceID        string   `json:"source_id"`
	SourceURL       string   `json:"source_url"`
	LastRetrieved   string   `json:"last_retrieved"`
	NoDataRationale string   `json:"no_data_rationale"`
	DateFrom        string   `json:"date_from"`
	DateTo          string   `json:"date_to"`
	ActiveJob       *jobJSON `json:"active_job"`
}

type jobJSON struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	DateFrom        string `json:"date_from"`
	DateTo          string `json:"date_to"`
	PartiesCount    int    `json:"parties_count"`
	PlanningsCount  int    `json:"plannings_count"`
	TendersCount    int    `json:"tenders_count"`
	AwardsCount     int    `json:"awards_count"`
	ContractsCount  int    `json:"contracts_count"`
	DocumentsCount  int    `json:"documents_count"`
	MilestonesCount int    `json:"milestones_count"`
	AmendmentsCount int    `json:"amendments_count"`
}

// DecodeCollections は上流APIのJSON配列をコレクション列に変換する。
// 日付が解釈できない場合は境界なしとして扱い、エラーにしない。
// 上流APIは公開対象のみを返すため、すべてPublicとして扱う。
func DecodeCollections(r io.Reader) ([]model.Collection, error) {
	var raw []*recordJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}

	out := make([]model.Collection, 0, len(raw))
	for _, rec := range raw {
		if rec == nil {
			continue
		}
		out = append(out, rec.toCollection())
	}
	return out, nil
}

func (r *recordJSON) toCollection() model.Collection {
	c := model.Collection{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		DescriptionLong: r.DescriptionLong,
		Country:         map[string]string{},
		CountryFlag:     r.CountryFlag,
		Region:          model.Region(strings.ToUpper(r.Region)),
		UpdateFrequency: model.UpdateFrequency(strings.ToUpper(r.UpdateFrequency)),
		Summary:         r.Summary,
		AdditionalData:  r.AdditionalData,
		Language:        r.Language,
		SourceID:        r.SourceID,
		SourceURL:       r.SourceURL,
		LastRetrieved:   parseTimestamp(r.LastRetrieved),
		NoDataRationale: r.NoDataRationale,
		Public:          true,
	}
	if c.UpdateFrequency == "" {
		c.UpdateFrequency = model.FrequencyUnknown
	}

	en := r.CountryEN
	if en == "" {
		en = r.Country
	}
	for lang, name := range map[string]string{"en": en, "es": r.CountryES, "ru": r.CountryRU} {
		if name != "" {
			c.Country[lang] = name
		}
	}

	switch {
	case r.ActiveJob != nil:
		c.ActiveJob = r.ActiveJob.toJob()
	case r.DateFrom != "" || r.DateTo != "":
		c.ActiveJob = &model.Job{
			DateFrom: catalog.ParseDate(r.DateFrom),
			DateTo:   catalog.ParseDate(r.DateTo),
			Counts:   map[model.Facet]int{},
		}
	}
	return c
}

func (j *jobJSON) toJob() *model.Job {
	status := model.JobStatus(strings.ToUpper(j.Status))
	if status == "" {
		status = model.JobStatusCompleted
	}
	return &model.Job{
		ID:       j.ID,
		Status:   status,
		DateFrom: catalog.ParseDate(j.DateFrom),
		DateTo:   catalog.ParseDate(j.DateTo),
		Counts: map[model.Facet]int{
			model.FacetParties:    j.PartiesCount,
			model.FacetPlannings:  j.PlanningsCount,
			model.FacetTenders:    j.TendersCount,
			model.FacetAwards:     j.AwardsCount,
			model.FacetContracts:  j.ContractsCount,
			model.FacetDocuments:  j.DocumentsCount,
			model.FacetMilestones: j.MilestonesCount,
			model.FacetAmendments: j.AmendmentsCount,
		},
	}
}

// parseTimestamp はRFC 3339のタイムスタンプを解釈する。解釈できない場合はゼロ値。
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return catalog.ParseDate(s)
}
