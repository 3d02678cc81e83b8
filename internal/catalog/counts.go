package catalog

import (
	"time"

	"github.com/hitoshi/dataregistry/internal/model"
)

// Counts は検索画面の各選択肢に表示する件数。
//
// 国・更新頻度・地域・日付モードの件数は、その次元自身の条件を外した場合に
// 一致するレコード数を表す。ファセットの件数は絞り込み結果のうち
// そのファセットを持つレコード数を表す。
type Counts struct {
	Countries   map[string]int
	Frequencies map[model.UpdateFrequency]int
	Regions     map[model.Region]int
	DateModes   map[DateMode]int
	Facets      map[model.Facet]int
}

// Count は検索条件に対する選択肢ごとの件数を集計する。Applyと同様に入力を変更しない。
func Count(records []model.Collection, c Criteria, country CountryFunc, now time.Time) Counts {
	m := newMatcher(c, country, now)

	counts := Counts{
		Countries:   map[string]int{},
		Frequencies: make(map[model.UpdateFrequency]int, len(model.UpdateFrequencies)),
		Regions:     make(map[model.Region]int, len(model.Regions)),
		DateModes:   make(map[DateMode]int, len(DateModes)),
		Facets:      make(map[model.Facet]int, len(model.Facets)),
	}
	for _, f := range model.UpdateFrequencies {
		counts.Frequencies[f] = 0
	}
	for _, r := range model.Regions {
		counts.Regions[r] = 0
	}
	for _, mode := range DateModes {
		if mode != DateModeCustom {
			counts.DateModes[mode] = 0
		}
	}
	for _, f := range model.Facets {
		counts.Facets[f] = 0
	}

	for _, rec := range records {
		name := m.country(rec)
		if name != "" {
			if _, ok := counts.Countries[name]; !ok {
				counts.Countries[name] = 0
			}
			if _, ok := m.match(rec, dimCountry); ok {
				counts.Countries[name]++
			}
		}

		if _, ok := m.match(rec, dimFrequency); ok && rec.UpdateFrequency != "" {
			counts.Frequencies[rec.UpdateFrequency]++
		}

		if _, ok := m.match(rec, dimRegion); ok && rec.Region != "" {
			counts.Regions[rec.Region]++
		}

		if _, ok := m.match(rec, dimDate); ok {
			rng := RecordRange(rec)
			for mode := range counts.DateModes {
				if Evaluate(rng, mode, DateRange{}, now).Included {
					counts.DateModes[mode]++
				}
			}
		}

		if _, ok := m.match(rec, dimNone); ok {
			for _, f := range model.Facets {
				if rec.ActiveJob.Has(f) {
					counts.Facets[f]++
				}
			}
		}
	}

	return counts
}
