package catalog

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/hitoshi/dataregistry/internal/model"
)

// Result は絞り込みを通過したコレクションと、表示用の重なり注釈。
// 入力のコレクションは変更せず、毎回新しく生成する。
type Result struct {
	Collection model.Collection
	Overlap    Overlap
}

// dimension は絞り込みの次元。facet件数の集計で特定の次元を除外するために使う。
type dimension int

const (
	dimNone dimension = iota
	dimCountry
	dimFrequency
	dimRegion
	dimFacet
	dimDate
)

// Apply はすべての検索条件をレコード列に適用し、通過したレコードを入力順で返す。
//
// 国名の前方一致（大文字小文字を区別しない）、更新頻度、地域、データファセット（AND）、
// 日付の各条件の論理積で判定する。空の集合は常に「制約なし」。
// 入力スライスおよびレコードは変更しない。
func Apply(records []model.Collection, c Criteria, country CountryFunc, now time.Time) []Result {
	m := newMatcher(c, country, now)
	out := make([]Result, 0, len(records))
	for _, rec := range records {
		if o, ok := m.match(rec, dimNone); ok {
			out = append(out, Result{Collection: rec, Overlap: o})
		}
	}
	return out
}

// Collections は結果からコレクションだけを取り出す。
func Collections(results []Result) []model.Collection {
	out := make([]model.Collection, len(results))
	for i, r := range results {
		out[i] = r.Collection
	}
	return out
}

// RecordRange はレコードのアクティブジョブが持つ提供期間を返す。
// アクティブジョブがない場合は両端とも未設定。
func RecordRange(c model.Collection) DateRange {
	if c.ActiveJob == nil {
		return DateRange{}
	}
	return NewDateRange(c.ActiveJob.DateFrom, c.ActiveJob.DateTo)
}

// matcher は1回の絞り込みで使う、事前計算済みの条件。
// cases.Caserはゴルーチン間で共有できないため、呼び出しごとに生成する。
type matcher struct {
	prefix      string
	fold        cases.Caser
	country     CountryFunc
	frequencies Set[model.UpdateFrequency]
	regions     Set[model.Region]
	facets      Set[model.Facet]
	mode        DateMode
	custom      DateRange
	now         time.Time
}

func newMatcher(c Criteria, country CountryFunc, now time.Time) *matcher {
	fold := cases.Fold()
	if country == nil {
		country = defaultCountry
	}
	return &matcher{
		prefix:      fold.String(strings.TrimSpace(c.CountryPrefix)),
		fold:        fold,
		country:     country,
		frequencies: c.Frequencies,
		regions:     c.Regions,
		facets:      c.Facets,
		mode:        effectiveMode(c),
		custom:      c.Custom,
		now:         now,
	}
}

// match はskipで指定した次元を除くすべての条件を評価する。
// 最初に不一致となった次元で打ち切る。
func (m *matcher) match(rec model.Collection, skip dimension) (Overlap, bool) {
	if skip != dimCountry && !m.matchCountry(rec) {
		return Overlap{}, false
	}
	if skip != dimFrequency && !m.matchFrequency(rec) {
		return Overlap{}, false
	}
	if skip != dimRegion && !m.matchRegion(rec) {
		return Overlap{}, false
	}
	if skip != dimFacet && !m.matchFacets(rec) {
		return Overlap{}, false
	}
	if skip == dimDate {
		return Overlap{Included: true}, true
	}
	o := Evaluate(RecordRange(rec), m.mode, m.custom, m.now)
	return o, o.Included
}

func (m *matcher) matchCountry(rec model.Collection) bool {
	if m.prefix == "" {
		return true
	}
	return strings.HasPrefix(m.fold.String(m.country(rec)), m.prefix)
}

func (m *matcher) matchFrequency(rec model.Collection) bool {
	return len(m.frequencies) == 0 || m.frequencies.Has(rec.UpdateFrequency)
}

func (m *matcher) matchRegion(rec model.Collection) bool {
	return len(m.regions) == 0 || m.regions.Has(rec.Region)
}

// matchFacets は要求されたすべてのファセットがアクティブジョブに存在するかを判定する。
// アクティブジョブがない場合はすべてのファセットが存在しないものとして扱う。
func (m *matcher) matchFacets(rec model.Collection) bool {
	for f := range m.facets {
		if !rec.ActiveJob.Has(f) {
			return false
		}
	}
	return true
}

// defaultCountry は言語指定がない場合の国名取得。英語名を優先する。
func defaultCountry(c model.Collection) string {
	if name := c.Country["en"]; name != "" {
		return name
	}
	langs := make([]string, 0, len(c.Country))
	for lang := range c.Country {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if name := c.Country[lang]; name != "" {
			return name
		}
	}
	return ""
}
