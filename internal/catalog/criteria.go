package catalog

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/hitoshi/dataregistry/internal/model"
)

// DateMode は日付による絞り込み方法を表す。
type DateMode string

const (
	// DateModeNone は日付で絞り込まない。
	DateModeNone DateMode = "none"
	// DateModePastMonth は過去1か月以内のデータを持つコレクションに絞り込む。
	DateModePastMonth DateMode = "past-month"
	// DateModePastSixMonths は過去6か月以内のデータを持つコレクションに絞り込む。
	DateModePastSixMonths DateMode = "past-6-months"
	// DateModeLastYear は過去1年以内のデータを持つコレクションに絞り込む。
	DateModeLastYear DateMode = "last-year"
	// DateModePastFiveYears は過去5年以内のデータを持つコレクションに絞り込む。
	DateModePastFiveYears DateMode = "past-5-years"
	// DateModeCustom はユーザー指定の期間と重なるコレクションに絞り込む。
	DateModeCustom DateMode = "custom"
)

// DateModes は画面の選択肢の順に並べた全日付モード。先頭がデフォルト。
var DateModes = []DateMode{
	DateModeNone,
	DateModePastMonth,
	DateModePastSixMonths,
	DateModeLastYear,
	DateModePastFiveYears,
	DateModeCustom,
}

// dateModeAliases は旧検索画面の date_range パラメータ値との対応。
var dateModeAliases = map[string]DateMode{
	"":   DateModeNone,
	"1M": DateModePastMonth,
	"6M": DateModePastSixMonths,
	"1Y": DateModeLastYear,
	"5Y": DateModePastFiveYears,
}

// ParseDateMode は文字列をDateModeに変換する。
// 未知の値はDateModeNoneとして扱う（すべて表示する側に倒す）。
func ParseDateMode(s string) DateMode {
	s = strings.TrimSpace(s)
	if m, ok := dateModeAliases[s]; ok {
		return m
	}
	for _, m := range DateModes {
		if string(m) == s {
			return m
		}
	}
	return DateModeNone
}

// Set は文字列系の値の集合。空の集合は「制約なし」を意味する。
type Set[T ~string] map[T]struct{}

// NewSet は指定した値を含むSetを生成する。空文字列は無視する。
func NewSet[T ~string](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add は値を追加する。空白のみの値は無視する。
func (s Set[T]) Add(v T) {
	v = T(strings.TrimSpace(string(v)))
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

// Has は値が含まれるかを返す。
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Sorted は値を辞書順に並べたスライスを返す。
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Criteria はユーザーの現在の検索条件を表す。
// Customは DateMode == DateModeCustom の場合にのみ意味を持つ。
type Criteria struct {
	CountryPrefix string
	Frequencies   Set[model.UpdateFrequency]
	Facets        Set[model.Facet]
	Regions       Set[model.Region]
	DateMode      DateMode
	Custom        DateRange
}

// DefaultCriteria は画面初期表示時の条件（絞り込みなし、先頭の日付モード）を返す。
func DefaultCriteria() Criteria {
	return Criteria{
		Frequencies: Set[model.UpdateFrequency]{},
		Facets:      Set[model.Facet]{},
		Regions:     Set[model.Region]{},
		DateMode:    DateModes[0],
	}
}

// IsUnconstrained はすべての次元が無制約であるかを返す。
func (c Criteria) IsUnconstrained() bool {
	return strings.TrimSpace(c.CountryPrefix) == "" &&
		len(c.Frequencies) == 0 &&
		len(c.Facets) == 0 &&
		len(c.Regions) == 0 &&
		effectiveMode(c) == DateModeNone
}

// criteriaJSON はCriteriaの保存用JSON表現。
// 集合はソート済み配列、日付は "YYYY-MM-DD" 形式で表す。
type criteriaJSON struct {
	Country     string   `json:"country,omitempty"`
	Frequencies []string `json:"frequencies,omitempty"`
	Facets      []string `json:"facets,omitempty"`
	Regions     []string `json:"regions,omitempty"`
	Date        string   `json:"date"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
}

// MarshalJSON はjson.Marshalerを実装する。
func (c Criteria) MarshalJSON() ([]byte, error) {
	mode := c.DateMode
	if mode == "" {
		mode = DateModeNone
	}
	return json.Marshal(criteriaJSON{
		Country:     c.CountryPrefix,
		Frequencies: toStrings(c.Frequencies.Sorted()),
		Facets:      toStrings(c.Facets.Sorted()),
		Regions:     toStrings(c.Regions.Sorted()),
		Date:        string(mode),
		From:        FormatDate(c.Custom.From),
		To:          FormatDate(c.Custom.To),
	})
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// 未知の日付モードはnone、解釈できない日付は境界なしとして扱う。
func (c *Criteria) UnmarshalJSON(data []byte) error {
	var raw criteriaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = DefaultCriteria()
	c.CountryPrefix = raw.Country
	c.addValues(raw.Frequencies, raw.Facets, raw.Regions)
	c.DateMode = ParseDateMode(raw.Date)
	c.Custom = DateRange{From: ParseDate(raw.From), To: ParseDate(raw.To)}
	return nil
}

// addValues は列挙値を正規化して集合に加える。
// 更新頻度と地域は大文字、データ種別は小文字に揃える。
func (c *Criteria) addValues(frequencies, facets, regions []string) {
	for _, v := range frequencies {
		c.Frequencies.Add(model.UpdateFrequency(strings.ToUpper(v)))
	}
	for _, v := range facets {
		c.Facets.Add(model.Facet(strings.ToLower(v)))
	}
	for _, v := range regions {
		c.Regions.Add(model.Region(strings.ToUpper(v)))
	}
}

// CriteriaFromQuery はURLクエリパラメータから検索条件を組み立てる。
//
//	country=ken&frequency=MONTHLY&facet=parties&facet=contracts&region=EU&date=custom&from=2020-01-01&to=2020-12-31
//
// 複数値パラメータはカンマ区切りも受け付ける。旧画面の date_range（1M, 6M, 1Y, 5Y）も解釈する。
func CriteriaFromQuery(q url.Values) Criteria {
	c := DefaultCriteria()
	c.CountryPrefix = strings.TrimSpace(q.Get("country"))
	c.addValues(splitValues(q["frequency"]), splitValues(q["facet"]), splitValues(q["region"]))

	mode := q.Get("date")
	if mode == "" {
		mode = q.Get("date_range")
	}
	c.DateMode = ParseDateMode(mode)
	c.Custom = DateRange{From: ParseDate(q.Get("from")), To: ParseDate(q.Get("to"))}
	return c
}

// Query は検索条件をURLクエリパラメータに変換する。CriteriaFromQueryの逆変換。
func (c Criteria) Query() url.Values {
	q := url.Values{}
	if c.CountryPrefix != "" {
		q.Set("country", c.CountryPrefix)
	}
	for _, v := range c.Frequencies.Sorted() {
		q.Add("frequency", string(v))
	}
	for _, v := range c.Facets.Sorted() {
		q.Add("facet", string(v))
	}
	for _, v := range c.Regions.Sorted() {
		q.Add("region", string(v))
	}
	if c.DateMode != "" && c.DateMode != DateModeNone {
		q.Set("date", string(c.DateMode))
	}
	if c.DateMode == DateModeCustom {
		if c.Custom.HasFrom() {
			q.Set("from", FormatDate(c.Custom.From))
		}
		if c.Custom.HasTo() {
			q.Set("to", FormatDate(c.Custom.To))
		}
	}
	return q
}

// splitValues は複数値パラメータをカンマでも分割する。
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func toStrings[T ~string](values []T) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
