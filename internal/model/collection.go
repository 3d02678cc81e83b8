// Package model はドメインモデルを定義する。
package model

import "time"

// Collection はデータカタログに掲載される1件のパブリケーションを表す。
// バックエンドが所有し、クライアントは読み取り専用のスナップショットとして扱う。
type Collection struct {
	ID              int64
	Title           string
	Description     string            // Markdown
	DescriptionLong string            // Markdown
	Country         map[string]string // 言語コード → 国名
	CountryFlag     string
	Region          Region
	UpdateFrequency UpdateFrequency
	Summary         string // データ品質の概要（Markdown）
	AdditionalData  string
	Language        string
	SourceID        string
	SourceURL       string
	LastRetrieved   time.Time
	NoDataRationale string
	Public          bool
	ActiveJob       *Job
}

// Job はコレクションの最新処理ジョブ（アクティブジョブ）を表す。
// 日付範囲とデータファセットの件数を保持する。
type Job struct {
	ID       int64
	Status   JobStatus
	DateFrom time.Time // ゼロ値は未設定
	DateTo   time.Time // ゼロ値は未設定
	Counts   map[Facet]int
}

// Has はジョブが指定ファセットのデータを含むかを返す。
// 件数が1以上の場合にのみtrueを返す。
func (j *Job) Has(f Facet) bool {
	if j == nil {
		return false
	}
	return j.Counts[f] > 0
}

// JobStatus はジョブの状態を表す。
type JobStatus string

const (
	JobStatusPlanned   JobStatus = "PLANNED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
)

// UpdateFrequency は公開元がデータを更新する頻度を表す。
type UpdateFrequency string

const (
	FrequencyUnknown    UpdateFrequency = "UNKNOWN"
	FrequencyRealTime   UpdateFrequency = "REAL_TIME"
	FrequencyHourly     UpdateFrequency = "HOURLY"
	FrequencyDaily      UpdateFrequency = "DAILY"
	FrequencyWeekly     UpdateFrequency = "WEEKLY"
	FrequencyMonthly    UpdateFrequency = "MONTHLY"
	FrequencyQuarterly  UpdateFrequency = "QUARTERLY"
	FrequencyHalfYearly UpdateFrequency = "HALF_YEARLY"
	FrequencyAnnually   UpdateFrequency = "ANNUALLY"
)

// UpdateFrequencies は表示順に並べた全更新頻度。
var UpdateFrequencies = []UpdateFrequency{
	FrequencyUnknown,
	FrequencyRealTime,
	FrequencyHourly,
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencyHalfYearly,
	FrequencyAnnually,
}

// Region はデータの発生国が属する地域を表す。
type Region string

const (
	RegionMEA  Region = "MEA"  // Africa and Middle East
	RegionAS   Region = "AS"   // Asia
	RegionEECA Region = "EECA" // Eastern Europe & Central Asia
	RegionEU   Region = "EU"   // Europe
	RegionLAC  Region = "LAC"  // Latin America & Caribbean
	RegionNA   Region = "NA"   // North America
	RegionOC   Region = "OC"   // Oceania
)

// Regions は表示順に並べた全地域。
var Regions = []Region{RegionMEA, RegionAS, RegionEECA, RegionEU, RegionLAC, RegionNA, RegionOC}

// Facet はコレクションが提供しうるデータのカテゴリを表す。
type Facet string

const (
	FacetParties    Facet = "parties"
	FacetPlannings  Facet = "plannings"
	FacetTenders    Facet = "tenders"
	FacetAwards     Facet = "awards"
	FacetContracts  Facet = "contracts"
	FacetDocuments  Facet = "documents"
	FacetMilestones Facet = "milestones"
	FacetAmendments Facet = "amendments"
)

// Facets は表示順に並べた全ファセット。
var Facets = []Facet{
	FacetParties,
	FacetPlannings,
	FacetTenders,
	FacetAwards,
	FacetContracts,
	FacetDocuments,
	FacetMilestones,
	FacetAmendments,
}
