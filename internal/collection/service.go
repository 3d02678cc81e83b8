// Package collection はコレクションの検索と詳細表示のサービスを提供する。
package collection

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/metrics"
	"github.com/hitoshi/dataregistry/internal/model"
	"github.com/hitoshi/dataregistry/internal/security"
	"github.com/hitoshi/dataregistry/internal/source"
)

// LinkChecker は表示してよいリンクかを判定する。
type LinkChecker interface {
	SafeLink(rawURL string) string
}

// Service はコレクション検索・詳細取得のサービス。
type Service struct {
	source    source.RecordSource
	locales   *catalog.LocaleSelector
	sanitizer security.TextSanitizer
	links     LinkChecker
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	src source.RecordSource,
	locales *catalog.LocaleSelector,
	sanitizer security.TextSanitizer,
	links LinkChecker,
	m metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		source:    src,
		locales:   locales,
		sanitizer: sanitizer,
		links:     links,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// SearchResult はSearchの戻り値。
type SearchResult struct {
	Language     string
	CountryField string
	Country      catalog.CountryFunc // 表示言語での国名
	Criteria     catalog.Criteria
	Results      []catalog.Result
	Counts       catalog.Counts
	Total        int // 絞り込み前のレコード数
}

// Search は取得元のレコードに検索条件を適用し、結果と選択肢ごとの件数を返す。
// 取得元の読み込みに失敗した場合は警告を記録し、空のレコード列として扱う。
func (s *Service) Search(ctx context.Context, c catalog.Criteria, lang string) (*SearchResult, error) {
	start := time.Now()

	records, err := s.source.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("レコードの読み込みに失敗したため空の一覧を返します",
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSourceFailure("search")
		records = nil
	}

	resolved := s.locales.Resolve(lang)
	country := s.locales.CountryFunc(resolved)
	now := s.now()

	results := catalog.Apply(records, c, country, now)
	counts := catalog.Count(records, c, country, now)

	s.metrics.RecordSearch(len(results), time.Since(start))

	return &SearchResult{
		Language:     resolved,
		CountryField: s.locales.CountryField(resolved),
		Country:      country,
		Criteria:     c,
		Results:      results,
		Counts:       counts,
		Total:        len(records),
	}, nil
}

// Detail はGetの戻り値。表示用テキストはサニタイズ済み。
type Detail struct {
	Collection model.Collection
	Language   string
	Country    string // 表示言語での国名
	Range      catalog.DateRange
}

// Get は公開対象のコレクションを1件返す。
// 存在しない場合はCOLLECTION_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id int64, lang string) (*Detail, error) {
	c, err := s.source.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, model.NewCollectionNotFoundError(id)
	}

	resolved := s.locales.Resolve(lang)
	sanitized := s.sanitize(*c)

	return &Detail{
		Collection: sanitized,
		Language:   resolved,
		Country:    s.locales.CountryFunc(resolved)(sanitized),
		Range:      catalog.RecordRange(sanitized),
	}, nil
}

// sanitize は表示用のテキストフィールドを無害化したコピーを返す。
func (s *Service) sanitize(c model.Collection) model.Collection {
	c.Title = s.sanitizer.PlainText(c.Title)
	c.Description = s.sanitizer.Sanitize(c.Description)
	c.DescriptionLong = s.sanitizer.Sanitize(c.DescriptionLong)
	c.Summary = s.sanitizer.Sanitize(c.Summary)
	c.AdditionalData = s.sanitizer.Sanitize(c.AdditionalData)
	c.NoDataRationale = s.sanitizer.Sanitize(c.NoDataRationale)
	c.SourceURL = s.links.SafeLink(c.SourceURL)

	country := make(map[string]string, len(c.Country))
	for lang, name := range c.Country {
		country[lang] = s.sanitizer.PlainText(name)
	}
	c.Country = country
	return c
}
