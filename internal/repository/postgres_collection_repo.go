package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dataregistry/internal/model"
)

// PostgresCollectionRepo はPostgreSQLを使用したコレクションリポジトリ。
type PostgresCollectionRepo struct {
	db *sql.DB
}

// NewPostgresCollectionRepo はPostgresCollectionRepoを生成する。
func NewPostgresCollectionRepo(db *sql.DB) *PostgresCollectionRepo {
	return &PostgresCollectionRepo{db: db}
}

// selectVisibleCollections はアクティブジョブをLEFT JOINした表示対象コレクションの取得クエリ。
// アクティブジョブがなく、データなしの理由も空のコレクションは除外する。
const selectVisibleCollections = `
	SELECT c.id, c.source_id, c.title, c.description, c.description_long,
	       c.country_flag, c.country_en, c.country_es, c.country_ru,
	       c.region, c.update_frequency, c.summary, c.additional_data, c.language,
	       c.source_url, c.last_retrieved, c.no_data_rationale, c.public,
	       j.id, j.status, j.date_from, j.date_to,
	       j.parties_count, j.plannings_count, j.tenders_count, j.awards_count,
	       j.contracts_count, j.documents_count, j.milestones_count, j.amendments_count
	FROM collections c
	LEFT JOIN jobs j ON j.id = c.active_job_id
	WHERE c.public = true
	  AND (c.active_job_id IS NOT NULL OR c.no_data_rationale <> '')`

// ListVisible は表示対象のコレクションをアクティブジョブ付きで取得する。
func (r *PostgresCollectionRepo) ListVisible(ctx context.Context) ([]model.Collection, error) {
	rows, err := r.db.QueryContext(ctx, selectVisibleCollections+`
	ORDER BY c.country_en, c.title, c.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []model.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}

	return collections, nil
}

// FindVisibleByID は指定IDの表示対象コレクションを取得する。見つからない場合はnilを返す。
func (r *PostgresCollectionRepo) FindVisibleByID(ctx context.Context, id int64) (*model.Collection, error) {
	row := r.db.QueryRowContext(ctx, selectVisibleCollections+`
	  AND c.id = $1`, id)

	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find collection: %w", err)
	}
	return c, nil
}

// rowScanner は*sql.Rowと*sql.Rowsに共通のScanを抽象化する。
type rowScanner interface {
	Scan(dest ...any) error
}

// jobColumns はLEFT JOINで取得したジョブのカラム。アクティブジョブがない場合はすべてNULL。
type jobColumns struct {
	id       sql.NullInt64
	status   sql.NullString
	dateFrom sql.NullTime
	dateTo   sql.NullTime
	counts   [8]sql.NullInt64
}

// toJob はジョブのカラムをmodel.Jobに変換する。IDがNULLの場合はnilを返す。
// countsの並びはmodel.Facetsと同じ順序である必要がある。
func (jc *jobColumns) toJob() *model.Job {
	if !jc.id.Valid {
		return nil
	}

	job := &model.Job{
		ID:     jc.id.Int64,
		Status: model.JobStatus(jc.status.String),
		Counts: make(map[model.Facet]int, len(model.Facets)),
	}
	if jc.dateFrom.Valid {
		job.DateFrom = jc.dateFrom.Time
	}
	if jc.dateTo.Valid {
		job.DateTo = jc.dateTo.Time
	}
	for i, f := range model.Facets {
		job.Counts[f] = int(jc.counts[i].Int64)
	}
	return job
}

func scanCollection(row rowScanner) (*model.Collection, error) {
	var (
		c                               model.Collection
		countryEN, countryES, countryRU string
		region, frequency               string
		lastRetrieved                   sql.NullTime
		job                             jobColumns
	)

	err := row.Scan(
		&c.ID, &c.SourceID, &c.Title, &c.Description, &c.DescriptionLong,
		&c.CountryFlag, &countryEN, &countryES, &countryRU,
		&region, &frequency, &c.Summary, &c.AdditionalData, &c.Language,
		&c.SourceURL, &lastRetrieved, &c.NoDataRationale, &c.Public,
		&job.id, &job.status, &job.dateFrom, &job.dateTo,
		&job.counts[0], &job.counts[1], &job.counts[2], &job.counts[3],
		&job.counts[4], &job.counts[5], &job.counts[6], &job.counts[7],
	)
	if err != nil {
		return nil, err
	}

	c.Country = countryNames(countryEN, countryES, countryRU)
	c.Region = model.Region(region)
	c.UpdateFrequency = model.UpdateFrequency(frequency)
	if lastRetrieved.Valid {
		c.LastRetrieved = lastRetrieved.Time
	}
	c.ActiveJob = job.toJob()

	return &c, nil
}

// countryNames は言語別の国名カラムを言語コードのマップにまとめる。空の値は含めない。
func countryNames(en, es, ru string) map[string]string {
	names := make(map[string]string, 3)
	for lang, name := range map[string]string{"en": en, "es": es, "ru": ru} {
		if name != "" {
			names[lang] = name
		}
	}
	return names
}

// compile-time interface check
var _ CollectionRepository = (*PostgresCollectionRepo)(nil)
