// Package source はコレクションレコードの取得元を提供する。
// データベース、上流API、およびそれらをキャッシュするスナップショットを含む。
package source

import (
	"context"
	"fmt"

	"github.com/hitoshi/dataregistry/internal/model"
	"github.com/hitoshi/dataregistry/internal/repository"
)

// RecordSource は公開対象のコレクション列を返す読み取り専用の取得元。
type RecordSource interface {
	// Load は公開対象のすべてのコレクションを返す。
	Load(ctx context.Context) ([]model.Collection, error)
	// Find は指定IDのコレクションを返す。存在しない場合はnilを返す。
	Find(ctx context.Context, id int64) (*model.Collection, error)
}

// RepositorySource はPostgreSQLのコレクションテーブルを取得元とする。
type RepositorySource struct {
	repo repository.CollectionRepository
}

var _ RecordSource = (*RepositorySource)(nil)

// NewRepositorySource はRepositorySourceを生成する。
func NewRepositorySource(repo repository.CollectionRepository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

// Load は公開対象のコレクションをデータベースから読み込む。
func (s *RepositorySource) Load(ctx context.Context) ([]model.Collection, error) {
	collections, err := s.repo.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections from database: %w", err)
	}
	return collections, nil
}

// Find は公開対象のコレクションをIDで取得する。
func (s *RepositorySource) Find(ctx context.Context, id int64) (*model.Collection, error) {
	c, err := s.repo.FindVisibleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find collection %d: %w", id, err)
	}
	return c, nil
}

// findIn はコレクション列からIDが一致するものを探す。
func findIn(collections []model.Collection, id int64) *model.Collection {
	for i := range collections {
		if collections[i].ID == id {
			c := collections[i]
			return &c
		}
	}
	return nil
}
