// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/dataregistry/internal/model"
)

// CollectionRepository はカタログに掲載するコレクションの読み取りインターフェース。
// 一覧に表示できるのは公開済みで、アクティブジョブまたはデータなしの理由を持つものに限る。
type CollectionRepository interface {
	// ListVisible は表示対象のコレクションをアクティブジョブ付きで取得する。
	// 並び順は英語の国名、タイトルの昇順。
	ListVisible(ctx context.Context) ([]model.Collection, error)

	// FindVisibleByID は指定IDの表示対象コレクションを取得する。見つからない場合はnilを返す。
	FindVisibleByID(ctx context.Context, id int64) (*model.Collection, error)
}

// CriteriaSessionRepository はセッション単位の検索条件の永続化インターフェース。
type CriteriaSessionRepository interface {
	// Save は検索条件を保存する。同じIDが存在する場合は上書きする。
	Save(ctx context.Context, session *model.CriteriaSession) error
	// FindByID は指定IDの検索条件を取得する。存在しないか期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CriteriaSession, error)
	// DeleteByID は指定IDの検索条件を削除する。
	DeleteByID(ctx context.Context, id string) error
}
