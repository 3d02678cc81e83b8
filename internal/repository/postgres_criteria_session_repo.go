package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dataregistry/internal/model"
)

// PostgresCriteriaSessionRepo はPostgreSQLを使用した検索条件セッションリポジトリ。
type PostgresCriteriaSessionRepo struct {
	db *sql.DB
}

// NewPostgresCriteriaSessionRepo はPostgresCriteriaSessionRepoを生成する。
func NewPostgresCriteriaSessionRepo(db *sql.DB) *PostgresCriteriaSessionRepo {
	return &PostgresCriteriaSessionRepo{db: db}
}

// Save は検索条件を保存する。同じIDが存在する場合は条件と有効期限を上書きする。
func (r *PostgresCriteriaSessionRepo) Save(ctx context.Context, session *model.CriteriaSession) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO criteria_sessions (id, criteria, expires_at)
		 VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET criteria = EXCLUDED.criteria,
		     expires_at = EXCLUDED.expires_at,
		     updated_at = now()
		 RETURNING created_at, updated_at`,
		session.ID, string(session.Criteria), session.ExpiresAt,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save criteria session: %w", err)
	}
	return nil
}

// FindByID は指定IDの検索条件を取得する。存在しないか期限切れの場合はnilを返す。
func (r *PostgresCriteriaSessionRepo) FindByID(ctx context.Context, id string) (*model.CriteriaSession, error) {
	session := &model.CriteriaSession{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, criteria, expires_at, created_at, updated_at
		 FROM criteria_sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &session.Criteria, &session.ExpiresAt, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find criteria session: %w", err)
	}

	return session, nil
}

// DeleteByID は指定IDの検索条件を削除する。
func (r *PostgresCriteriaSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM criteria_sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete criteria session: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CriteriaSessionRepository = (*PostgresCriteriaSessionRepo)(nil)
