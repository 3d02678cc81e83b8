package model

import "time"

// CriteriaSession はブラウザセッション単位で保存された検索条件を表す。
// Criteriaは catalog.Criteria のJSON表現をそのまま保持する。
type CriteriaSession struct {
	ID        string
	Criteria  []byte
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
