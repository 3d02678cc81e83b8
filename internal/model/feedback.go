package model

import "time"

// Feedback は詳細ページから送信されたコレクションへのフィードバックを表す。
type Feedback struct {
	ID           string    `json:"id"`
	CollectionID int64     `json:"collection_id"`
	Message      string    `json:"message"`
	Email        string    `json:"email,omitempty"`
	Language     string    `json:"language"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
