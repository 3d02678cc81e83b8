// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, catalog, export, feedback, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCollectionNotFound   = "COLLECTION_NOT_FOUND"
	ErrCodeInvalidCollectionID  = "INVALID_COLLECTION_ID"
	ErrCodeInvalidCriteria      = "INVALID_CRITERIA"
	ErrCodeExportNotFound       = "EXPORT_NOT_FOUND"
	ErrCodeExportsUnavailable   = "EXPORTS_UNAVAILABLE"
	ErrCodeInvalidFeedback      = "INVALID_FEEDBACK"
	ErrCodeFeedbackUnavailable  = "FEEDBACK_UNAVAILABLE"
	ErrCodeCriteriaSessionEmpty = "CRITERIA_SESSION_EMPTY"
	ErrCodeCSRFTokenInvalid     = "CSRF_TOKEN_INVALID"
	ErrCodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewCollectionNotFoundError はコレクション未検出エラーを生成する。
func NewCollectionNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeCollectionNotFound,
		Message:  fmt.Sprintf("指定されたコレクションが見つかりません: %d", id),
		Category: "catalog",
		Action:   "検索画面からコレクションを選び直してください。",
	}
}

// NewInvalidCollectionIDError は不正なコレクションIDのエラーを生成する。
func NewInvalidCollectionIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCollectionID,
		Message:  fmt.Sprintf("無効なコレクションIDです: %s", raw),
		Category: "validation",
		Action:   "コレクションIDには正の整数を指定してください。",
	}
}

// NewInvalidCriteriaError は検索条件を解釈できない場合のエラーを生成する。
func NewInvalidCriteriaError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCriteria,
		Message:  fmt.Sprintf("検索条件を解釈できません: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式で検索条件を送信してください。",
	}
}

// NewExportNotFoundError はエクスポートファイル未検出エラーを生成する。
func NewExportNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeExportNotFound,
		Message:  fmt.Sprintf("指定されたエクスポートファイルが見つかりません: %s", name),
		Category: "export",
		Action:   "エクスポート一覧から利用可能なファイルを選んでください。",
	}
}

// NewExportsUnavailableError はエクスポートストレージが未設定の場合のエラーを生成する。
func NewExportsUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeExportsUnavailable,
		Message:  "エクスポート機能は現在利用できません。",
		Category: "export",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidFeedbackError は不正なフィードバック入力のエラーを生成する。
func NewInvalidFeedbackError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFeedback,
		Message:  fmt.Sprintf("フィードバックの内容が不正です: %s", reason),
		Category: "validation",
		Action:   "メッセージを入力し、2000文字以内で送信してください。",
	}
}

// NewFeedbackUnavailableError はフィードバック送信先が未設定の場合のエラーを生成する。
func NewFeedbackUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeFeedbackUnavailable,
		Message:  "フィードバック機能は現在利用できません。",
		Category: "feedback",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCriteriaSessionEmptyError は保存された検索条件が存在しない場合のエラーを生成する。
func NewCriteriaSessionEmptyError() *APIError {
	return &APIError{
		Code:     ErrCodeCriteriaSessionEmpty,
		Message:  "保存された検索条件はありません。",
		Category: "catalog",
		Action:   "検索条件を保存してから再度お試しください。",
	}
}

// NewCSRFTokenInvalidError はCSRFトークンの検証に失敗した場合のエラーを生成する。
func NewCSRFTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "validation",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限を超えた場合のエラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
