package feedback

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/dataregistry/internal/metrics"
	"github.com/hitoshi/dataregistry/internal/model"
)

// MaxMessageLength はフィードバック本文の最大文字数。
const MaxMessageLength = 2000

// Sender はフィードバックの送信先。
type Sender interface {
	Publish(ctx context.Context, fb model.Feedback) error
}

// Service はフィードバック入力の検証と送信を行う。
type Service struct {
	sender  Sender
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(sender Sender, m metrics.MetricsCollector, logger *slog.Logger) *Service {
	return &Service{
		sender:  sender,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Submit は入力を検証してフィードバックを送信する。
// 本文が空または長すぎる場合、メールアドレスが不正な場合はINVALID_FEEDBACKを返す。
func (s *Service) Submit(ctx context.Context, collectionID int64, message, email, lang string) (*model.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, model.NewInvalidFeedbackError("メッセージが空です")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, model.NewInvalidFeedbackError("メッセージが長すぎます")
	}

	email = strings.TrimSpace(email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return nil, model.NewInvalidFeedbackError("メールアドレスの形式が正しくありません")
		}
	}

	fb := model.Feedback{
		ID:           s.newID(),
		CollectionID: collectionID,
		Message:      message,
		Email:        email,
		Language:     lang,
		SubmittedAt:  s.now().UTC(),
	}

	if err := s.sender.Publish(ctx, fb); err != nil {
		s.logger.Error("フィードバックの送信に失敗しました",
			slog.Int64("collection_id", collectionID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewFeedbackUnavailableError()
	}

	s.metrics.RecordFeedbackPublished()
	return &fb, nil
}
