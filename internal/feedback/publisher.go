// Package feedback はコレクション詳細ページからのフィードバック送信を提供する。
// フィードバックはRabbitMQのトピックエクスチェンジへJSONとして発行する。
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hitoshi/dataregistry/internal/model"
)

// RoutingKey はフィードバックメッセージのルーティングキー。
const RoutingKey = "collection.feedback"

// publishTimeout は1件の発行に許容する時間。
const publishTimeout = 5 * time.Second

// Channel はAMQPチャネルのうち発行に必要な操作。
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher はフィードバックをエクスチェンジへ発行する。
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
	logger   *slog.Logger
	closers  []func() error
}

// NewPublisher は既存のチャネルを使うPublisherを生成する。
func NewPublisher(ch Channel, exchange string, logger *slog.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, logger: logger}
}

// Dial はRabbitMQに接続し、トピックエクスチェンジを宣言してPublisherを返す。
func Dial(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := NewPublisher(ch, exchange, logger)
	p.closers = []func() error{ch.Close, conn.Close}

	logger.Info("RabbitMQに接続しました", slog.String("exchange", exchange))
	return p, nil
}

// Publish はフィードバックをJSONとして発行する。メッセージは永続化モードで送る。
func (p *Publisher) Publish(ctx context.Context, fb model.Feedback) error {
	body, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(
		ctx,
		p.exchange, // exchange
		RoutingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    fb.SubmittedAt,
			MessageId:    fb.ID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish feedback: %w", err)
	}

	p.logger.Info("フィードバックを発行しました",
		slog.String("feedback_id", fb.ID),
		slog.Int64("collection_id", fb.CollectionID),
		slog.Int("body_size", len(body)),
	)
	return nil
}

// Close はDialで開いたチャネルと接続を閉じる。
func (p *Publisher) Close() error {
	var firstErr error
	for _, c := range p.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
