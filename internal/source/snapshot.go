package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/dataregistry/internal/metrics"
	"github.com/hitoshi/dataregistry/internal/model"
)

const (
	// initialBackoff は再試行の初回遅延。
	initialBackoff = 1 * time.Second
	// maxBackoff は再試行遅延の上限。
	maxBackoff = 30 * time.Second
	// maxAttempts は1回のRefreshで取得を試みる最大回数。
	maxAttempts = 3
)

// CalculateBackoff は連続失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回1秒、2倍ずつ増加、最大30秒。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// Snapshot は取得元から最後に読み込めたコレクション列を保持する。
// 一度も読み込めていない場合、Loadは空の列を返す。
type Snapshot struct {
	source  RecordSource
	name    string
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	wait    func(ctx context.Context, d time.Duration) error

	mu       sync.RWMutex
	records  []model.Collection
	loadedAt time.Time
}

var _ RecordSource = (*Snapshot)(nil)

// NewSnapshot はSnapshotを生成する。nameはメトリクスとログに使う取得元の名前。
func NewSnapshot(src RecordSource, name string, m metrics.MetricsCollector, logger *slog.Logger) *Snapshot {
	return &Snapshot{
		source:  src,
		name:    name,
		metrics: m,
		logger:  logger,
		wait:    sleepContext,
	}
}

// Load は保持しているコレクション列を返す。呼び出し側が変更しても影響しないよう複製する。
func (s *Snapshot) Load(ctx context.Context) ([]model.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Collection, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Find は保持しているコレクション列からIDで探す。
// まだ一度も読み込めていない場合は取得元に直接問い合わせる。
func (s *Snapshot) Find(ctx context.Context, id int64) (*model.Collection, error) {
	s.mu.RLock()
	loaded := !s.loadedAt.IsZero()
	c := findIn(s.records, id)
	s.mu.RUnlock()

	if loaded {
		return c, nil
	}
	return s.source.Find(ctx, id)
}

// LoadedAt は最後に読み込みに成功した時刻を返す。未読み込みの場合はゼロ値。
func (s *Snapshot) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Refresh は取得元から読み込み直す。失敗した場合は指数バックオフで再試行し、
// すべて失敗したときは既存のスナップショットを維持したままエラーを返す。
func (s *Snapshot) Refresh(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, CalculateBackoff(attempt-1)); err != nil {
				return err
			}
		}

		start := time.Now()
		records, err := s.source.Load(ctx)
		if err == nil {
			s.store(records)
			s.logger.Info("スナップショットを更新しました",
				slog.String("source", s.name),
				slog.Int("collection_count", len(records)),
				slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
			)
			return nil
		}

		lastErr = err
		s.metrics.RecordSourceFailure(s.name)
		s.logger.Warn("レコードの読み込みに失敗しました",
			slog.String("source", s.name),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}
	return fmt.Errorf("failed to refresh snapshot from %s after %d attempts: %w", s.name, maxAttempts, lastErr)
}

// Start は指定間隔のティッカーでスナップショットを更新する。
// 起動直後に1回更新し、コンテキストがキャンセルされるまで継続する。
func (s *Snapshot) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("スナップショット更新を開始しました",
		slog.String("source", s.name),
		slog.Duration("interval", interval),
	)

	s.refreshAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("スナップショット更新を停止しました", slog.String("source", s.name))
			return
		case <-ticker.C:
			s.refreshAndLog(ctx)
		}
	}
}

func (s *Snapshot) refreshAndLog(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("スナップショットの更新に失敗しました",
			slog.String("source", s.name),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Snapshot) store(records []model.Collection) {
	s.mu.Lock()
	s.records = records
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.metrics.SetSnapshotSize(len(records))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
