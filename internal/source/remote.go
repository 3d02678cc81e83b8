package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hitoshi/dataregistry/internal/model"
)

// SafeHTTP は上流APIへの接続に使うSSRF防止機能付きクライアントの提供元。
type SafeHTTP interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// RemoteSource は上流APIのJSONを取得元とする。
// レスポンスボディはmaxSizeバイトまでに制限する。
type RemoteSource struct {
	url     string
	guard   SafeHTTP
	timeout time.Duration
	maxSize int64
}

var _ RecordSource = (*RemoteSource)(nil)

// NewRemoteSource はRemoteSourceを生成する。
func NewRemoteSource(url string, guard SafeHTTP, timeout time.Duration, maxSize int64) *RemoteSource {
	return &RemoteSource{
		url:     url,
		guard:   guard,
		timeout: timeout,
		maxSize: maxSize,
	}
}

// Load は上流APIからコレクション列を取得する。
func (s *RemoteSource) Load(ctx context.Context) ([]model.Collection, error) {
	if err := s.guard.ValidateURL(s.url); err != nil {
		return nil, fmt.Errorf("upstream URL rejected: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "dataregistry/1.0")

	resp, err := s.guard.NewSafeClient(s.timeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}
	if int64(len(body)) > s.maxSize {
		return nil, fmt.Errorf("upstream response exceeds %d bytes", s.maxSize)
	}

	return DecodeCollections(bytes.NewReader(body))
}

// Find は上流APIの一覧から指定IDのコレクションを探す。
func (s *RemoteSource) Find(ctx context.Context, id int64) (*model.Collection, error) {
	collections, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return findIn(collections, id), nil
}
