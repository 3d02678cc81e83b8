package export

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object はオブジェクトストレージ上の1ファイルのメタデータ。
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Backend はエクスポートファイルを保持するオブジェクトストレージの操作。
type Backend interface {
	// List はprefix直下のオブジェクトを返す。
	List(ctx context.Context, prefix string) ([]Object, error)
	// Stat はオブジェクトのメタデータを返す。存在しない場合はnilを返す。
	Stat(ctx context.Context, key string) (*Object, error)
	// PresignGet は期限付きのダウンロードURLを生成する。
	PresignGet(ctx context.Context, key string, ttl time.Duration, params url.Values) (*url.URL, error)
}

// MinioBackend はMinIO（S3互換）を使うBackendの実装。
type MinioBackend struct {
	client *minio.Client
	bucket string
}

var _ Backend = (*MinioBackend)(nil)

// NewMinioBackend はMinIOクライアントを生成する。
// regionを指定するとバケット位置の問い合わせを行わずに署名できる。
func NewMinioBackend(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*MinioBackend, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinioBackend{client: client, bucket: bucket}, nil
}

// List はprefix直下のオブジェクトを列挙する。
func (b *MinioBackend) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	for info := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list exports under %s: %w", prefix, info.Err)
		}
		objects = append(objects, Object{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	return objects, nil
}

// Stat はオブジェクトのメタデータを取得する。
func (b *MinioBackend) Stat(ctx context.Context, key string) (*Object, error) {
	info, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat export %s: %w", key, err)
	}
	return &Object{Key: info.Key, Size: info.Size, LastModified: info.LastModified}, nil
}

// PresignGet は期限付きのGET URLを生成する。
func (b *MinioBackend) PresignGet(ctx context.Context, key string, ttl time.Duration, params url.Values) (*url.URL, error) {
	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, ttl, params)
	if err != nil {
		return nil, fmt.Errorf("failed to presign export %s: %w", key, err)
	}
	return u, nil
}

// HealthCheck はバケットに到達できるかを確認する。
func (b *MinioBackend) HealthCheck(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("MinIO health check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket '%s' does not exist", b.bucket)
	}
	return nil
}
