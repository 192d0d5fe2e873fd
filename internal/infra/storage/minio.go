package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"storefront/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// メニュー画像の保存先
type MinioImageStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioImageStore はバケットが無ければ作る
func NewMinioImageStore(ctx context.Context, cfg config.Config) (*MinioImageStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	scheme := "http"
	if cfg.MinioUseSSL {
		scheme = "https"
	}

	return &MinioImageStore{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket),
	}, nil
}

// Put は uuid 名で保存して公開URLを返す
func (s *MinioImageStore) Put(ctx context.Context, filename string, contentType string, r io.Reader, size int64) (string, error) {
	name := ObjectName(filename)
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + name, nil
}

// 元の拡張子だけ残す
func ObjectName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return uuid.NewString() + ext
}
