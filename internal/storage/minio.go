// Package storage persists generated asset bytes in S3-compatible object
// storage and hands out presigned download URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mkaran/go-studio-backend/internal/config"
)

// ObjectStore stores asset bytes and returns a URL the browser can load
// directly.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// MinioStore implements ObjectStore on top of a MinIO (or any S3-compatible)
// server. Presigned GET URLs carry the configured TTL.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

// NewMinioStore connects to the object storage endpoint and ensures the
// configured bucket exists.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %q: %w", cfg.Bucket, err)
		}
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, presignTTL: ttl}, nil
}

// Put uploads the object and returns a presigned GET URL for it. size may be
// -1 when the length is unknown; the client then streams in parts.
func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading object %q: %w", key, err)
	}

	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presigning object %q: %w", key, err)
	}
	return signed.String(), nil
}
