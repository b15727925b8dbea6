package persistence

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/config"
)

// ObjectStore wraps an S3-compatible client holding chat media in a private
// bucket. Objects are addressed by opaque storage://bucket/path references;
// temporary access goes through presigned URLs only.
type ObjectStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewObjectStore connects to the configured S3/MinIO endpoint, creating the
// bucket when absent.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		logger.Warn("STORAGE_ENDPOINT not provided; media ingestion disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, err
		}
	}

	logger.Info("connected to object storage", zap.String("bucket", cfg.Bucket))
	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		expiry: time.Duration(cfg.SignedURLTTLSeconds) * time.Second,
	}, nil
}

// Bucket returns the media bucket name.
func (s *ObjectStore) Bucket() string {
	return s.bucket
}

// Upload stores data under objectName.
func (s *ObjectStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

// PresignURL mints a short-lived GET URL for a storage reference.
func (s *ObjectStore) PresignURL(ctx context.Context, storageRef string) (string, time.Duration, error) {
	bucket, object, err := ParseStorageRef(storageRef)
	if err != nil {
		return "", 0, err
	}
	if bucket != s.bucket {
		return "", 0, fmt.Errorf("storage ref bucket %q does not match configured bucket", bucket)
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, object, s.expiry, url.Values{})
	if err != nil {
		return "", 0, err
	}
	return u.String(), s.expiry, nil
}

// Ping verifies object storage connectivity.
func (s *ObjectStore) Ping(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("object store not configured")
	}
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// ParseStorageRef splits a storage://bucket/path reference.
func ParseStorageRef(ref string) (bucket, object string, err error) {
	const prefix = "storage://"
	if !strings.HasPrefix(ref, prefix) {
		return "", "", fmt.Errorf("not a storage reference: %q", ref)
	}
	rest := strings.TrimPrefix(ref, prefix)
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", fmt.Errorf("malformed storage reference: %q", ref)
	}
	return rest[:idx], rest[idx+1:], nil
}
