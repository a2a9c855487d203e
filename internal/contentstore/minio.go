package contentstore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store is a thin wrapper around the content-addressed object store that
// holds the bytes documents reference. The registry never reads or writes
// content through it; it only checks that a hash resolves and hands out
// presigned GET links for consumers.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a content store client and ensures the bucket exists.
func New(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("content store config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &Store{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Exists reports whether an object keyed by the content hash is present.
func (s *Store) Exists(ctx context.Context, contentHash string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, contentHash, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PresignedGetURL returns a presigned GET URL for the referenced content,
// valid for the given duration.
func (s *Store) PresignedGetURL(ctx context.Context, contentHash string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, contentHash, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
