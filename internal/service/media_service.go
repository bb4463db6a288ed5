package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/piteam/pi_api/internal/config"
)

// MediaService stores uploaded media in an S3-compatible bucket and hands out
// durable public URLs.
type MediaService struct {
	client *minio.Client
	cfg    *config.StorageConfig
}

// NewMediaService constructs a MediaService. When storage credentials are
// missing or placeholders, the returned service is disabled: Enabled() reports
// false and uploads fail with an explanatory error.
func NewMediaService(cfg *config.StorageConfig) (*MediaService, error) {
	svc := &MediaService{cfg: cfg}
	if !cfg.Configured() {
		log.Warn().Msg("media storage not configured - file uploads disabled")
		return svc, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	svc.client = client
	return svc, nil
}

// EnsureBucket creates the configured bucket if it does not exist yet.
// Called once at startup; a no-op when storage is disabled.
func (s *MediaService) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := s.client.BucketExists(ctx, s.cfg.Bucket)
		if checkErr != nil || !exists {
			return fmt.Errorf("failed to make/verify bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Enabled reports whether uploads can be served.
func (s *MediaService) Enabled() bool {
	return s.client != nil
}

// Upload stores data under key with the given content type and returns the
// public URL of the object.
func (s *MediaService) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("media storage not configured")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("media upload failed")
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.cfg.Bucket, key)
	log.Info().Str("key", key).Int("size_bytes", len(data)).Msg("media uploaded")
	return url, nil
}
