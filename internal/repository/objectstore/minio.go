package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
)

// MinIO stores media in an S3 compatible bucket
type MinIO struct {
	mc        *minio.Client
	bucket    string
	publicURL string
}

// NewMinIO connects to the endpoint and creates the bucket when missing
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is empty")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("Media bucket created")
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinIO{mc: mc, bucket: cfg.Bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Put uploads data under name
func (s *MinIO) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.mc.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", s.bucket, name, err)
	}

	log.Debug().Str("bucket", s.bucket).Str("name", name).Int("size", len(data)).Msg("Media uploaded")
	return s.publicURL + "/" + name, nil
}
