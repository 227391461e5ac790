package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// ReportStorage keeps exported report files and hands out time-limited links.
type ReportStorage interface {
	Upload(ctx context.Context, objectKey, contentType string, data []byte) error
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

type minioReportStorage struct {
	client *minio.Client
	bucket string
	region string
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIOReportStorage(endpoint, accessKey, secretKey, bucket, region string, useSSL bool, logger zerolog.Logger) (ReportStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucket).
		Bool("ssl", useSSL).
		Msg("MinIO report storage configured")

	return &minioReportStorage{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

// ensureBucket creates the bucket on first use. A failed attempt is retried
// on the next call.
func (s *minioReportStorage) ensureBucket(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.bucketEnsured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.Info().Str("bucket", s.bucket).Msg("Created new bucket")
	}

	s.bucketEnsured = true
	return nil
}

func (s *minioReportStorage) Upload(ctx context.Context, objectKey, contentType string, data []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("object", objectKey).
		Str("etag", info.ETag).
		Int("size", len(data)).
		Msg("Report uploaded to MinIO")

	return nil
}

func (s *minioReportStorage) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign report url: %w", err)
	}

	return u.String(), nil
}
