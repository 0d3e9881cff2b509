package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStorage stores listing photos in a MinIO (or any S3 compatible)
// bucket through minio-go.
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *logger.Logger
}

// NewMinioStorage connects to endpoint and makes sure bucket exists.
// publicBaseURL overrides the <endpoint>/<bucket> prefix of photo URLs.
func NewMinioStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, publicBaseURL string, log *logger.Logger) (*MinioStorage, error) {
	log = log.Named("MinioStorage")
	log.Info("Initializing MinIO storage",
		zap.String("endpoint", endpoint),
		zap.String("bucket", bucketName),
		zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to make bucket %s: %w", bucketName, err)
		}
		log.Info("Bucket created", zap.String("bucket", bucketName))
	}

	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("%s/%s", client.EndpointURL().String(), bucketName)
	}
	return &MinioStorage{
		client:  client,
		bucket:  bucketName,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  log,
	}, nil
}

func (s *MinioStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	s.logger.Debug("Object stored", zap.String("key", info.Key), zap.String("etag", info.ETag), zap.Int64("size", info.Size))
	return nil
}

func (s *MinioStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", key, s.bucket, err)
	}
	return nil
}

func (s *MinioStorage) PublicURL(key string) string {
	return publicURL(s.baseURL, key)
}

func publicURL(base, key string) string {
	return base + "/" + strings.TrimLeft(key, "/")
}
