package s3

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
)

// NewObjectStorage builds the backend selected by STORAGE_BACKEND.
func NewObjectStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageMinio:
		s, err := NewMinioStorage(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey,
			cfg.StorageBucket, cfg.MinIOUseSSL, cfg.StoragePublicBaseURL, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageS3:
		s, err := NewAWSStorage(ctx, AWSOptions{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.AWSS3Endpoint,
			Bucket:          cfg.StorageBucket,
			PublicBaseURL:   cfg.StoragePublicBaseURL,
		}, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
