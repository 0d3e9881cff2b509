package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// AWSStorage stores listing photos in an Amazon S3 bucket.
type AWSStorage struct {
	client  *awss3.Client
	bucket  string
	baseURL string
	logger  *logger.Logger
}

type AWSOptions struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint points the client at an S3 compatible service instead of AWS.
	Endpoint      string
	Bucket        string
	PublicBaseURL string
}

func NewAWSStorage(ctx context.Context, opts AWSOptions, log *logger.Logger) (*AWSStorage, error) {
	log = log.Named("AWSStorage")
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(opts.Bucket)}); err != nil {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
		}
		if _, err := client.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(opts.Bucket)}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
		log.Info("Bucket created", zap.String("bucket", opts.Bucket))
	}

	base := opts.PublicBaseURL
	if base == "" {
		if opts.Endpoint != "" {
			base = fmt.Sprintf("%s/%s", strings.TrimRight(opts.Endpoint, "/"), opts.Bucket)
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}
	log.Info("Initialized S3 storage", zap.String("bucket", opts.Bucket), zap.String("region", opts.Region))
	return &AWSStorage{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: strings.TrimRight(base, "/"),
		logger:  log,
	}, nil
}

func (s *AWSStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	s.logger.Debug("Object stored", zap.String("key", key), zap.Int64("size", size))
	return nil
}

func (s *AWSStorage) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", key, s.bucket, err)
	}
	return nil
}

func (s *AWSStorage) PublicURL(key string) string {
	return publicURL(s.baseURL, key)
}
