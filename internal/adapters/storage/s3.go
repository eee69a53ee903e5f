// internal/adapters/storage/s3.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/ammerola/inventory-service/internal/core/ports"
)

// uploader is the part of *manager.Uploader in use
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// bucketAPI is the part of *s3.Client in use
type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Storage stores snapshots in an S3 bucket
type S3Storage struct {
	client   bucketAPI
	uploader uploader
	bucket   string
	region   string
	logger   *slog.Logger
}

var _ ports.SnapshotStorage = (*S3Storage)(nil)

// S3Config holds S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // For MinIO/LocalStack
	UsePathStyle    bool   // For MinIO/LocalStack
}

// NewS3Storage creates a new S3 storage client and makes sure the bucket exists
func NewS3Storage(ctx context.Context, cfg *S3Config, logger *slog.Logger) (*S3Storage, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	storage := newS3Storage(client, manager.NewUploader(client), cfg.Bucket, cfg.Region, logger)

	if err := storage.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	logger.Info("S3 storage initialized",
		slog.String("bucket", cfg.Bucket),
		slog.String("region", cfg.Region))

	return storage, nil
}

func newS3Storage(client bucketAPI, up uploader, bucket, region string, logger *slog.Logger) *S3Storage {
	return &S3Storage{
		client:   client,
		uploader: up,
		bucket:   bucket,
		region:   region,
		logger:   logger.With(slog.String("storage", "s3")),
	}
}

// buildAWSConfig builds AWS configuration
func buildAWSConfig(ctx context.Context, cfg *S3Config) (aws.Config, error) {
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		return config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretAccessKey,
					"",
				),
			),
		)
	}

	return config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
}

// ensureBucket creates the bucket when HeadBucket cannot see it
func (s *S3Storage) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1 rejects an explicit location constraint
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, createErr := s.client.CreateBucket(ctx, input); createErr != nil {
		return fmt.Errorf("bucket %s does not exist and could not be created: %w", s.bucket, createErr)
	}

	s.logger.Info("created S3 bucket", slog.String("bucket", s.bucket))
	return nil
}

// Upload stores data under key and returns the object location
func (s *S3Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
			"upload-id":   uuid.New().String(),
		},
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.InfoContext(ctx, "file uploaded",
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.String("location", result.Location))

	return result.Location, nil
}
