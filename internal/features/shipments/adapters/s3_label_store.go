package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"leopards-connector/internal/core/config"
	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/features/shipments/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// labelURLExpiry is how long a presigned label link stays valid.
const labelURLExpiry = 15 * time.Minute

// S3LabelStore implements ports.LabelStore on any S3-compatible object store.
type S3LabelStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	logger        *zap.Logger
}

// NewS3LabelStore creates the store from the storage configuration.
func NewS3LabelStore(ctx context.Context, cfg config.StorageConfig) (*S3LabelStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &S3LabelStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		logger:        logger.Named("labels.s3"),
	}, nil
}

// Put uploads the slip under key.
func (s *S3LabelStore) Put(ctx context.Context, key string, label domain.Label) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(label.Data),
	}
	if label.ContentType != "" {
		input.ContentType = aws.String(label.ContentType)
	}
	if label.Name != "" {
		input.ContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", label.Name))
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload label %s: %w", key, err)
	}

	s.logger.Debug("Label uploaded", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int("size", len(label.Data)))
	return nil
}

// Get downloads the slip or returns nil, nil when the object does not exist.
func (s *S3LabelStore) Get(ctx context.Context, key string) (*domain.Label, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to download label %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read label %s: %w", key, err)
	}

	return &domain.Label{
		Name:        key[strings.LastIndex(key, "/")+1:],
		ContentType: aws.ToString(out.ContentType),
		Data:        data,
	}, nil
}

// URL returns a presigned download link for key.
func (s *S3LabelStore) URL(ctx context.Context, key string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(labelURLExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign label %s: %w", key, err)
	}
	return req.URL, nil
}
