// AngelaMos | 2026
// s3.go

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/carterperez-dev/templates/tenant-api/internal/config"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignGet(ctx context.Context, key string) (string, error)
	URL(key string) string
}

type S3Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	endpoint   string
	region     string
	pathStyle  bool
	presignTTL time.Duration
}

// NewS3Store builds a client from the default AWS credential chain,
// overridden by static keys and a custom endpoint when configured
// (LocalStack, MinIO).
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		endpoint:   cfg.Endpoint,
		region:     cfg.Region,
		pathStyle:  cfg.UsePathStyle,
		presignTTL: ttl,
	}, nil
}

func (s *S3Store) Put(
	ctx context.Context,
	key, contentType string,
	body io.Reader,
	size int64,
) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return req.URL, nil
}

// URL is the unsigned object location stored on the profile.
func (s *S3Store) URL(key string) string {
	switch {
	case s.endpoint != "" && s.pathStyle:
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s", s.endpoint, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket: %w", err)
	}
	return nil
}

var ErrStorageDisabled = core.NewAppError(
	core.ErrServiceUnavailable,
	"object storage is disabled",
	http.StatusServiceUnavailable,
	"STORAGE_DISABLED",
)

type DisabledStore struct{}

func (DisabledStore) Put(context.Context, string, string, io.Reader, int64) error {
	return ErrStorageDisabled
}

func (DisabledStore) PresignGet(context.Context, string) (string, error) {
	return "", ErrStorageDisabled
}

func (DisabledStore) URL(string) string {
	return ""
}

var (
	_ ObjectStore = (*S3Store)(nil)
	_ ObjectStore = DisabledStore{}
)
