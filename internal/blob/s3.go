package blob

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3-backed blob store.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // optional custom endpoint for S3-compatible storage
	PublicBaseURL string // base URL public objects are read from
	PresignTTL    time.Duration
}

// S3Store signs upload URLs against S3 (or any S3-compatible endpoint) and
// issues deletes. The bucket must allow public reads under the uploads
// prefix; everything else stays private.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     S3Config
	logger  *slog.Logger
}

// NewS3Store loads AWS configuration from the environment and wires the
// presigning client.
func NewS3Store(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// CreateUploadTarget presigns a PUT for a freshly named object.
func (s *S3Store) CreateUploadTarget(ctx context.Context, contentType string) (UploadTarget, error) {
	key := NewObjectKey(contentType)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return UploadTarget{}, fmt.Errorf("presigning upload for %s: %w", key, err)
	}

	return UploadTarget{
		UploadURL: req.URL,
		PublicURL: strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key,
	}, nil
}

// Delete removes the object behind a public URL. Failures propagate to the
// caller, which treats them as advisory and only logs.
func (s *S3Store) Delete(ctx context.Context, publicURL string) error {
	key, err := KeyFromURL(publicURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}
