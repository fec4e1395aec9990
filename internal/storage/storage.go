// Package storage resolves member image names to URLs. Images are either
// served from the local public directory or from an S3-compatible bucket
// through presigned download URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultURLTTL is how long a presigned image URL stays valid.
const DefaultURLTTL = 15 * time.Minute

const defaultRegion = "us-east-1"

// ErrEmptyKey is returned when resolving an empty image name.
var ErrEmptyKey = errors.New("image key cannot be empty")

// Local serves images from the site root, e.g. "ssm1.jpg" -> "/ssm1.jpg".
type Local struct {
	// Prefix is prepended to every image path; empty means "/".
	Prefix string
}

// URL returns the public path of the image.
func (l Local) URL(_ context.Context, name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", ErrEmptyKey
	}
	prefix := l.Prefix
	if prefix == "" {
		prefix = "/"
	}
	return path.Join(prefix, name), nil
}

// S3Config configures an S3-compatible bucket (MinIO, AWS).
type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	Region         string
	URLTTL         time.Duration
}

// Validate checks that the required settings are present.
func (c S3Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("S3_ENDPOINT environment variable is required")
	case c.AccessKey == "":
		return fmt.Errorf("S3_ACCESS_KEY environment variable is required")
	case c.SecretKey == "":
		return fmt.Errorf("S3_SECRET_KEY environment variable is required")
	case c.Bucket == "":
		return fmt.Errorf("S3_BUCKET_NAME environment variable is required")
	}
	return nil
}

// S3 presigns image downloads against a bucket.
type S3 struct {
	client          *s3.Client
	publicPresigner *s3.PresignClient
	bucket          string
	ttl             time.Duration
}

// NewS3 creates an S3 image resolver
func NewS3(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = DefaultURLTTL
	}

	// Use internal endpoint for presigned URLs if public endpoint not specified
	publicEndpoint := cfg.PublicEndpoint
	if publicEndpoint == "" {
		publicEndpoint = cfg.Endpoint
	}
	logger.Info("storage configured",
		"endpoint", cfg.Endpoint,
		"public_endpoint", publicEndpoint,
		"bucket", cfg.Bucket,
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newClient(awsCfg, endpointURL(cfg.Endpoint, cfg.UseSSL))
	publicClient := client
	if publicEndpoint != cfg.Endpoint {
		publicClient = newClient(awsCfg, endpointURL(publicEndpoint, cfg.UseSSL))
	}

	return &S3{
		client:          client,
		publicPresigner: s3.NewPresignClient(publicClient),
		bucket:          cfg.Bucket,
		ttl:             cfg.URLTTL,
	}, nil
}

// newClient builds a path-style client, which MinIO requires.
func newClient(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	protocol := "http"
	if useSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s", protocol, endpoint)
}

// URL returns a presigned download URL for the image
func (s *S3) URL(ctx context.Context, name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", ErrEmptyKey
	}

	request, err := s.publicPresigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL for key %s: %w", name, err)
	}

	return request.URL, nil
}

// Health checks if the bucket is accessible
func (s *S3) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
