// Package storage keeps archived report exports in object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	reportapp "github.com/storefront/backend/internal/application/report"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultEndpoint      = "http://localhost:9000"
	defaultRegion        = "us-east-1"
	defaultPresignExpiry = 15 * time.Minute
)

var errEmptyKey = errors.New("archive key is empty")

var _ reportapp.ArchiveStorage = (*S3Archive)(nil)

// S3Archive stores sales summary exports in an S3 compatible bucket such
// as AWS S3 or MinIO.
type S3Archive struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
	logger  *zap.Logger
}

// NewS3Archive builds the client without contacting the endpoint. Call
// EnsureBucket at startup to verify it.
func NewS3Archive(cfg config.StorageConfig, logger *zap.Logger) (*S3Archive, error) {
	var missing []string
	for _, f := range [...]struct{ name, value string }{
		{"bucket", cfg.Bucket},
		{"access key", cfg.AccessKey},
		{"secret key", cfg.SecretKey},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("storage config: missing %s", strings.Join(missing, ", "))
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	if logger == nil {
		logger = zap.NewNop()
	}
	expiry := cfg.PresignExpiration
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	return &S3Archive{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
		logger:  logger.Named("archive").With(zap.String("bucket", cfg.Bucket)),
	}, nil
}

// normalizeEndpoint adds a scheme to bare host:port endpoints
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("storage endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("storage endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("storage endpoint %q: missing host", endpoint)
	}
	return endpoint, nil
}

func (a *S3Archive) Bucket() string { return a.bucket }

// EnsureBucket creates the bucket when it does not exist yet
func (a *S3Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	if !isMissing(err) {
		return fmt.Errorf("check bucket: %w", err)
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	switch {
	case errors.As(err, &owned):
		// created concurrently by another replica
	case err != nil:
		return fmt.Errorf("create bucket: %w", err)
	default:
		a.logger.Info("Archive bucket created")
	}
	return nil
}

// Upload writes one archive object
func (a *S3Archive) Upload(ctx context.Context, key string, data []byte, contentType string) (err error) {
	if key == "" {
		return errEmptyKey
	}
	ctx, span := telemetry.StartClientSpan(ctx, "s3 PutObject",
		attribute.String("aws.s3.bucket", a.bucket),
		attribute.String("aws.s3.key", key),
		attribute.Int("aws.s3.size", len(data)))
	defer func() { telemetry.EndSpan(span, err) }()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	a.logger.Debug("Archive uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// ObjectExists reports whether key is stored
func (a *S3Archive) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return true, nil
	case isMissing(err):
		return false, nil
	default:
		return false, fmt.Errorf("head %s: %w", key, err)
	}
}

// GenerateDownloadURL presigns a GET for key. A non-positive ttl uses the
// configured expiry.
func (a *S3Archive) GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	if ttl <= 0 {
		ttl = a.expiry
	}
	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(ttl), nil
}

// isMissing recognises 404s. MinIO reports some of them as generic API
// errors, hence the string fallback.
func isMissing(err error) bool {
	var (
		notFound *types.NotFound
		noKey    *types.NoSuchKey
		noBucket *types.NoSuchBucket
	)
	if errors.As(err, &notFound) || errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NoSuchBucket")
}
