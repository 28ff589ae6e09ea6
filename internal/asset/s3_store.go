package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config describes the bucket cover images are written to.
type S3Config struct {
	// Bucket is the target bucket name.
	Bucket string
	// Region is the bucket region, e.g. "us-east-1".
	Region string
	// Endpoint overrides the AWS endpoint for S3-compatible stores (MinIO, R2, ...).
	Endpoint string
	// AccessKeyID and SecretAccessKey select static credentials. When empty the
	// default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// CredentialsFile points at a shared credentials file, the service key.
	CredentialsFile string
	// PublicBaseURL, when set, prefixes every returned object URL (CDN, custom domain).
	PublicBaseURL string
	// UsePathStyle forces path-style addressing, required by most S3-compatible stores.
	UsePathStyle bool
	// LegacyJPGNames names every object "<id>.jpg" regardless of content type.
	LegacyJPGNames bool
}

// PutObjectAPI is the slice of the S3 client the store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes objects with a single PutObject call marked public-read.
type S3Store struct {
	client  PutObjectAPI
	bucket  string
	baseURL string
	newKey  KeyFunc
}

// NewS3Store builds an S3 client from cfg and verifies that credentials can
// be resolved, so a missing service credential fails at startup.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("region is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		// Every failure is terminal for the request; no SDK-level retries.
		config.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, config.WithSharedCredentialsFiles([]string{cfg.CredentialsFile}))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("storage credentials unavailable: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3StoreWithClient(client, cfg), nil
}

// NewS3StoreWithClient wraps an existing client; cfg supplies naming and URLs.
func NewS3StoreWithClient(client PutObjectAPI, cfg S3Config) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		newKey:  NewKeyFunc(cfg.LegacyJPGNames),
	}
}

// Store writes data as a new publicly readable object and returns its URL.
// On error no URL is returned and, S3 writes being atomic, no object exists.
func (s *S3Store) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	key := s.newKey(contentType)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%w: put %s/%s: %v", ErrStorageWrite, s.bucket, key, err)
	}

	return s.baseURL + "/" + url.PathEscape(key), nil
}

func publicBaseURL(cfg S3Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "" && cfg.UsePathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" {
			return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		}
		u.Host = cfg.Bucket + "." + u.Host
		return strings.TrimRight(u.String(), "/")
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}
