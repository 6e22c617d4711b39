package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// ObjectPrefix is prepended to every uploaded object key.
const ObjectPrefix = "uploads/"

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads to an S3-compatible bucket
type S3Store struct {
	client putObjectAPI
	config *Config
}

// NewS3Store creates a client from static credentials
func NewS3Store(cfg *Config) (*S3Store, error) {
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// MinIO and Backblaze B2 need path-style URLs
			o.UsePathStyle = true
		}
	})

	log.Infof("[FileStore] Using S3 bucket: %s", cfg.BucketName)
	return &S3Store{client: client, config: cfg}, nil
}

func (s *S3Store) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	key := ObjectPrefix + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.BucketName),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}

	log.Infof("[FileStore] Uploaded s3://%s/%s (%d bytes)", s.config.BucketName, key, size)
	return s.publicURL(key), nil
}

// publicURL prefers the configured CDN/base URL, then the custom endpoint,
// then the virtual-hosted AWS URL.
func (s *S3Store) publicURL(key string) string {
	if s.config.PublicBaseURL != "" {
		return s.config.PublicBaseURL + "/" + key
	}
	if s.config.EndpointURL != "" {
		return strings.TrimRight(s.config.EndpointURL, "/") + "/" + s.config.BucketName + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.BucketName, s.config.Region, key)
}
