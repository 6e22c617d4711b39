package filestore

import (
	"errors"
	"strings"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/env"
)

// Config holds storage settings for uploaded receipts and documents
type Config struct {
	LocalDir   string
	PublicPath string

	S3Enabled       bool
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string
}

// LoadConfig loads storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		LocalDir:        env.GetEnv("UPLOAD_DIR", "./uploads"),
		PublicPath:      env.GetEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
		S3Enabled:       env.GetBool("S3_UPLOADS_ENABLED", false),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
	}

	// Validate required fields if S3 storage is enabled
	if config.S3Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 uploads are enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 uploads are enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 uploads are enabled")
		}
	}

	return config, nil
}
