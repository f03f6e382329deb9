package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds the connection settings for an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Downloader fetches objects from a single S3 bucket.
type S3Downloader struct {
	bucket     string
	downloader *manager.Downloader
}

// NewS3Downloader connects to the object store described by cfg. A custom
// endpoint enables path-style addressing for MinIO and other S3-compatible
// stores.
func NewS3Downloader(ctx context.Context, cfg S3Config) (*S3Downloader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 downloader: bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Downloader{
		bucket:     cfg.Bucket,
		downloader: manager.NewDownloader(client),
	}, nil
}

// Download fetches the object at key into destDir and returns the local
// path. The file is named after the key's base name.
func (d *S3Downloader) Download(ctx context.Context, key string, destDir string) (string, error) {
	path := filepath.Join(destDir, filepath.Base(key))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", ErrTransient, path, err)
	}
	defer file.Close()

	_, err = d.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(path)
		return "", classifyS3Error(key, err)
	}

	return path, nil
}

func classifyS3Error(key string, err error) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, key, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransient, key, err)
}
