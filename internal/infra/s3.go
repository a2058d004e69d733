package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"stockcocina/internal/config"
)

// ArchivoPDF uploads generated order PDFs to a bucket so they survive the
// local PDF_STORAGE_PATH being wiped.
type ArchivoPDF struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewArchivoPDF returns nil when no bucket is configured.
func NewArchivoPDF(ctx context.Context, cfg *config.Config) (*ArchivoPDF, error) {
	if cfg.AWSS3Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	return &ArchivoPDF{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.AWSS3Bucket,
		prefix: "pedidos/",
	}, nil
}

// Subir copies the file at path into the bucket and returns its key.
func (a *ArchivoPDF) Subir(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("s3: open %s: %w", path, err)
	}
	defer f.Close()

	key := a.prefix + filepath.Base(path)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	return key, nil
}
