// Package storage uploads extraction artifacts to S3, optionally
// encrypting them at rest with AES-GCM.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client wraps the AWS S3 client for artifact upload and download.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	secret   string
}

// Options configures the S3 client.
type Options struct {
	Bucket   string
	Region   string
	Endpoint string
	// Secret enables AES-GCM encryption of uploaded objects when set.
	Secret string
}

// NewS3Client builds a client from the default AWS config chain.
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}

	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:   cli,
		uploader: manager.NewUploader(cli),
		bucket:   opts.Bucket,
		secret:   opts.Secret,
	}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucket }

// Upload stores data under key. When an encryption secret is set the
// payload is sealed with AES-GCM and tagged in object metadata.
func (s *S3Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	meta := map[string]string{}
	if s.secret != "" {
		encrypted, err := EncryptGCM(data, s.secret)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", key, err)
		}
		data = encrypted
		meta["encrypted"] = "true"
		meta["encryption-format"] = gcmMagic
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	log.Info().Str("bucket", s.bucket).Str("key", key).Int("size", len(data)).
		Bool("encrypted", s.secret != "").Msg("uploaded artifact to s3")
	return nil
}

// UploadFile uploads a local file under prefix, keeping its base name.
// Returns the object key.
func (s *S3Client) UploadFile(ctx context.Context, prefix, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	key := strings.TrimSuffix(prefix, "/") + "/" + filepath.Base(path)
	if err := s.Upload(ctx, key, data, contentTypeFor(path)); err != nil {
		return "", err
	}
	return key, nil
}

// Download fetches an object and decrypts it when it carries the
// AES-GCM magic prefix.
func (s *S3Client) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	if bytes.HasPrefix(data, []byte(gcmMagic)) {
		if s.secret == "" {
			return nil, fmt.Errorf("object %s is encrypted but no secret configured", key)
		}
		return DecryptGCM(data, s.secret)
	}
	return data, nil
}

// HeadBucket verifies the bucket is reachable with current credentials.
func (s *S3Client) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
