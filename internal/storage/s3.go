package storage

import (
	"coachdesk/internal/config"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Storage keeps profile icons in an S3-compatible bucket. Icon keys are
// immutable (replacing an icon uploads under a fresh key), so presigned
// download URLs never serve a stale object.
type s3Storage struct {
	presigner *s3.PresignClient
	objects   *s3.Client
	bucket    string
}

// NewS3Storage builds the icon bucket client. With cfg.Endpoint set it talks
// to an S3-compatible service (MinIO in development) using path-style
// addressing; otherwise standard AWS endpoint resolution applies.
func NewS3Storage(cfg config.S3Config) (FileStorage, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint == "" {
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}
		return aws.Endpoint{
			PartitionID:   "aws",
			URL:           cfg.Endpoint,
			SigningRegion: cfg.Region,
		}, nil
	})

	sdkCfg, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load S3 config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		// Virtual-host addressing breaks on custom endpoints
		o.UsePathStyle = cfg.Endpoint != ""
	})

	log.Printf("Icon storage ready (bucket %q, endpoint %q)", cfg.BucketName, cfg.Endpoint)
	return &s3Storage{
		presigner: s3.NewPresignClient(client),
		objects:   client,
		bucket:    cfg.BucketName,
	}, nil
}

func clampExpiry(expires time.Duration) time.Duration {
	if expires <= 0 {
		return DefaultPresignedURLExpiry
	}
	return expires
}

// GeneratePresignedUploadURL returns a PUT URL the browser uploads an icon
// through. The content type is part of the signature; the upload must send
// the same Content-Type header.
func (s *s3Storage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(clampExpiry(expires)))
	if err != nil {
		return "", fmt.Errorf("presign upload %q: %w", objectKey, err)
	}
	return req.URL, nil
}

// GeneratePresignedDownloadURL returns a short-lived GET URL for an icon.
func (s *s3Storage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(clampExpiry(expires)))
	if err != nil {
		return "", fmt.Errorf("presign download %q: %w", objectKey, err)
	}
	return req.URL, nil
}

// DeleteObject removes a replaced icon from the bucket.
func (s *s3Storage) DeleteObject(ctx context.Context, objectKey string) error {
	if _, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("delete %q: %w", objectKey, err)
	}
	log.Printf("Deleted icon object %q", objectKey)
	return nil
}
