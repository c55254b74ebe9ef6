// Package objectstore provides an S3-compatible gateway for uploaded
// renditions, subtitles and cover images. Uploads are idempotent: a key
// that already exists is never overwritten.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/models"
	"github.com/vodarr/vodarr/internal/observability"
)

// deleteBatchSize is the S3 DeleteObjects limit.
const deleteBatchSize = 1000

// s3API is the subset of the S3 client the gateway needs.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// uploaderAPI is the subset of the transfer manager the gateway needs.
type uploaderAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Client is the object storage gateway.
type Client struct {
	api      s3API
	uploader uploaderAPI
	bucket   string
	logger   *slog.Logger
}

// New builds a Client from configuration. An empty endpoint uses the AWS
// default resolution chain; a non-empty one points at an S3-compatible
// store such as MinIO.
func New(ctx context.Context, cfg config.ObjectStoreConfig, logger *slog.Logger) (*Client, error) {
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
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})

	return &Client{
		api:      client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		logger:   observability.WithComponent(logger, "objectstore"),
	}, nil
}

// Exists reports whether the key is present in the bucket.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NotFound", "NoSuchKey":
				return false, nil
			}
		}
		return false, fmt.Errorf("checking object %s: %w", key, err)
	}
	return true, nil
}

// UploadIfAbsent uploads the local file under key unless the key already
// exists. The returned bool reports whether an upload actually happened.
func (c *Client) UploadIfAbsent(ctx context.Context, localPath, key string) (bool, error) {
	exists, err := c.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		c.logger.Debug("object already present, skipping upload", "key", key)
		return false, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w: %w", localPath, models.ErrUploadFailure, err)
	}
	defer f.Close()

	out, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentTypeFor(key)),
	})
	if err != nil {
		return false, fmt.Errorf("uploading %s: %w: %w", key, models.ErrUploadFailure, err)
	}
	if aws.ToString(out.ETag) == "" || aws.ToString(out.Key) == "" {
		return false, fmt.Errorf("uploading %s: store returned no etag: %w", key, models.ErrUploadFailure)
	}

	c.logger.Info("uploaded object", "key", key, "etag", aws.ToString(out.ETag))
	return true, nil
}

// Delete removes a single object. Deleting a key that does not exist is
// not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every object under the prefix. Individual delete
// failures are logged and do not abort the sweep; listing failures do.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		removed           int
		continuationToken *string
	)
	for {
		page, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return removed, fmt.Errorf("listing objects under %s: %w", prefix, err)
		}

		for start := 0; start < len(page.Contents); start += deleteBatchSize {
			end := min(start+deleteBatchSize, len(page.Contents))
			ids := make([]types.ObjectIdentifier, 0, end-start)
			for _, obj := range page.Contents[start:end] {
				ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
			}
			out, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(c.bucket),
				Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return removed, fmt.Errorf("deleting objects under %s: %w", prefix, err)
			}
			removed += len(ids) - len(out.Errors)
			for _, derr := range out.Errors {
				c.logger.Warn("failed to delete object",
					"key", aws.ToString(derr.Key),
					"code", aws.ToString(derr.Code),
					"message", aws.ToString(derr.Message))
			}
		}

		if !aws.ToBool(page.IsTruncated) {
			break
		}
		continuationToken = page.NextContinuationToken
	}

	if removed > 0 {
		c.logger.Info("removed objects", "prefix", prefix, "count", removed)
	}
	return removed, nil
}

// contentTypeFor maps the upload key extension to a MIME type.
func contentTypeFor(key string) string {
	switch filepath.Ext(key) {
	case ".mp4":
		return "video/mp4"
	case ".vtt":
		return "text/vtt"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
