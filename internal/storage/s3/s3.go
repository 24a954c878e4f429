// Package s3 implements artifact storage on an S3-compatible object store.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"downloadqueue/config"
	"downloadqueue/internal/storage"
	"downloadqueue/observability/types"
)

// Client implements storage.ObjectStorage against a single S3 bucket.
type Client struct {
	api     *s3.Client
	bucket  string
	region  string
	logger  types.Logger
	metrics types.Metrics
}

// New builds an S3 client from the storage configuration and verifies the
// configured bucket is reachable, creating it when it does not exist.
func New(cfg config.StorageConfig, logger types.Logger, metrics types.Metrics) (*Client, error) {
	awsCfg, err := buildAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3.ForcePathStyle
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
	})

	c := &Client{
		api:     api,
		bucket:  cfg.Bucket,
		region:  cfg.S3.Region,
		logger:  logger,
		metrics: metrics,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify bucket: %w", err)
	}

	logger.Info(context.Background(), "S3 storage initialized", types.Fields{
		"bucket": cfg.Bucket,
		"region": cfg.S3.Region,
	})

	return c, nil
}

func (c *Client) Put(ctx context.Context, key string, reader io.Reader) (int64, error) {
	start := time.Now()

	// Buffer the content so the SDK can compute the payload length.
	buf := &bytes.Buffer{}
	size, err := io.Copy(buf, reader)
	if err != nil {
		c.metrics.RecordError("storage_put", "read")
		return 0, fmt.Errorf("failed to read content: %w", err)
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		c.metrics.RecordError("storage_put", "s3")
		return 0, fmt.Errorf("failed to put object: %w", err)
	}

	c.logger.Info(ctx, "Object stored", types.Fields{
		"bucket":      c.bucket,
		"key":         key,
		"bytes":       size,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	c.metrics.RecordSuccess("storage_put")
	c.metrics.RecordFileSize("artifact", size)

	return size, nil
}

func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrObjectNotFound
		}
		c.metrics.RecordError("storage_get", "s3")
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	c.metrics.RecordSuccess("storage_get")
	return result.Body, nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		c.metrics.RecordError("storage_exists", "s3")
		return false, fmt.Errorf("failed to check object: %w", err)
	}
	return true, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		c.metrics.RecordError("storage_delete", "s3")
		return fmt.Errorf("failed to delete object: %w", err)
	}

	c.logger.Info(ctx, "Object deleted", types.Fields{"bucket": c.bucket, "key": key})
	c.metrics.RecordSuccess("storage_delete")
	return nil
}

func (c *Client) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []storage.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.api, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			c.metrics.RecordError("storage_list", "s3")
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			objects = append(objects, storage.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	c.metrics.RecordSuccess("storage_list")
	return objects, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *s3types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	c.logger.Info(ctx, "Bucket does not exist, creating", types.Fields{"bucket": c.bucket})

	input := &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	}
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.region),
		}
	}

	_, err = c.api.CreateBucket(ctx, input)
	if err != nil {
		var exists *s3types.BucketAlreadyExists
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &exists) || errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func buildAWSConfig(cfg config.StorageConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.S3.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.S3.Region))
	}

	if cfg.MaxRetries > 0 {
		optFns = append(optFns, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}

	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.S3.AccessKeyID,
				cfg.S3.SecretAccessKey,
				"",
			),
		))
	}

	return awsconfig.LoadDefaultConfig(context.Background(), optFns...)
}

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
