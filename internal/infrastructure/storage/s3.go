package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// S3 stores objects under a fixed key prefix in one bucket. The prefix plays
// the role the root directory plays for the fs adapter, so the asset and
// prompt stores can share a bucket without colliding.
type S3 struct {
	client  *s3.Client
	bucket  string
	prefix  string
	region  string
	logger  types.Logger
	metrics types.Metrics
}

// NewS3 creates an S3-backed object store. It verifies the bucket up front
// and creates it when missing, so a misconfigured deployment fails at
// startup instead of on the first download.
func NewS3(ctx context.Context, cfg config.S3Config, prefix string, logger types.Logger, metrics types.Metrics) (*S3, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("building aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	s := &S3{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(prefix, "/"),
		region:  cfg.Region,
		logger:  logger.WithFields(types.Fields{"component": "s3_storage", "bucket": cfg.Bucket, "prefix": prefix}),
		metrics: metrics,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.ensureBucket(checkCtx); err != nil {
		return nil, fmt.Errorf("verifying bucket %s: %w", cfg.Bucket, err)
	}

	logger.Info(ctx, "s3 storage initialized", types.Fields{
		"bucket": cfg.Bucket,
		"prefix": prefix,
		"region": cfg.Region,
	})
	return s, nil
}

func (s *S3) Put(ctx context.Context, key string, reader io.Reader, metadata ports.ObjectMetadata) error {
	start := time.Now()

	// Buffer the content so the SDK knows the payload size.
	buf := &bytes.Buffer{}
	written, err := io.Copy(buf, reader)
	if err != nil {
		s.logger.Error(ctx, "failed to read object content", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_put", "read")
		return fmt.Errorf("reading content for %s: %w", key, err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   bytes.NewReader(buf.Bytes()),
	}
	if metadata.ContentType != "" {
		input.ContentType = aws.String(metadata.ContentType)
	}
	if len(metadata.UserMetadata) > 0 {
		input.Metadata = metadata.UserMetadata
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error(ctx, "failed to put object", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_put", "s3")
		return fmt.Errorf("putting %s: %w", key, err)
	}

	s.logger.Debug(ctx, "object stored", types.Fields{
		"key":          key,
		"bytes":        written,
		"content_type": metadata.ContentType,
	})
	s.metrics.RecordSuccess("storage_put")
	s.metrics.RecordDuration("storage_put", time.Since(start).Seconds())
	s.metrics.RecordPayloadSize("object", written)

	return nil
}

func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug(ctx, "object not found", types.Fields{"key": key})
			s.metrics.RecordError("storage_get", "not_found")
			return nil, ports.ErrObjectNotFound
		}
		s.logger.Error(ctx, "failed to get object", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_get", "s3")
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}

	s.logger.Debug(ctx, "object retrieved", types.Fields{"key": key})
	s.metrics.RecordSuccess("storage_get")
	return result.Body, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		s.logger.Error(ctx, "failed to delete object", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_delete", "s3")
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	s.logger.Debug(ctx, "object deleted", types.Fields{"key": key})
	s.metrics.RecordSuccess("storage_delete")
	return nil
}

func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		s.logger.Error(ctx, "failed to check object existence", err, types.Fields{"key": key})
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return true, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	start := time.Now()

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.fullKey(prefix)),
	}

	trim := ""
	if s.prefix != "" {
		trim = s.prefix + "/"
	}

	// S3 returns keys in lexicographic order, which stripping the shared
	// store prefix preserves.
	var objects []ports.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error(ctx, "failed to list objects", err, types.Fields{"prefix": prefix})
			s.metrics.RecordError("storage_list", "s3")
			return nil, fmt.Errorf("listing %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, ports.ObjectInfo{
				Key:          strings.TrimPrefix(aws.ToString(obj.Key), trim),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	s.logger.Debug(ctx, "objects listed", types.Fields{
		"prefix": prefix,
		"count":  len(objects),
	})
	s.metrics.RecordSuccess("storage_list")
	s.metrics.RecordDuration("storage_list", time.Since(start).Seconds())

	return objects, nil
}

func (s *S3) fullKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *s3types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("checking bucket: %w", err)
	}

	s.logger.Info(ctx, "bucket does not exist, creating", types.Fields{"bucket": s.bucket})
	return s.createBucket(ctx)
}

func (s *S3) createBucket(ctx context.Context) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}

	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var exists *s3types.BucketAlreadyExists
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &exists) || errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("creating bucket: %w", err)
	}
	return nil
}

// buildAWSConfig assembles the SDK configuration, preferring explicit static
// credentials over the default provider chain when both are present.
func buildAWSConfig(ctx context.Context, cfg config.S3Config) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
