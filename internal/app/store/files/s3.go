package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/dalemusser/strataview/internal/domain/models"
)

// S3Config holds the settings for an S3 browser.
type S3Config struct {
	Region    string
	Bucket    string
	Prefix    string // optional key prefix the browser is rooted at
	AccessKey string // blank means the default AWS credential chain
	SecretKey string
	Endpoint  string // optional endpoint override (MinIO, tests); forces path-style
}

// S3 is a Browser over one S3 bucket. Common prefixes under the list
// delimiter are presented as directories.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3 creates an S3 browser for the configured bucket.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // virtual-host addressing does not work against MinIO
		}
	})

	// The root prefix always ends with "/" so key joining cannot glue it
	// onto the first path segment.
	prefix := strings.TrimPrefix(cfg.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// key maps a request path onto the bucket, applying the configured root
// prefix. asDir appends a trailing "/" so the key works as a listing prefix.
func (b *S3) key(path string, asDir bool) string {
	k := b.prefix + strings.TrimPrefix(path, "/")
	if asDir && k != "" && !strings.HasSuffix(k, "/") {
		k += "/"
	}
	return k
}

// List returns the immediate children under a key prefix using a
// delimited ListObjectsV2: CommonPrefixes become directories, Contents
// become files. Pagination is followed to exhaustion.
func (b *S3) List(ctx context.Context, path string) ([]models.FileEntry, error) {
	prefix := b.key(path, true)

	entries := []models.FileEntry{}
	var token *string
	for {
		out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, b.mapErr(err)
		}

		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, models.FileEntry{Name: name, IsDir: true})
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				// The placeholder object for the prefix itself.
				continue
			}
			size := aws.ToInt64(obj.Size)
			entries = append(entries, models.FileEntry{Name: name, IsDir: false, Size: &size})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return entries, nil
}

// Download fetches an object wholesale.
func (b *S3) Download(ctx context.Context, path string) ([]byte, error) {
	key := b.key(path, false)

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, b.mapErr(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Tree returns the prefix forest under path, bounded by maxDepth.
func (b *S3) Tree(ctx context.Context, path string, maxDepth int) ([]models.TreeNode, error) {
	return buildTree(ctx, b, path, maxDepth, func(parent, name string) string {
		if parent == "" {
			return name
		}
		return strings.TrimSuffix(parent, "/") + "/" + name
	})
}

// mapErr folds the SDK's missing-key and missing-bucket errors into
// ErrNotFound; everything else passes through.
func (b *S3) mapErr(err error) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound) {
		return ErrNotFound
	}
	return err
}
