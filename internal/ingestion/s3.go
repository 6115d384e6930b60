package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jonathan/career-navigator/internal/types"
)

// S3Config configures access to an S3-compatible bucket such as Cloudflare R2
type S3Config struct {
	Bucket    string `json:"bucket" toml:"bucket"`
	Region    string `json:"region" toml:"region"`
	Endpoint  string `json:"endpoint,omitempty" toml:"endpoint"`
	AccessKey string `json:"access_key,omitempty" toml:"access_key"`
	SecretKey string `json:"secret_key,omitempty" toml:"secret_key"`
}

// objectGetter is the subset of the S3 client used here
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source downloads resume files from a bucket
type S3Source struct {
	client   objectGetter
	bucket   string
	maxBytes int64
}

// NewS3Source creates a source from static credentials, or the default AWS
// credential chain when no keys are given
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{client: client, bucket: cfg.Bucket, maxBytes: MaxResumeBytes}, nil
}

// Fetch downloads the object at key. An s3:// URI overrides the configured bucket.
func (s *S3Source) Fetch(ctx context.Context, key string) (types.ResumeBlob, error) {
	bucket := s.bucket
	if strings.HasPrefix(key, "s3://") {
		var err error
		bucket, key, err = ParseS3URI(key)
		if err != nil {
			return types.ResumeBlob{}, err
		}
	}
	if bucket == "" {
		return types.ResumeBlob{}, fmt.Errorf("no bucket configured for key %q", key)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return types.ResumeBlob{}, fmt.Errorf("failed to get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	// Read one byte past the limit so oversized files are reported, not truncated
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(out.Body, s.maxBytes+1)); err != nil {
		return types.ResumeBlob{}, fmt.Errorf("failed to read object body: %w", err)
	}
	if int64(buf.Len()) > s.maxBytes {
		return types.ResumeBlob{}, &FileTooLargeError{Size: buf.Len(), Limit: int(s.maxBytes)}
	}

	return types.ResumeBlob{
		Filename:    path.Base(key),
		ContentType: aws.ToString(out.ContentType),
		Data:        buf.Bytes(),
	}, nil
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri needs a bucket and key: %q", uri)
	}
	return bucket, key, nil
}
