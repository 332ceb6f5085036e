package results

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config configures an S3 compatible results bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes result files to a bucket.
type S3Uploader struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Uploader builds an uploader from the default AWS credential chain,
// or from static keys when both are set. A custom endpoint switches to
// path style addressing.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOptions := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, bucket, cfg.Prefix), nil
}

func newS3Uploader(client putObjectAPI, bucket, prefix string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// ResultsKey names the CSV of a sweep: <llm>/<YYYYMMDD>_<name>.csv.
func ResultsKey(llm, name string, at time.Time) string {
	return fmt.Sprintf("%s/%s_%s.csv", llm, at.Format("20060102"), name)
}

// Upload stores body under key and returns its s3:// URL.
func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if u.prefix != "" {
		key = path.Join(u.prefix, key)
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("s3 put object %s: %s: %w", key, apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("s3 put object %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
