package s3client

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/namedfork/mfsfuse-go/internal/credentials"
)

// API is the read-only subset of S3 the image source needs
type API interface {
	GetObjectRange(ctx context.Context, key string, start, end int64) ([]byte, error)
	HeadObjectSize(ctx context.Context, key string) (int64, error)
}

// Client represents an S3 client
type Client struct {
	bucket   string
	region   string
	endpoint string
	s3Client *s3.Client
}

var _ API = (*Client)(nil)

// NewClient creates a new S3 client. Without valid static credentials the
// SDK's default chain (environment, shared config, instance role) is used.
func NewClient(ctx context.Context, bucket, region string, creds *credentials.Credentials) (*Client, error) {
	return NewClientWithEndpoint(ctx, bucket, region, "", creds)
}

// NewClientWithEndpoint creates a new S3 client with custom endpoint
func NewClientWithEndpoint(ctx context.Context, bucket, region, endpoint string, creds *credentials.Credentials) (*Client, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	client := &Client{
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}

	cfgOptions := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if creds != nil && creds.IsValid() {
		cfgOptions = append(cfgOptions, config.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			creds.SessionToken,
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // Required for LocalStack
		})
	}
	client.s3Client = s3.NewFromConfig(cfg, s3Options...)
	return client, nil
}

// Bucket returns the bucket name
func (c *Client) Bucket() string { return c.bucket }

// GetObjectRange retrieves the inclusive byte range [start, end] of an object
func (c *Client) GetObjectRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	if c.s3Client == nil {
		return nil, fmt.Errorf("S3 client not initialized")
	}
	if end < start {
		return nil, fmt.Errorf("invalid range %d-%d", start, end)
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	}

	result, err := c.s3Client.GetObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// HeadObjectSize retrieves object size from metadata without downloading
func (c *Client) HeadObjectSize(ctx context.Context, key string) (int64, error) {
	if c.s3Client == nil {
		return 0, fmt.Errorf("S3 client not initialized")
	}

	input := &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}

	result, err := c.s3Client.HeadObject(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to head object: %w", err)
	}

	if result.ContentLength != nil {
		return *result.ContentLength, nil
	}
	return 0, nil
}
