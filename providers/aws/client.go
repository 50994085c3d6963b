package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"bot-supervisor/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the supervisor uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client is the AWS object storage client
type Client struct {
	s3Client S3API
	region   string
}

// NewClient creates a new AWS client for the given region.
// A non-empty endpoint targets an S3-compatible store with path-style addressing.
func NewClient(ctx context.Context, region string, endpoint string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewClientWithAPI(s3Client, region), nil
}

// NewClientWithAPI wraps an existing S3 API implementation
func NewClientWithAPI(api S3API, region string) *Client {
	return &Client{
		s3Client: api,
		region:   region,
	}
}

// Get downloads an object and returns its content
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &storage.StorageError{Op: storage.OpGet, Bucket: bucket, Key: key, Err: err}
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		err = fmt.Errorf("failed to read object body: %w", err)
		return nil, &storage.StorageError{Op: storage.OpGet, Bucket: bucket, Key: key, Err: err}
	}
	return body, nil
}

// Put uploads body as an object, replacing any previous content
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return &storage.StorageError{Op: storage.OpPut, Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

var _ storage.BlobStore = (*Client)(nil)
