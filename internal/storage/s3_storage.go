package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"greendrake/estates/internal/config"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob together with its content type.
type Object struct {
	Body        io.ReadCloser
	ContentType string
}

// IS3Storage stores public images in an S3-compatible bucket.
type IS3Storage interface {
	Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) error
	Get(ctx context.Context, key string) (*Object, error)
	PublicURL(key string) string
}

type s3Storage struct {
	bucket  string
	baseURL string
	client  *s3.Client
}

// NewS3Storage creates an S3 storage service. AwsS3Endpoint switches to path-style
// addressing against an S3-compatible provider.
func NewS3Storage(ctx context.Context, cfg *config.Config) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AwsS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AwsS3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Storage{
		bucket:  cfg.AwsS3Bucket,
		baseURL: cfg.ImageBaseURL,
		client:  client,
	}, nil
}

// Put uploads size bytes of body under key with public-read visibility. S3 rejects uploads
// without a Content-Length, so size must be exact.
func (s *s3Storage) Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *s3Storage) Get(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return &Object{Body: out.Body, ContentType: aws.ToString(out.ContentType)}, nil
}

func (s *s3Storage) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// StatusCode extracts the provider's HTTP status from an S3 error, or 0 when none is attached.
func StatusCode(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}
