// Package s3 implements artifact.Store on Amazon S3 or any S3 compatible
// object store (MinIO, R2, ...).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/hupe1980/agentgraph/artifact"
)

// Client abstracts the S3 API operations used by Store.
// The *s3.Client type satisfies this interface.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Options configures a Store.
type Options struct {
	// Prefix is prepended to every object key. Empty means the bucket root.
	Prefix string

	// ContentType is set on uploaded objects.
	ContentType string
}

// Store implements artifact.Store backed by an S3 bucket.
type Store struct {
	client Client
	bucket string
	opts   Options
}

var _ artifact.Store = (*Store)(nil)

// New creates an S3 backed store. The client must be configured with
// credentials, region and endpoint by the caller.
func New(client Client, bucket string, optFns ...func(o *Options)) *Store {
	opts := Options{ContentType: "text/plain; charset=utf-8"}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Prefix = strings.Trim(opts.Prefix, "/")

	return &Store{client: client, bucket: bucket, opts: opts}
}

// NewFromEnv builds an *s3.Client from the standard AWS environment
// variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN,
// AWS_REGION, AWS_ENDPOINT_URL_S3) and wraps it in a Store.
func NewFromEnv(getenv func(string) string, bucket string, optFns ...func(o *Options)) *Store {
	region := getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	cfg := aws.Config{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			id, secret := getenv("AWS_ACCESS_KEY_ID"), getenv("AWS_SECRET_ACCESS_KEY")
			if id == "" || secret == "" {
				return aws.Credentials{}, errors.New("s3: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
			}

			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		}),
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := getenv("AWS_ENDPOINT_URL_S3"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return New(client, bucket, optFns...)
}

func (s *Store) key(name string) (string, error) {
	clean, err := artifact.CleanName(name)
	if err != nil {
		return "", err
	}

	if s.opts.Prefix == "" {
		return clean, nil
	}

	return s.opts.Prefix + "/" + clean, nil
}

// Save uploads data under name via PutObject.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(s.opts.ContentType),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", key, err)
	}

	return nil
}

// Get downloads the object for name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", artifact.ErrNotFound, name)
		}

		return nil, fmt.Errorf("s3: get %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// List returns the names under the prefix, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if s.opts.Prefix != "" {
		prefix = s.opts.Prefix + "/"
	}

	var (
		names []string
		token *string
	)

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: list %s: %w", prefix, err)
		}

		for _, obj := range out.Contents {
			names = append(names, strings.TrimPrefix(aws.ToString(obj.Key), prefix))
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}

		token = out.NextContinuationToken
	}

	slices.Sort(names)

	return names, nil
}

// Delete removes the object for name, returning artifact.ErrNotFound if it
// does not exist.
func (s *Store) Delete(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", artifact.ErrNotFound, name)
		}

		return fmt.Errorf("s3: head %s: %w", key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("s3: delete %s: %w", key, err)
	}

	return nil
}

// isNotFound reports whether err indicates the S3 object does not exist.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}

	return false
}
