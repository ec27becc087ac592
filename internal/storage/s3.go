package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ammar1510/inbox/internal/logger"
)

var log = logger.New("storage")

const (
	contentDisposition = "inline"
	cacheControl       = "max-age=86400"
)

// S3Config describes an S3-compatible bucket (AWS, MinIO, ...)
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS
	AccessKey string // empty to use the default credential chain
	SecretKey string
	PathStyle bool
	ACL       string // canned ACL applied to uploads, empty for none
}

// s3API is the part of *s3.Client the store needs
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps objects in a single bucket
type S3Store struct {
	client s3API
	bucket string
	acl    types.ObjectCannedACL
}

// NewS3Store builds an S3 client from cfg
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
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
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return newS3Store(client, cfg.Bucket, cfg.ACL), nil
}

func newS3Store(client s3API, bucket, acl string) *S3Store {
	return &S3Store{client: client, bucket: bucket, acl: types.ObjectCannedACL(acl)}
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(body),
		ContentLength:      aws.Int64(int64(len(body))),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(contentDisposition),
		CacheControl:       aws.String(cacheControl),
	}
	if s.acl != "" {
		input.ACL = s.acl
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	log.Debug("Stored s3://%s/%s (%d bytes)", s.bucket, key, len(body))
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	log.Debug("Deleted s3://%s/%s", s.bucket, key)
	return nil
}
