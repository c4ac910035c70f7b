package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config selects the S3 endpoint. An empty EndpointURL uses the regular
// AWS endpoint with the default credential chain; a non-empty one points at
// a compatible server (minio) with static credentials.
type S3Config struct {
	Region      string
	EndpointURL string
	AccessKey   string
	SecretKey   string
}

type s3Store struct {
	client *s3.Client
}

// NewS3Client connects per the config.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.EndpointURL != "" {
		client := s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		})
		return client, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// NewS3Store wraps an S3 client as an ObjectStore.
func NewS3Store(client *s3.Client) ObjectStore {
	return &s3Store{client: client}
}

func (s *s3Store) Fetch(ctx context.Context, ref ObjectRef) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't fetch s3://%s/%s, details: %v", ref.Bucket, ref.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("couldn't read s3://%s/%s, details: %v", ref.Bucket, ref.Key, err)
	}
	return data, nil
}

func (s *s3Store) Copy(ctx context.Context, src, dst ObjectRef) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dst.Bucket),
		Key:        aws.String(dst.Key),
		CopySource: aws.String(fmt.Sprintf("%s/%s", src.Bucket, src.Key)),
	})
	if err != nil {
		return fmt.Errorf("couldn't copy s3://%s/%s to s3://%s/%s, details: %v",
			src.Bucket, src.Key, dst.Bucket, dst.Key, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, ref ObjectRef) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return fmt.Errorf("couldn't delete s3://%s/%s, details: %v", ref.Bucket, ref.Key, err)
	}
	return nil
}

func (s *s3Store) Tag(ctx context.Context, ref ObjectRef, key, value string) error {
	_, err := s.client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
		Tagging: &types.Tagging{
			TagSet: []types.Tag{
				{Key: aws.String(key), Value: aws.String(value)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("couldn't tag s3://%s/%s, details: %v", ref.Bucket, ref.Key, err)
	}
	return nil
}
