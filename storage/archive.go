package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nijaru/yt-blog/config"
	"github.com/nijaru/yt-blog/models"
	"github.com/pkg/errors"
)

// Archiver stores finished outputs. It is write-only; nothing reads the
// archive back to answer a request.
type Archiver interface {
	Archive(ctx context.Context, job *models.Job, text string) error
}

// PutObjectAPI is the subset of *s3.Client used by S3Archiver.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Record is the JSON document written for each archived job.
type Record struct {
	ID        string      `json:"id"`
	Kind      models.Kind `json:"kind"`
	URL       string      `json:"url"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

type S3Archiver struct {
	client PutObjectAPI
	bucket string
}

// New returns an S3 archiver, or a no-op one when no bucket is configured.
func New(ctx context.Context, cfg config.ArchiveConfig) (Archiver, error) {
	if cfg.Bucket == "" {
		return Nop{}, nil
	}
	return NewS3Archiver(ctx, cfg)
}

func NewS3Archiver(ctx context.Context, cfg config.ArchiveConfig) (*S3Archiver, error) {
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
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3ArchiverWithClient(client, cfg.Bucket), nil
}

func NewS3ArchiverWithClient(client PutObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket}
}

func (a *S3Archiver) Archive(ctx context.Context, job *models.Job, text string) error {
	data, err := json.Marshal(Record{
		ID:        job.ID,
		Kind:      job.Kind,
		URL:       job.URL,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(Key(job)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, "failed to upload record")
	}

	return nil
}

// Key is the object key of a job's record.
func Key(job *models.Job) string {
	return fmt.Sprintf("%s/%s.json", job.Kind, job.ID)
}

type Nop struct{}

func (Nop) Archive(context.Context, *models.Job, string) error { return nil }
