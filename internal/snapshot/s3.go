package snapshot

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/config"
)

// ObjectPutter is the part of *s3.Client the mirror needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror copies snapshot files to a bucket under <prefix>/<run id>/.
type S3Mirror struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Mirror builds a mirror from the default AWS credential chain. A custom
// endpoint switches to path-style addressing for MinIO and LocalStack.
func NewS3Mirror(ctx context.Context, cfg config.Snapshot) (*S3Mirror, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3MirrorWithClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func NewS3MirrorWithClient(client ObjectPutter, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a snapshot file of one run.
func (m *S3Mirror) Key(runID, file string) string {
	return path.Join(m.prefix, runID, filepath.Base(file))
}

// Mirror uploads every file. It stops at the first failure.
func (m *S3Mirror) Mirror(ctx context.Context, runID string, files []File) error {
	for _, f := range files {
		if err := m.put(ctx, runID, f); err != nil {
			return err
		}
	}
	return nil
}

func (m *S3Mirror) put(ctx context.Context, runID string, f File) error {
	body, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer body.Close()

	key := m.Key(runID, f.Path)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(f.Bytes),
		ContentType:   aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}
