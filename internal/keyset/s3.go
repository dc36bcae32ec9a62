package keyset

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps the sealed keyset blob as a single S3 object, so a fleet of
// hosts can share one keyset without sharing a filesystem. The blob is
// already sealed under the master key before it reaches this store; the
// bucket never sees key material.
type S3Store struct {
	bucket     string
	key        string
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

var _ BlobStore = (*S3Store)(nil)

// S3Options configures NewS3Store. Region is required; AccessKey/SecretKey
// are optional and fall back to the default AWS credential chain.
type S3Options struct {
	Bucket    string
	Key       string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Store creates a store over the object opts.Key in opts.Bucket.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" || opts.Key == "" {
		return nil, fmt.Errorf("s3 keyset store requires bucket and key")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		bucket:     opts.Bucket,
		key:        opts.Key,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}, nil
}

// Load downloads the blob object. A missing object reports ok=false, which
// triggers the create path in the Vault.
func (s *S3Store) Load() ([]byte, bool, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(context.Background(), buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("downloading keyset object: %w", err)
	}
	return buf.Bytes(), true, nil
}

// Store uploads the blob, replacing any previous object. S3 object writes
// are atomic per key, matching the BlobStore contract.
func (s *S3Store) Store(blob []byte) error {
	_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   bytes.NewReader(blob),
	})
	if err != nil {
		return fmt.Errorf("uploading keyset object: %w", err)
	}
	return nil
}
