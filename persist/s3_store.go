package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const keysetObjectName = "keyset.bin"

// S3Store persists the keyset blob in an S3-compatible bucket, using object
// ETags for optimistic versioning.
type S3Store struct {
	client *minio.Client
	config S3Config
}

// NewS3Store connects to the configured endpoint and ensures the bucket
// exists.
func NewS3Store(config S3Config) (*S3Store, error) {
	endpoint := config.Endpoint
	useSSL := config.UseSSL
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid s3 endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.secretKey(), ""),
		Secure: useSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	store := &S3Store{client: client, config: config}
	if err = store.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

func (s3s *S3Store) objectKey() string {
	if s3s.config.Prefix == "" {
		return keysetObjectName
	}
	return strings.TrimSuffix(s3s.config.Prefix, "/") + "/" + keysetObjectName
}

func (s3s *S3Store) SaveKeyset(data []byte, expectedVersion string) (string, error) {
	ctx := context.Background()

	current, err := s3s.currentVersion(ctx)
	if err != nil {
		return "", err
	}
	if current != expectedVersion {
		return "", fmt.Errorf("version mismatch: expected %q, found %q", expectedVersion, current)
	}

	info, err := s3s.client.PutObject(ctx, s3s.config.Bucket, s3s.objectKey(),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("failed to store keyset: %w", err)
	}

	return cleanETag(info.ETag), nil
}

func (s3s *S3Store) LoadKeyset() (*VersionedData, error) {
	ctx := context.Background()

	obj, err := s3s.client.GetObject(ctx, s3s.config.Bucket, s3s.objectKey(), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get keyset: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("no keyset stored: %w", err)
		}
		return nil, fmt.Errorf("failed to read keyset: %w", err)
	}

	stat, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat keyset: %w", err)
	}

	return &VersionedData{
		Data:      data,
		Version:   cleanETag(stat.ETag),
		Timestamp: stat.LastModified,
	}, nil
}

func (s3s *S3Store) KeysetExists() (bool, error) {
	_, err := s3s.client.StatObject(context.Background(), s3s.config.Bucket, s3s.objectKey(), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFoundError(err) {
		return false, nil
	}
	return false, err
}

func (s3s *S3Store) GetType() string {
	return string(S3StoreType)
}

func (s3s *S3Store) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := s3s.client.BucketExists(ctx, s3s.config.Bucket)
	if err != nil {
		return fmt.Errorf("s3 not reachable: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s3s.config.Bucket)
	}
	return nil
}

func (s3s *S3Store) Close() error {
	return nil
}

func (s3s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s3s.client.BucketExists(ctx, s3s.config.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err = s3s.client.MakeBucket(ctx, s3s.config.Bucket, minio.MakeBucketOptions{Region: s3s.config.Region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// currentVersion returns the ETag of the stored keyset, or "" when no
// keyset exists yet.
func (s3s *S3Store) currentVersion(ctx context.Context) (string, error) {
	stat, err := s3s.client.StatObject(ctx, s3s.config.Bucket, s3s.objectKey(), minio.StatObjectOptions{})
	if err != nil {
		if isNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat keyset: %w", err)
	}
	return cleanETag(stat.ETag), nil
}

func cleanETag(etag string) string {
	return strings.Trim(etag, `"`)
}

func isNotFoundError(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == 404
}
