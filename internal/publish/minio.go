package publish

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// MinioStore is the MinIO / S3-compatible ObjectStore backend.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore wraps an initialized client. publicBase is the externally
// reachable base URL for the bucket, e.g. "http://localhost:9000/images".
func NewMinioStore(client *minio.Client, bucket, publicBase string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, publicURL: publicBase}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, objectPath, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("minio upload of %s failed: %w", objectPath, err)
	}
	return nil
}

func (s *MinioStore) Remove(ctx context.Context, objectPath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete of %s failed: %w", objectPath, err)
	}
	return nil
}

func (s *MinioStore) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, objectPath)
}
