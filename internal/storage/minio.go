package storage

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignTTL = 24 * time.Hour

// ExportStore publishes CSV exports to an S3-compatible bucket.
type ExportStore struct {
	client     *minio.Client
	bucketName string
}

// New connects to the bucket, creating it when missing.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*ExportStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}
	return &ExportStore{client: cli, bucketName: bucket}, nil
}

// Publish uploads data under key and returns a presigned download URL.
func (s *ExportStore) Publish(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        "text/csv; charset=utf-8",
		ContentDisposition: `attachment; filename="` + path.Base(key) + `"`,
	})
	if err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, presignTTL, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// ExportKey places an export under exports/<dataset>/<filename>.
func ExportKey(datasetID, filename string) string {
	return path.Join("exports", datasetID, filename)
}
