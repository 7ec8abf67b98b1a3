package storage

import (
	"bytes"
	"context"
	"fmt"

	storageapi "google.golang.org/api/storage/v1"
)

// GCSStore uploads blobs to a Google Cloud Storage bucket using application
// default credentials.
type GCSStore struct {
	service *storageapi.Service
	bucket  string
}

// NewGCSStore creates a store writing to the named bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	svc, err := storageapi.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}
	return &GCSStore{service: svc, bucket: bucket}, nil
}

// Upload writes the blob and returns its public URL. The bucket must grant
// public read for the URL to be fetchable by the channel provider.
func (s *GCSStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	obj := &storageapi.Object{Name: name, ContentType: contentType}
	_, err := s.service.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s to gs://%s: %w", name, s.bucket, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}
