// Package storage uploads synthesized voice notes to durable object storage
// so the messaging channel can fetch them by public URL.
package storage

import "context"

// BlobStore stores a named blob and returns its publicly fetchable URL.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}
