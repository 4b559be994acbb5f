// Package store abstracts the blob storage the analyzer reads logs from.
package store

import "context"

// BlobStore lists and fetches blobs from one storage account. The pipeline
// only needs these two operations; authentication and connection setup
// belong to the implementation.
type BlobStore interface {
	// ListBlobs returns the names of all blobs in a container. A missing
	// container is an error.
	ListBlobs(ctx context.Context, container string) ([]string, error)

	// FetchBlob downloads one blob's content.
	FetchBlob(ctx context.Context, container, name string) ([]byte, error)
}
