// Package storage provides the object stores that hold uploaded image
// renditions. The catalog keeps only the URLs a store returns; the blobs
// themselves live and die with the store.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

// Store backends selectable through configuration.
const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

// ObjectStore abstracts the blob store behind the image pipeline.
type ObjectStore interface {
	// Put uploads data under key and returns the URL it will be served
	// from. Re-putting an existing key overwrites it.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes the blob stored under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error
}

// ImageKey builds the canonical object key for one rendition of an upload.
// Keys are content addressed, so re-uploading the same photo lands on the
// same objects.
func ImageKey(productID uuid.UUID, fileHash string, size model.ImageSize) string {
	return fmt.Sprintf("products/%s/%s_%s.jpg", productID, fileHash, size)
}
