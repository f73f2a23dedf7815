package storage

import (
	"context"
	"errors"
	"strconv"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is the blob area holding primary uploads and derived thumbnails.
// A location is whatever Create returned; derived blobs live next to it.
type BlobStore interface {
	// Create stores data under a fresh, exclusive name.
	Create(ctx context.Context, data []byte) (string, error)
	// Write creates or replaces the blob at location.
	Write(ctx context.Context, location string, data []byte) error
	Read(ctx context.Context, location string) ([]byte, error)
}

// DerivedPath names the thumbnail of location at the given width.
func DerivedPath(location string, width int) string {
	return location + "_" + strconv.Itoa(width)
}
