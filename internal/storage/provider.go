// Package storage defines the remote object-store boundary and its
// implementations. Paths are slash-separated and rooted at the catalog root
// (e.g. /recipes/soup.md, /recipes/soup/pot.jpg).
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports that the object at the requested path is absent.
	ErrNotFound = errors.New("storage: not found")
	// ErrExists reports that the target path is already occupied.
	ErrExists = errors.New("storage: already exists")
)

// Entry is one item in a folder listing.
type Entry struct {
	Name     string
	IsFolder bool
}

// Metadata describes a stored object. Rev is the store's opaque revision
// marker and changes on every write.
type Metadata struct {
	Rev string
}

// Provider is the capability set Ladle consumes from the remote store.
type Provider interface {
	// ListFolder returns the immediate children of the folder at path.
	ListFolder(ctx context.Context, path string) ([]Entry, error)
	// Download returns the full content of the object at path.
	Download(ctx context.Context, path string) ([]byte, error)
	// Upload writes data to path. Without overwrite an occupied path fails
	// with ErrExists.
	Upload(ctx context.Context, path string, data []byte, overwrite bool) error
	// Delete removes the object or folder at path; ErrNotFound if absent.
	Delete(ctx context.Context, path string) error
	// CreateFolder creates the folder at path; ErrExists if occupied.
	CreateFolder(ctx context.Context, path string) error
	// Move relocates an object or folder, including any children.
	Move(ctx context.Context, src, dst string) error
	// GetMetadata returns the metadata for the object at path.
	GetMetadata(ctx context.Context, path string) (Metadata, error)
	// GetThumbnail returns a store-generated thumbnail for an image object.
	// Size is a store-defined format name such as "w256h256".
	GetThumbnail(ctx context.Context, path, size string) ([]byte, error)
}
