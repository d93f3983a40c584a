// Package storage provides the byte-level namespace adapters consumed by the
// corpus loader. An adapter knows how to turn a path relative to its own
// namespace into bytes; it has no knowledge of documents, imports or
// resolution.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by an Adapter when a path does not exist under it.
var ErrNotFound = errors.New("storage: not found")

// Adapter is bound to exactly one namespace by a Registry. Implementations
// must be safe for concurrent use: the loader fans out multiple reads for
// distinct paths concurrently.
type Adapter interface {
	// Read returns the raw bytes stored at path.
	Read(ctx context.Context, path string) ([]byte, error)
	// ComputeLastModifiedTime returns the modification time of path.
	ComputeLastModifiedTime(ctx context.Context, path string) (time.Time, error)
	// ListChildren returns the immediate child names (files and folders) of
	// path, without recursing.
	ListChildren(ctx context.Context, path string) ([]string, error)
}
