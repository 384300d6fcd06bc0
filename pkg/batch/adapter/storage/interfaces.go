// Package storage defines the common interfaces of the input storage adapters.
// An input path is either a local file or a gs://bucket/object URL; each scheme is served
// by its own provider (see the local and gcs sub-packages).
package storage

import (
	"context"
	"errors"
	"io"

	coreAdapter "github.com/tigerroll/userload/pkg/batch/core/adapter"
)

// InputConnectionName is the name under which the input connection is registered.
const InputConnectionName = "input"

// ErrObjectNotFound is wrapped by adapters when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// StorageExecutor defines the storage operations the loader needs.
type StorageExecutor interface {
	// Download opens the object for reading. bucket is empty for local files.
	// The returned ReadCloser must be closed by the caller.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
}

// StorageConnection represents a data storage connection.
type StorageConnection interface {
	coreAdapter.ResourceConnection // Close(), Type(), Name()
	StorageExecutor
}

// StorageProvider manages the acquisition and lifecycle of storage connections of one type.
type StorageProvider interface {
	// GetConnection retrieves the StorageConnection with the specified name.
	GetConnection(name string) (StorageConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the storage type handled by this provider ("local", "gcs").
	Type() string
}

// StorageProviderGroup is the Fx group name used to collect all StorageProvider implementations.
const StorageProviderGroup = "storage_providers"
