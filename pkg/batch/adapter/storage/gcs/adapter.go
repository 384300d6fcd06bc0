// Package gcs provides a Google Cloud Storage implementation of the storage adapter interfaces.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	storageAdapter "github.com/tigerroll/userload/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/userload/pkg/batch/adapter/storage/config"
	coreConfig "github.com/tigerroll/userload/pkg/batch/core/config"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// ProviderType defines the type identifier for this provider.
const ProviderType = "gcs"

// gcsAdapter implements storage.StorageConnection on top of a *storage.Client.
type gcsAdapter struct {
	client *storage.Client
	name   string
}

var _ storageAdapter.StorageConnection = (*gcsAdapter)(nil)

// NewGCSAdapter creates a client from cfg. Extra client options are appended after the
// credentials option.
func NewGCSAdapter(ctx context.Context, cfg storageConfig.StorageConfig, name string, opts ...option.ClientOption) (storageAdapter.StorageConnection, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}
	return &gcsAdapter{client: client, name: name}, nil
}

// Close releases the client.
func (a *gcsAdapter) Close() error {
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return a.client.Close()
}

// Type returns "gcs".
func (a *gcsAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *gcsAdapter) Name() string {
	return a.name
}

// Download opens a reader on gs://bucket/objectName.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	reader, err := a.client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", storageAdapter.ErrObjectNotFound, bucket, objectName)
		}
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, objectName, err)
	}
	logger.Debugf("Opened gs://%s/%s (%d bytes) via GCS adapter '%s'.", bucket, objectName, reader.Attrs.Size, a.name)
	return reader, nil
}

// GCSProvider implements storage.StorageProvider for GCS connections.
type GCSProvider struct {
	cfg         storageConfig.StorageConfig
	opts        []option.ClientOption
	connections map[string]storageAdapter.StorageConnection
	mu          sync.Mutex
}

// NewGCSProvider creates a provider using the input credentials of the application configuration.
func NewGCSProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return NewGCSProviderWithConfig(storageConfig.StorageConfig{
		Type:            ProviderType,
		CredentialsFile: cfg.Userload.Input.CredentialsFile,
	})
}

// NewGCSProviderWithConfig creates a provider from an explicit storage configuration.
func NewGCSProviderWithConfig(cfg storageConfig.StorageConfig, opts ...option.ClientOption) *GCSProvider {
	return &GCSProvider{
		cfg:         cfg,
		opts:        opts,
		connections: make(map[string]storageAdapter.StorageConnection),
	}
}

// GetConnection returns the named connection, creating its client on first use.
func (p *GCSProvider) GetConnection(name string) (storageAdapter.StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}
	conn, err := NewGCSAdapter(context.Background(), p.cfg, name, p.opts...)
	if err != nil {
		return nil, err
	}
	p.connections[name] = conn
	logger.Debugf("Created new GCS storage connection '%s'.", name)
	return conn, nil
}

// CloseAll closes all clients managed by this provider.
func (p *GCSProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close GCS storage connection '%s': %w", name, err))
		}
		delete(p.connections, name)
	}
	return errors.Join(errs...)
}

// Type returns "gcs".
func (p *GCSProvider) Type() string {
	return ProviderType
}
