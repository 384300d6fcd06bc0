package storage

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"

	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// InputOpener opens an input path through the provider registered for its scheme.
type InputOpener struct {
	providers map[string]StorageProvider
}

// InputOpenerParams collects every provider of the "storage_providers" group.
type InputOpenerParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
}

// NewInputOpener creates an InputOpener from the grouped providers.
func NewInputOpener(p InputOpenerParams) *InputOpener {
	return NewInputOpenerFromProviders(p.Providers...)
}

// NewInputOpenerFromProviders creates an InputOpener without Fx.
func NewInputOpenerFromProviders(providers ...StorageProvider) *InputOpener {
	m := make(map[string]StorageProvider, len(providers))
	for _, p := range providers {
		m[p.Type()] = p
	}
	return &InputOpener{providers: m}
}

// Open resolves path and downloads it. A missing object is reported wrapping ErrObjectNotFound.
func (o *InputOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	loc, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	provider, ok := o.providers[loc.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider registered for type '%s' (input '%s')", loc.Type, path)
	}
	conn, err := provider.GetConnection(InputConnectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection for '%s': %w", path, err)
	}
	logger.Debugf("Opening input '%s' via %s storage.", loc, loc.Type)
	return conn.Download(ctx, loc.Bucket, loc.Object)
}

// CloseAll closes the connections of every provider.
func (o *InputOpener) CloseAll() error {
	var lastErr error
	for t, p := range o.providers {
		if err := p.CloseAll(); err != nil {
			logger.Warnf("Failed to close %s storage connections: %v", t, err)
			lastErr = err
		}
	}
	return lastErr
}

// Module provides the InputOpener. Providers are contributed by the local and gcs modules.
var Module = fx.Options(
	fx.Provide(NewInputOpener),
)
