package gcs

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/userload/pkg/batch/adapter/storage"
)

// Module provides the GCSProvider tagged into the "storage_providers" group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGCSProvider,
		fx.ResultTags(`group:"`+storageAdapter.StorageProviderGroup+`"`),
	)),
)
