package gorm

import (
	"go.uber.org/fx"

	"github.com/tigerroll/userload/pkg/batch/adapter/database"
)

// Module exports the components of the gorm adapter package (excluding the dialect providers,
// which live in the sqlite, mysql and postgres sub-packages).
var Module = fx.Options(
	fx.Provide(NewGormTransactionManagerFactory),
	fx.Provide(fx.Annotate(
		NewGormDBConnectionResolver,
		fx.As(new(database.DBConnectionResolver)),
	)),
)
