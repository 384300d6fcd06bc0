package logging

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
)

// Module provides the logging listeners into their groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLoggingRunListener,
		fx.As(new(port.RunListener)),
		fx.ResultTags(`group:"`+port.RunListenerGroup+`"`),
	)),
	fx.Provide(fx.Annotate(
		NewLoggingRecordListener,
		fx.As(new(port.RecordListener)),
		fx.ResultTags(`group:"`+port.RecordListenerGroup+`"`),
	)),
)
