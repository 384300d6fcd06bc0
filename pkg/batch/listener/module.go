// Package listener aggregates the run and record listeners of the loader.
package listener

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	"github.com/tigerroll/userload/pkg/batch/listener/logging"
)

// Module provides the logging listeners and the completion signaler. The signaler is available
// both as *RunCompletionSignaler and as a member of the run listener group.
var Module = fx.Options(
	logging.Module,
	fx.Provide(NewRunCompletionSignaler),
	fx.Provide(fx.Annotate(
		func(s *RunCompletionSignaler) port.RunListener { return s },
		fx.ResultTags(`group:"`+port.RunListenerGroup+`"`),
	)),
)
