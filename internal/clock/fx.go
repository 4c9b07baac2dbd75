package clock

import "go.uber.org/fx"

// Module provides the wall clock. Tests bypass fx and inject a Fixed
// clock directly.
var Module = fx.Module("clock",
	fx.Provide(func() Clock {
		return SystemClock{}
	}),
)
