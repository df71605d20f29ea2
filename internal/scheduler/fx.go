package scheduler

import "go.uber.org/fx"

var Module = fx.Module("scheduler",
	fx.Provide(New),
	// Force construction so the lifecycle hooks are registered.
	fx.Invoke(func(*Loop) {}),
)
