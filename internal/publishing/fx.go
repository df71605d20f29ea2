package publishing

import "go.uber.org/fx"

var Module = fx.Module("publishing",
	fx.Provide(New),
)
