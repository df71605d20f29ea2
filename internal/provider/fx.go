package provider

import (
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

// RegistryOpts collects every provider contributed to the "providers" group.
type RegistryOpts struct {
	fx.In
	Logger    logger.Logger
	Providers []Provider `group:"providers"`
}

func newRegistryFx(opts RegistryOpts) *Registry {
	r := NewRegistry(opts.Providers...)
	opts.Logger.WithComponent("ProviderRegistry").Info("Providers registered", "platforms", r.Platforms())
	return r
}

var Module = fx.Module("provider",
	fx.Provide(newRegistryFx),
)
