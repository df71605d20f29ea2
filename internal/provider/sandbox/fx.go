package sandbox

import (
	"github.com/orgball2608/crosspost/internal/provider"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

// FromConfig builds one sandbox provider per configured platform.
func FromConfig(cfg *config.Config, log logger.Logger) []provider.Provider {
	platforms := cfg.SandboxPlatforms()
	if len(platforms) > 0 && cfg.IsProduction() {
		log.Warn("Sandbox providers enabled in production", "platforms", platforms)
	}
	out := make([]provider.Provider, 0, len(platforms))
	for _, name := range platforms {
		out = append(out, New(name))
	}
	return out
}

var Module = fx.Module("sandbox_provider",
	fx.Provide(
		fx.Annotate(FromConfig, fx.ResultTags(`group:"providers,flatten"`)),
	),
)
