package httpapi

import (
	"net/http"

	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(NewServer),
	fx.Invoke(func(*http.Server) {}),
)
