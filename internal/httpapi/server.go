package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/crosspost/internal/publishing"
	"github.com/orgball2608/crosspost/internal/query"
	"github.com/orgball2608/crosspost/internal/ratelimit"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	LC         fx.Lifecycle
	Config     *config.Config
	Logger     logger.Logger
	Publishing *publishing.Service
	Query      *query.Service
	Limiter    ratelimit.Limiter
}

// NewServer builds the HTTP server and binds it to the fx lifecycle.
func NewServer(opts Opts) *http.Server {
	log := opts.Logger.WithComponent("HTTP")
	if opts.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Config.App.Port),
		Handler:           NewRouter(opts.Publishing, opts.Query, opts.Limiter, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}
			log.Info("Starting HTTP server", "addr", srv.Addr)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
