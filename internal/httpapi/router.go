// Package httpapi is the JSON surface the UI talks to.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/publishing"
	"github.com/orgball2608/crosspost/internal/query"
	"github.com/orgball2608/crosspost/internal/ratelimit"
	"github.com/orgball2608/crosspost/pkg/logger"
)

type PostUseCase interface {
	CreatePost(ctx context.Context, req publishing.CreateRequest) (*domain.Post, []domain.DeliveryTarget, error)
	Cancel(ctx context.Context, userID, postID string) error
	Reschedule(ctx context.Context, userID, postID string, at time.Time) (*domain.Post, error)
}

type QueryUseCase interface {
	Upcoming(ctx context.Context, userID string, limit int) ([]query.PostView, error)
	History(ctx context.Context, userID, status string, limit, offset int) ([]query.PostView, error)
	Detail(ctx context.Context, userID, postID string) (*query.PostView, error)
}

var (
	_ PostUseCase  = (*publishing.Service)(nil)
	_ QueryUseCase = (*query.Service)(nil)
)

// NewRouter wires the routes. Everything under /v1 needs an X-User-ID header
// and is rate limited per user.
func NewRouter(posts PostUseCase, queries QueryUseCase, limiter ratelimit.Limiter, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	pc := NewPostController(posts, queries, log)
	v1 := r.Group("/v1", RequireUser(), RateLimit(limiter))
	v1.POST("/posts", pc.Create)
	v1.GET("/posts", pc.History)
	v1.GET("/posts/upcoming", pc.Upcoming)
	v1.GET("/posts/:id", pc.Detail)
	v1.DELETE("/posts/:id", pc.Cancel)
	v1.PUT("/posts/:id/schedule", pc.Reschedule)

	return r
}
