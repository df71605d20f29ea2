// Package query is the read side used by the UI: upcoming posts, history and
// per-post detail with live delivery status.
package query

import (
	"context"

	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/repositories/post"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PostView is a post together with its targets and the derived user-facing status.
type PostView struct {
	Post    domain.Post
	Status  domain.AggregateStatus
	Targets []domain.DeliveryTarget
}

type Opts struct {
	fx.In

	Posts  post.Repository
	Logger logger.Logger
}

type Service struct {
	posts  post.Repository
	logger logger.Logger
}

func New(opts Opts) *Service {
	return &Service{
		posts:  opts.Posts,
		logger: opts.Logger.WithComponent("Query"),
	}
}

// Upcoming lists the user's scheduled posts, soonest first.
func (s *Service) Upcoming(ctx context.Context, userID string, limit int) ([]PostView, error) {
	posts, err := s.posts.ListUpcoming(ctx, userID, clamp(limit))
	if err != nil {
		return nil, err
	}
	return s.withTargets(ctx, posts)
}

// History lists the user's posts newest first. An empty status lists everything;
// otherwise it is an aggregate status name such as "partial".
func (s *Service) History(ctx context.Context, userID, status string, limit, offset int) ([]PostView, error) {
	var statuses []domain.PostStatus
	if status != "" {
		agg, ok := domain.ParseAggregateStatus(status)
		if !ok {
			return nil, apperrors.Validation("unknown status filter %q", status)
		}
		statuses = agg.StoredStatuses()
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.posts.ListByStatus(ctx, userID, statuses, clamp(limit), offset)
	if err != nil {
		return nil, err
	}
	return s.withTargets(ctx, posts)
}

// Detail returns one post with its live targets. Posts of other users are not found.
func (s *Service) Detail(ctx context.Context, userID, postID string) (*PostView, error) {
	p, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, post.ErrNotFound
	}
	targets, err := s.posts.ListTargets(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &PostView{
		Post:    *p,
		Status:  domain.Aggregate(*p, targets),
		Targets: targets,
	}, nil
}

func (s *Service) withTargets(ctx context.Context, posts []domain.Post) ([]PostView, error) {
	if len(posts) == 0 {
		return []PostView{}, nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	byPost, err := s.posts.ListTargetsForPosts(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		targets := byPost[p.ID]
		views[i] = PostView{
			Post:    p,
			Status:  domain.Aggregate(p, targets),
			Targets: targets,
		}
	}
	return views, nil
}

func clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
