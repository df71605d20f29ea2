// Package publishing owns the write side of a post's life before dispatch:
// creation, cancellation and rescheduling, plus the immediate path that
// dispatches a queued post without waiting for the next scheduler pass.
package publishing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/crosspost/internal/dispatcher"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/repositories/account"
	"github.com/orgball2608/crosspost/internal/repositories/post"
	"github.com/orgball2608/crosspost/pkg/config"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

// CreateRequest is a composed post addressed to one or more accounts.
type CreateRequest struct {
	UserID       string
	Content      domain.Content
	AccountIDs   []string
	ScheduledFor *time.Time // nil publishes immediately
	Draft        bool
}

type Opts struct {
	fx.In

	LC         fx.Lifecycle `optional:"true"`
	Config     *config.Config
	Logger     logger.Logger
	Clock      clockwork.Clock
	Posts      post.Repository
	Accounts   account.Directory
	Dispatcher *dispatcher.Dispatcher
}

type Service struct {
	posts      post.Repository
	accounts   account.Directory
	dispatcher *dispatcher.Dispatcher
	clock      clockwork.Clock
	logger     logger.Logger

	owner string
	grace time.Duration
	stuck time.Duration

	inflight sync.WaitGroup
}

func New(opts Opts) *Service {
	s := &Service{
		posts:      opts.Posts,
		accounts:   opts.Accounts,
		dispatcher: opts.Dispatcher,
		clock:      opts.Clock,
		logger:     opts.Logger.WithComponent("Publishing"),
		owner:      opts.Config.InstanceName(),
		grace:      opts.Config.Dispatch.ScheduleGrace,
		stuck:      opts.Config.Scheduler.StuckThreshold,
	}
	if opts.LC != nil {
		opts.LC.Append(fx.Hook{
			OnStop: s.Wait,
		})
	}
	return s
}

// CreatePost validates and persists a post with one pending target per
// distinct account. Nothing is written when validation fails.
func (s *Service) CreatePost(ctx context.Context, req CreateRequest) (*domain.Post, []domain.DeliveryTarget, error) {
	now := s.clock.Now().UTC()

	accountIDs := dedupe(req.AccountIDs)
	if err := s.validate(req, accountIDs, now); err != nil {
		return nil, nil, err
	}

	accounts, err := s.accounts.GetAccounts(ctx, accountIDs)
	if err != nil {
		return nil, nil, err
	}
	targets := make([]domain.DeliveryTarget, 0, len(accountIDs))
	for _, id := range accountIDs {
		acc, ok := accounts[id]
		if !ok || acc.UserID != req.UserID {
			return nil, nil, apperrors.Validation("unknown account %q", id)
		}
		if !acc.Enabled {
			return nil, nil, apperrors.Validation("account %q is disabled", id)
		}
		targets = append(targets, domain.DeliveryTarget{
			AccountID: id,
			Platform:  acc.Platform,
			Status:    domain.TargetStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	p := domain.Post{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ScheduledFor != nil {
		at := req.ScheduledFor.UTC()
		p.ScheduledFor = &at
	}
	switch {
	case req.Draft:
		p.Status = domain.PostStatusDraft
	case p.ScheduledFor != nil:
		p.Status = domain.PostStatusScheduled
		p.DueAt = p.ScheduledFor
	default:
		p.Status = domain.PostStatusQueued
		p.DueAt = &now
	}

	if err := s.posts.CreatePost(ctx, p, targets); err != nil {
		return nil, nil, err
	}
	for i := range targets {
		targets[i].PostID = p.ID
	}

	log := s.logger.With("post_id", p.ID, "user_id", p.UserID)
	log.Info("Post created", "status", p.Status, "targets", len(targets))

	if p.Status == domain.PostStatusQueued {
		s.kick(context.WithoutCancel(ctx), p.ID)
	}
	return &p, targets, nil
}

func (s *Service) validate(req CreateRequest, accountIDs []string, now time.Time) error {
	if strings.TrimSpace(req.UserID) == "" {
		return apperrors.Validation("user id is required")
	}
	if req.Content.IsEmpty() {
		return apperrors.Validation("content is empty")
	}
	for _, m := range req.Content.Media {
		if strings.TrimSpace(m.URL) == "" {
			return apperrors.Validation("media reference without url")
		}
	}
	if len(accountIDs) == 0 {
		return apperrors.Validation("at least one destination account is required")
	}
	if req.ScheduledFor != nil && req.ScheduledFor.Before(now.Add(-s.grace)) {
		return apperrors.Validation("scheduled time %s is in the past", req.ScheduledFor.UTC().Format(time.RFC3339))
	}
	return nil
}

// kick claims and dispatches a queued post in the background. If the
// scheduler claims it first the claim simply fails here.
func (s *Service) kick(ctx context.Context, postID string) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		log := s.logger.With("post_id", postID)

		now := s.clock.Now()
		token, err := s.posts.ClaimPost(ctx, postID, now, now.Add(-s.stuck), s.owner)
		if err != nil {
			if !errors.Is(err, post.ErrNotClaimed) {
				log.Error("Failed to claim queued post", "error", err)
			}
			return
		}
		status, err := s.dispatcher.Dispatch(ctx, postID, token)
		if err != nil {
			log.Error("Immediate dispatch failed", "error", err)
			return
		}
		log.Info("Immediate dispatch finished", "status", status)
	}()
}

// Wait blocks until background dispatches started by CreatePost finish or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops a post that has not been claimed for dispatch yet.
func (s *Service) Cancel(ctx context.Context, userID, postID string) error {
	if _, err := s.owned(ctx, userID, postID); err != nil {
		return err
	}
	if err := s.posts.CancelPost(ctx, postID, s.clock.Now()); err != nil {
		return err
	}
	s.logger.Info("Post cancelled", "post_id", postID, "user_id", userID)
	return nil
}

// Reschedule moves a draft or scheduled post to a new time. A draft becomes scheduled.
func (s *Service) Reschedule(ctx context.Context, userID, postID string, at time.Time) (*domain.Post, error) {
	now := s.clock.Now()
	if at.Before(now.Add(-s.grace)) {
		return nil, apperrors.Validation("scheduled time %s is in the past", at.UTC().Format(time.RFC3339))
	}
	if _, err := s.owned(ctx, userID, postID); err != nil {
		return nil, err
	}
	if err := s.posts.ReschedulePost(ctx, postID, at.UTC(), now); err != nil {
		return nil, err
	}
	s.logger.Info("Post rescheduled", "post_id", postID, "scheduled_for", at.UTC())
	return s.posts.GetPost(ctx, postID)
}

// owned loads a post and hides it from anyone but its author.
func (s *Service) owned(ctx context.Context, userID, postID string) (*domain.Post, error) {
	p, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, post.ErrNotFound
	}
	return p, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
