// Package scheduler runs the periodic pass that finds due posts, claims them
// and hands them to the dispatcher.
//
// Several instances may run the loop against the same store. GetDuePosts may
// hand the same id to more than one of them; only the claim decides who
// dispatches, so a post is dispatched at most once per pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/crosspost/internal/dispatcher"
	"github.com/orgball2608/crosspost/internal/repositories/post"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

type Opts struct {
	fx.In

	LC         fx.Lifecycle `optional:"true"`
	Config     *config.Config
	Logger     logger.Logger
	Clock      clockwork.Clock
	Posts      post.Repository
	Dispatcher *dispatcher.Dispatcher
}

type Loop struct {
	posts      post.Repository
	dispatcher *dispatcher.Dispatcher
	clock      clockwork.Clock
	logger     logger.Logger

	owner       string
	interval    time.Duration
	stuck       time.Duration
	batch       int
	concurrency int
	retention   time.Duration
	location    *time.Location

	mu        sync.Mutex
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

func New(opts Opts) (*Loop, error) {
	log := opts.Logger.WithComponent("Scheduler")
	cfg := opts.Config.Scheduler

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
		log.Warn("Failed to load scheduler timezone, using UTC", "timezone", cfg.Timezone, "error", err)
	}

	l := &Loop{
		posts:       opts.Posts,
		dispatcher:  opts.Dispatcher,
		clock:       opts.Clock,
		logger:      log,
		owner:       opts.Config.InstanceName(),
		interval:    cfg.Interval,
		stuck:       cfg.StuckThreshold,
		batch:       cfg.BatchSize,
		concurrency: cfg.Concurrency,
		retention:   cfg.CancelledRetention,
		location:    loc,
	}
	if l.concurrency <= 0 {
		l.concurrency = 1
	}

	if opts.LC != nil {
		opts.LC.Append(fx.Hook{
			OnStart: func(context.Context) error {
				// The start context only lives for the duration of fx startup.
				return l.Start(context.Background())
			},
			OnStop: func(context.Context) error {
				return l.Stop()
			},
		})
	}
	return l, nil
}

// Start schedules the dispatch pass every interval and the daily purge of
// cancelled posts. Jobs stop when ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scheduler != nil {
		return errors.New("scheduler already started")
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(l.location),
		gocron.WithClock(l.clock),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	_, err = s.NewJob(
		gocron.DurationJob(l.interval),
		gocron.NewTask(func() {
			if runCtx.Err() != nil {
				return
			}
			if _, err := l.Tick(runCtx); err != nil {
				l.logger.Error("Dispatch pass failed", "error", err)
			}
		}),
		gocron.WithName("dispatch-due-posts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule dispatch pass: %w", err)
	}

	if l.retention > 0 {
		_, err = s.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
			gocron.NewTask(func() {
				if runCtx.Err() != nil {
					return
				}
				if _, err := l.Purge(runCtx); err != nil {
					l.logger.Error("Purge of cancelled posts failed", "error", err)
				}
			}),
			gocron.WithName("purge-cancelled-posts"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to schedule purge: %w", err)
		}
	}

	s.Start()
	l.scheduler = s
	l.cancel = cancel
	l.logger.Info("Scheduler started", "owner", l.owner, "interval", l.interval.String())
	return nil
}

// Stop cancels running passes and waits for them to return.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scheduler == nil {
		return nil
	}
	l.cancel()
	err := l.scheduler.Shutdown()
	l.scheduler = nil
	if err != nil {
		l.logger.Error("Failed to shut down scheduler", "error", err)
		return err
	}
	l.logger.Info("Scheduler stopped")
	return nil
}

// Tick runs one pass: due posts are claimed and dispatched, a bounded number
// at a time. It returns how many posts this instance dispatched.
func (l *Loop) Tick(ctx context.Context) (int, error) {
	now := l.clock.Now()
	stuckBefore := now.Add(-l.stuck)

	ids, err := l.posts.GetDuePosts(ctx, now, stuckBefore, l.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list due posts: %w", err)
	}
	if len(ids) == 0 {
		l.logger.Debug("No posts due")
		return 0, nil
	}
	l.logger.Info("Found due posts", "count", len(ids))

	var dispatched atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(l.concurrency)
	for _, id := range ids {
		postID := id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			token, err := l.posts.ClaimPost(ctx, postID, now, stuckBefore, l.owner)
			if errors.Is(err, post.ErrNotClaimed) {
				l.logger.Debug("Post claimed elsewhere", "post_id", postID)
				return nil
			}
			if err != nil {
				l.logger.Error("Failed to claim post", "post_id", postID, "error", err)
				return nil
			}

			status, err := l.dispatcher.Dispatch(ctx, postID, token)
			if err != nil {
				l.logger.Error("Dispatch failed", "post_id", postID, "error", err)
				return nil
			}
			dispatched.Add(1)
			l.logger.Debug("Post dispatched", "post_id", postID, "status", status)
			return nil
		})
	}
	_ = g.Wait()

	return int(dispatched.Load()), nil
}

// Purge removes cancelled posts older than the retention window.
func (l *Loop) Purge(ctx context.Context) (int64, error) {
	if l.retention <= 0 {
		return 0, nil
	}
	n, err := l.posts.PurgeCancelled(ctx, l.clock.Now().Add(-l.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		l.logger.Info("Purged cancelled posts", "count", n)
	}
	return n, nil
}
