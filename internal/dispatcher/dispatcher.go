// Package dispatcher delivers a claimed post to each of its destinations.
//
// Every target is attempted independently on a shared worker pool: one
// destination failing, hanging or panicking never changes another's outcome.
// Transient failures are not retried in-process; the target is parked as
// retrying with a next attempt time and the post's due time is moved so a
// later scheduler pass picks it up again.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/notifier"
	"github.com/orgball2608/crosspost/internal/provider"
	"github.com/orgball2608/crosspost/internal/repositories/account"
	"github.com/orgball2608/crosspost/internal/repositories/post"
	"github.com/orgball2608/crosspost/pkg/config"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"github.com/orgball2608/crosspost/pkg/logger"
	"github.com/orgball2608/crosspost/pkg/retry"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/fx"
)

var (
	ErrAccountNotFound = errors.New("destination account not found")
	ErrAccountDisabled = errors.New("destination account disabled")
	ErrInterrupted     = errors.New("previous attempt was interrupted before its outcome was recorded")
)

type Opts struct {
	fx.In

	LC        fx.Lifecycle `optional:"true"`
	Config    *config.Config
	Logger    logger.Logger
	Clock     clockwork.Clock
	Posts     post.Repository
	Accounts  account.Directory
	Providers *provider.Registry
	Notifier  notifier.Notifier
}

type Dispatcher struct {
	posts     post.Repository
	accounts  account.Directory
	providers *provider.Registry
	notifier  notifier.Notifier
	clock     clockwork.Clock
	logger    logger.Logger

	policy  retry.Policy
	timeout time.Duration
	pool    *ants.Pool
}

func New(opts Opts) (*Dispatcher, error) {
	log := opts.Logger.WithComponent("Dispatcher")

	workers := opts.Config.Dispatch.Workers
	if workers <= 0 {
		workers = 16
	}
	pool, err := ants.NewPool(workers,
		ants.WithPreAlloc(true),
		ants.WithPanicHandler(func(p any) {
			log.Error("Worker panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch pool: %w", err)
	}

	d := &Dispatcher{
		posts:     opts.Posts,
		accounts:  opts.Accounts,
		providers: opts.Providers,
		notifier:  opts.Notifier,
		clock:     opts.Clock,
		logger:    log,
		policy: retry.Policy{
			MaxAttempts: opts.Config.Dispatch.MaxAttempts,
			Base:        opts.Config.Dispatch.BackoffBase,
			Factor:      opts.Config.Dispatch.BackoffFactor,
			Max:         opts.Config.Dispatch.BackoffMax,
		},
		timeout: opts.Config.Dispatch.ProviderTimeout,
		pool:    pool,
	}
	if d.notifier == nil {
		d.notifier = notifier.Nop{}
	}

	if opts.LC != nil {
		opts.LC.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return d.Close(ctx)
			},
		})
	}
	return d, nil
}

// Close waits for running attempts, bounded by ctx, and releases the pool.
func (d *Dispatcher) Close(ctx context.Context) error {
	timeout := time.Minute
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := d.pool.ReleaseTimeout(timeout); err != nil {
		d.logger.Warn("Dispatch pool did not drain before shutdown", "error", err)
		return err
	}
	return nil
}

// Dispatch attempts every due target of a post the caller has claimed with
// claimToken, then releases the claim and returns the post's new stored status.
func (d *Dispatcher) Dispatch(ctx context.Context, postID, claimToken string) (domain.PostStatus, error) {
	log := d.logger.With("post_id", postID)

	p, err := d.posts.GetPost(ctx, postID)
	if err != nil {
		return "", d.release(ctx, log, postID, claimToken, err)
	}
	if p.Status != domain.PostStatusDispatching || p.ClaimToken != claimToken {
		return "", apperrors.InvalidState("post %s is %s and not held by this claim", postID, p.Status)
	}
	targets, err := d.posts.ListTargets(ctx, postID)
	if err != nil {
		return "", d.release(ctx, log, postID, claimToken, err)
	}

	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.AccountID)
	}
	accounts, err := d.accounts.GetAccounts(ctx, ids)
	if err != nil {
		return "", d.release(ctx, log, postID, claimToken, fmt.Errorf("failed to resolve accounts: %w", err))
	}

	now := d.clock.Now()
	var wg sync.WaitGroup
	for _, t := range targets {
		if !t.Due(now) {
			continue
		}
		target := t
		acc, found := accounts[target.AccountID]

		wg.Add(1)
		err := d.pool.Submit(func() {
			defer wg.Done()
			d.attempt(ctx, p, target, acc, found)
		})
		if err != nil {
			wg.Done()
			log.Error("Failed to submit target to dispatch pool", "account_id", target.AccountID, "error", err)
		}
	}
	wg.Wait()

	// Outcomes already happened at the provider; keep recording them even if
	// the caller is shutting down.
	storeCtx := context.WithoutCancel(ctx)
	status, err := d.posts.FinishDispatch(storeCtx, postID, claimToken, d.clock.Now())
	if err != nil {
		if apperrors.IsInvalidState(err) {
			log.Error("Claim lost during dispatch", "error", err)
		}
		return "", err
	}
	log.Info("Dispatch pass finished", "status", status)

	if status == domain.PostStatusPartial || status == domain.PostStatusFailed {
		d.notify(storeCtx, *p, status)
	}
	return status, nil
}

// release gives the claim back when dispatch fails before any target is
// attempted, so the next pass retries instead of waiting out the stuck threshold.
func (d *Dispatcher) release(ctx context.Context, log logger.Logger, postID, claimToken string, cause error) error {
	if err := d.posts.ReleaseClaim(context.WithoutCancel(ctx), postID, claimToken, d.clock.Now()); err != nil {
		log.Error("Failed to release claim", "error", err)
	}
	return cause
}

func (d *Dispatcher) attempt(ctx context.Context, p *domain.Post, t domain.DeliveryTarget, acc domain.Account, found bool) {
	log := d.logger.With("post_id", p.ID, "account_id", t.AccountID, "platform", t.Platform)
	storeCtx := context.WithoutCancel(ctx)

	// A target left attempting by a crashed worker may or may not have reached
	// the platform. Retry it unless it has already used its budget.
	if t.Status == domain.TargetStatusAttempting && d.policy.Exhausted(t.Attempts) {
		d.record(storeCtx, log, p.ID, t.AccountID, domain.TargetOutcome{
			Kind:      domain.OutcomeFailed,
			ErrorKind: domain.ErrorKindTransient,
			Error:     ErrInterrupted.Error(),
			At:        d.clock.Now(),
		})
		return
	}

	if err := ctx.Err(); err != nil {
		log.Info("Skipping target due to context cancellation")
		return
	}

	current, err := d.posts.MarkAttempting(storeCtx, p.ID, t.AccountID, d.clock.Now())
	if err != nil {
		if apperrors.IsInvalidState(err) {
			log.Error("Target can not be attempted", "error", err)
		} else {
			log.Error("Failed to mark target attempting", "error", err)
		}
		return
	}

	receipt, err := d.publish(ctx, p.Content, t.Platform, acc, found)
	now := d.clock.Now()

	var outcome domain.TargetOutcome
	if err == nil {
		outcome = domain.TargetOutcome{Kind: domain.OutcomeSent, ExternalID: receipt.ExternalID, At: now}
		log.Info("Target sent", "external_id", receipt.ExternalID, "attempt", current.Attempts)
	} else {
		outcome = d.decide(current.Attempts, err, now)
		log.Warn("Target attempt failed",
			"attempt", current.Attempts,
			"kind", outcome.ErrorKind,
			"outcome", outcome.Kind,
			"error", err)
	}
	d.record(storeCtx, log, p.ID, t.AccountID, outcome)
}

func (d *Dispatcher) publish(ctx context.Context, content domain.Content, platform string, acc domain.Account, found bool) (receipt provider.Receipt, err error) {
	if !found {
		return receipt, provider.Permanent(ErrAccountNotFound)
	}
	if !acc.Enabled {
		return receipt, provider.Permanent(ErrAccountDisabled)
	}
	if platform == "" {
		platform = acc.Platform
	}
	prov, err := d.providers.Get(platform)
	if err != nil {
		return receipt, err
	}

	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// The provider runs on its own goroutine so a call that ignores ctx can not
	// outlive the deadline. A result arriving after it is discarded.
	done := make(chan publishResult, 1)
	go func() {
		var res publishResult
		defer func() {
			if r := recover(); r != nil {
				res = publishResult{err: provider.Transient(fmt.Errorf("provider %s panicked: %v", platform, r))}
			}
			done <- res
		}()
		res.receipt, res.err = prov.Publish(callCtx, acc, content)
	}()

	select {
	case res := <-done:
		return res.receipt, res.err
	case <-callCtx.Done():
		return receipt, provider.Transient(fmt.Errorf("provider %s did not answer: %w", platform, callCtx.Err()))
	}
}

type publishResult struct {
	receipt provider.Receipt
	err     error
}

// decide turns a failed attempt into the next target state.
func (d *Dispatcher) decide(attempts int, err error, now time.Time) domain.TargetOutcome {
	c := provider.Classify(err)
	out := domain.TargetOutcome{
		Kind:      domain.OutcomeFailed,
		ErrorKind: c.Kind,
		Error:     c.Reason,
		At:        now,
	}
	if c.Kind == domain.ErrorKindPermanent || d.policy.Exhausted(attempts) {
		return out
	}
	next := d.policy.NextAttemptAt(now, attempts, c.RetryAfter)
	out.Kind = domain.OutcomeRetrying
	out.NextAttemptAt = &next
	return out
}

func (d *Dispatcher) record(ctx context.Context, log logger.Logger, postID, accountID string, outcome domain.TargetOutcome) {
	if err := d.posts.RecordTargetOutcome(ctx, postID, accountID, outcome); err != nil {
		if apperrors.IsInvalidState(err) {
			log.Error("Rejected target outcome", "outcome", outcome.Kind, "error", err)
			return
		}
		log.Error("Failed to record target outcome", "outcome", outcome.Kind, "error", err)
	}
}

func (d *Dispatcher) notify(ctx context.Context, p domain.Post, status domain.PostStatus) {
	targets, err := d.posts.ListTargets(ctx, p.ID)
	if err != nil {
		d.logger.Error("Failed to load targets for alert", "post_id", p.ID, "error", err)
		return
	}
	p.Status = status
	if err := d.notifier.PostFinished(ctx, p, status, targets); err != nil {
		d.logger.Error("Failed to notify about finished post", "post_id", p.ID, "error", err)
	}
}
