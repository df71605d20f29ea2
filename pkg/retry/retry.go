package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/orgball2608/crosspost/pkg/logger"
)

type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      1.5,
	}
}

// Do runs operation in-process until it succeeds or the retries are spent.
// Only for startup work such as pinging the database; delivery retries are
// scheduled through Policy instead.
func Do(ctx context.Context, log logger.Logger, operationName string, operation func() error, cfg Config) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.Multiplier = cfg.Multiplier
	bo.Reset()

	retryable := backoff.WithMaxRetries(bo, cfg.MaxRetries)
	retryableWithContext := backoff.WithContext(retryable, ctx)

	notify := func(err error, t time.Duration) {
		log.Warn(
			"Operation failed, retrying...",
			"operation", operationName,
			"error", err,
			"next_attempt_in", t.Round(time.Millisecond).String(),
		)
	}

	return backoff.RetryNotify(operation, retryableWithContext, notify)
}

// Policy is the delivery retry budget for a single target.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Factor      float64
	Max         time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Base:        30 * time.Second,
		Factor:      2,
		Max:         30 * time.Minute,
	}
}

// Exhausted reports whether a target with the given attempt count may not be tried again.
func (p Policy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}

// Delay returns the wait before the attempt following attempt number `attempt`
// (1-based): Base * Factor^(attempt-1), capped at Max. No jitter, so the
// schedule is reproducible.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     p.Base,
		RandomizationFactor: 0,
		Multiplier:          p.Factor,
		MaxInterval:         p.Max,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	bo.Reset()

	d := bo.NextBackOff()
	for i := 1; i < attempt; i++ {
		d = bo.NextBackOff()
		if d >= p.Max {
			return p.Max
		}
	}
	return d
}

// NextAttemptAt applies Delay, using hint as a floor (e.g. a provider Retry-After).
// Max caps only the computed backoff; a longer hint is kept as is.
func (p Policy) NextAttemptAt(now time.Time, attempt int, hint time.Duration) time.Time {
	d := p.Delay(attempt)
	if hint > d {
		d = hint
	}
	return now.Add(d)
}
