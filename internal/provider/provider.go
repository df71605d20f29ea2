// Package provider defines the uniform publish capability every destination
// platform implements, and how its failures are classified for retry.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orgball2608/crosspost/internal/domain"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
)

//go:generate go run go.uber.org/mock/mockgen -source=provider.go -destination=mocks/mock.go

// Receipt is what a platform hands back for a published post.
type Receipt struct {
	ExternalID string
	URL        string
}

// Provider publishes content to one platform. Implementations must honour ctx
// cancellation and return errors wrapped with Permanent, Transient or
// RetryAfter when they know the nature of a failure.
type Provider interface {
	Platform() string
	Publish(ctx context.Context, account domain.Account, content domain.Content) (Receipt, error)
}

// Permanent marks err as not worth retrying (bad credentials, rejected content).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Transient marks err as retryable (timeouts, 5xx, rate limits).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// RetryAfter marks err as transient with a platform supplied minimum delay.
func RetryAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	if after < 0 {
		after = 0
	}
	return retryAfterError{err: err, after: after}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return fmt.Sprintf("permanent: %v", e.err) }
func (e permanentError) Unwrap() []error {
	return []error{e.err, apperrors.ErrPermanentDelivery}
}

type transientError struct{ err error }

func (e transientError) Error() string { return fmt.Sprintf("transient: %v", e.err) }
func (e transientError) Unwrap() []error {
	return []error{e.err, apperrors.ErrTransientDelivery}
}

type retryAfterError struct {
	err   error
	after time.Duration
}

func (e retryAfterError) Error() string { return fmt.Sprintf("retry-after(%s): %v", e.after, e.err) }
func (e retryAfterError) Unwrap() []error {
	return []error{e.err, apperrors.ErrTransientDelivery}
}
func (e retryAfterError) RetryAfter() time.Duration { return e.after }

// Outcome is the classification of one Publish error.
type Outcome struct {
	Kind       domain.ErrorKind
	Reason     string
	RetryAfter time.Duration
}

// Classify decides how the dispatcher treats a Publish error. Anything not
// explicitly marked permanent is transient, including deadline overruns.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{}
	}
	out := Outcome{Kind: domain.ErrorKindTransient, Reason: err.Error()}

	var pe permanentError
	if errors.As(err, &pe) {
		out.Kind = domain.ErrorKindPermanent
		return out
	}
	var ra retryAfterError
	if errors.As(err, &ra) {
		out.RetryAfter = ra.after
	}
	return out
}
