package domain

import "time"

// AggregateStatus is the post-level status shown to users. It is derived from
// the delivery targets and never stored as the source of truth.
type AggregateStatus string

const (
	AggregateDraft      AggregateStatus = "draft"
	AggregateScheduled  AggregateStatus = "scheduled"
	AggregatePublishing AggregateStatus = "publishing"
	AggregatePublished  AggregateStatus = "published"
	AggregatePartial    AggregateStatus = "partial"
	AggregateFailed     AggregateStatus = "failed"
	AggregateCancelled  AggregateStatus = "cancelled"
)

// Aggregate maps a stored status onto the user-facing one.
func (s PostStatus) Aggregate() AggregateStatus {
	switch s {
	case PostStatusDraft:
		return AggregateDraft
	case PostStatusScheduled:
		return AggregateScheduled
	case PostStatusQueued, PostStatusDispatching, PostStatusRetrying:
		return AggregatePublishing
	case PostStatusPublished:
		return AggregatePublished
	case PostStatusPartial:
		return AggregatePartial
	case PostStatusFailed:
		return AggregateFailed
	case PostStatusCancelled:
		return AggregateCancelled
	}
	return AggregateStatus(s)
}

// StoredStatuses is the inverse of Aggregate, used to filter listings.
func (a AggregateStatus) StoredStatuses() []PostStatus {
	switch a {
	case AggregateDraft:
		return []PostStatus{PostStatusDraft}
	case AggregateScheduled:
		return []PostStatus{PostStatusScheduled}
	case AggregatePublishing:
		return []PostStatus{PostStatusQueued, PostStatusDispatching, PostStatusRetrying}
	case AggregatePublished:
		return []PostStatus{PostStatusPublished}
	case AggregatePartial:
		return []PostStatus{PostStatusPartial}
	case AggregateFailed:
		return []PostStatus{PostStatusFailed}
	case AggregateCancelled:
		return []PostStatus{PostStatusCancelled}
	}
	return nil
}

func ParseAggregateStatus(s string) (AggregateStatus, bool) {
	a := AggregateStatus(s)
	return a, a.StoredStatuses() != nil
}

// TerminalStatus recomputes the terminal post status from its targets. ok is
// false while any target can still change.
func TerminalStatus(targets []DeliveryTarget) (status PostStatus, ok bool) {
	if len(targets) == 0 {
		return "", false
	}
	var sent, failed, cancelled int
	for _, t := range targets {
		switch t.Status {
		case TargetStatusSent:
			sent++
		case TargetStatusFailed:
			failed++
		case TargetStatusCancelled:
			cancelled++
		default:
			return "", false
		}
	}
	switch {
	case cancelled == len(targets):
		return PostStatusCancelled, true
	case failed == 0:
		return PostStatusPublished, true
	case sent == 0:
		return PostStatusFailed, true
	default:
		return PostStatusPartial, true
	}
}

// Aggregate derives the user-facing status of a post from its live targets.
func Aggregate(post Post, targets []DeliveryTarget) AggregateStatus {
	if st, ok := TerminalStatus(targets); ok {
		return st.Aggregate()
	}
	if !post.Status.Cancellable() && post.Status != PostStatusCancelled {
		return AggregatePublishing
	}
	return post.Status.Aggregate()
}

// EarliestRetry returns the soonest NextAttemptAt among targets still waiting
// for another attempt.
func EarliestRetry(targets []DeliveryTarget, fallback time.Time) time.Time {
	var earliest *time.Time
	for i := range targets {
		t := targets[i]
		if t.Status.IsTerminal() {
			continue
		}
		if t.Status != TargetStatusRetrying || t.NextAttemptAt == nil {
			return fallback
		}
		if earliest == nil || t.NextAttemptAt.Before(*earliest) {
			earliest = t.NextAttemptAt
		}
	}
	if earliest == nil {
		return fallback
	}
	return *earliest
}
