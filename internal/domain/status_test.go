package domain

import (
	"testing"
	"time"
)

func targets(statuses ...TargetStatus) []DeliveryTarget {
	out := make([]DeliveryTarget, len(statuses))
	for i, s := range statuses {
		out[i] = DeliveryTarget{AccountID: string(rune('a' + i)), Status: s}
	}
	return out
}

func TestAggregate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		post    PostStatus
		targets []DeliveryTarget
		want    AggregateStatus
	}{
		{name: "draft", post: PostStatusDraft, targets: targets(TargetStatusPending), want: AggregateDraft},
		{name: "scheduled", post: PostStatusScheduled, targets: targets(TargetStatusPending, TargetStatusPending), want: AggregateScheduled},
		{name: "queued", post: PostStatusQueued, targets: targets(TargetStatusPending), want: AggregatePublishing},
		{name: "in flight", post: PostStatusDispatching, targets: targets(TargetStatusSent, TargetStatusAttempting), want: AggregatePublishing},
		{name: "failed target still waiting on another", post: PostStatusRetrying, targets: targets(TargetStatusFailed, TargetStatusRetrying), want: AggregatePublishing},
		{name: "all sent", post: PostStatusDispatching, targets: targets(TargetStatusSent, TargetStatusSent), want: AggregatePublished},
		{name: "mixed", post: PostStatusDispatching, targets: targets(TargetStatusSent, TargetStatusFailed), want: AggregatePartial},
		{name: "all failed", post: PostStatusDispatching, targets: targets(TargetStatusFailed, TargetStatusFailed), want: AggregateFailed},
		{name: "cancelled", post: PostStatusCancelled, targets: targets(TargetStatusCancelled), want: AggregateCancelled},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Aggregate(Post{Status: tt.post}, tt.targets)
			if got != tt.want {
				t.Fatalf("Aggregate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStoredStatusesRoundTrip(t *testing.T) {
	t.Parallel()
	all := []PostStatus{
		PostStatusDraft, PostStatusScheduled, PostStatusQueued, PostStatusDispatching,
		PostStatusRetrying, PostStatusPublished, PostStatusPartial, PostStatusFailed, PostStatusCancelled,
	}
	for _, s := range all {
		found := false
		for _, back := range s.Aggregate().StoredStatuses() {
			if back == s {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s not reachable from its aggregate %s", s, s.Aggregate())
		}
	}
	if _, ok := ParseAggregateStatus("bogus"); ok {
		t.Fatal("bogus status accepted")
	}
}

func TestEarliestRetry(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b := now.Add(time.Minute), now.Add(30*time.Second)

	ts := []DeliveryTarget{
		{Status: TargetStatusSent},
		{Status: TargetStatusRetrying, NextAttemptAt: &a},
		{Status: TargetStatusRetrying, NextAttemptAt: &b},
	}
	if got := EarliestRetry(ts, now); !got.Equal(b) {
		t.Fatalf("EarliestRetry = %v, want %v", got, b)
	}

	ts = append(ts, DeliveryTarget{Status: TargetStatusPending})
	if got := EarliestRetry(ts, now); !got.Equal(now) {
		t.Fatalf("pending target must fall back to now, got %v", got)
	}
}

func TestTargetDue(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Second)
	if !(DeliveryTarget{Status: TargetStatusPending}).Due(now) {
		t.Fatal("pending must be due")
	}
	if (DeliveryTarget{Status: TargetStatusRetrying, NextAttemptAt: &later}).Due(now) {
		t.Fatal("retrying before its time must not be due")
	}
	if !(DeliveryTarget{Status: TargetStatusRetrying, NextAttemptAt: &now}).Due(now) {
		t.Fatal("retrying at its time must be due")
	}
	if (DeliveryTarget{Status: TargetStatusSent}).Due(now) {
		t.Fatal("sent must never be due")
	}
}
