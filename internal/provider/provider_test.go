package provider_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/provider"
	mock_provider "github.com/orgball2608/crosspost/internal/provider/mocks"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"go.uber.org/mock/gomock"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	base := errors.New("boom")

	tests := []struct {
		name       string
		err        error
		kind       domain.ErrorKind
		retryAfter time.Duration
	}{
		{name: "nil", err: nil, kind: domain.ErrorKindNone},
		{name: "unclassified", err: base, kind: domain.ErrorKindTransient},
		{name: "deadline", err: context.DeadlineExceeded, kind: domain.ErrorKindTransient},
		{name: "transient", err: provider.Transient(base), kind: domain.ErrorKindTransient},
		{name: "permanent", err: provider.Permanent(base), kind: domain.ErrorKindPermanent},
		{name: "wrapped permanent", err: fmt.Errorf("publish: %w", provider.Permanent(base)), kind: domain.ErrorKindPermanent},
		{name: "retry after", err: provider.RetryAfter(base, 2*time.Minute), kind: domain.ErrorKindTransient, retryAfter: 2 * time.Minute},
		{name: "negative retry after", err: provider.RetryAfter(base, -time.Second), kind: domain.ErrorKindTransient},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := provider.Classify(tt.err)
			if got.Kind != tt.kind || got.RetryAfter != tt.retryAfter {
				t.Fatalf("Classify = %+v, want kind %q retryAfter %s", got, tt.kind, tt.retryAfter)
			}
		})
	}
}

func TestClassifiedErrorsKeepTaxonomy(t *testing.T) {
	t.Parallel()
	base := errors.New("boom")

	if err := provider.Permanent(base); !errors.Is(err, base) || !errors.Is(err, apperrors.ErrPermanentDelivery) {
		t.Fatalf("permanent error lost its chain: %v", err)
	}
	if err := provider.RetryAfter(base, time.Second); !errors.Is(err, apperrors.ErrTransientDelivery) {
		t.Fatalf("retry-after error is not transient: %v", err)
	}
	if provider.Permanent(nil) != nil || provider.Transient(nil) != nil || provider.RetryAfter(nil, time.Second) != nil {
		t.Fatal("nil errors must stay nil")
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	p := mock_provider.NewMockProvider(ctrl)
	p.EXPECT().Platform().Return("Mastodon").AnyTimes()

	reg := provider.NewRegistry(p)
	got, err := reg.Get("mastodon")
	if err != nil || got != p {
		t.Fatalf("Get = %v, %v", got, err)
	}

	_, err = reg.Get("myspace")
	if provider.Classify(err).Kind != domain.ErrorKindPermanent {
		t.Fatalf("unknown platform must be permanent, got %v", err)
	}
	if ps := reg.Platforms(); len(ps) != 1 || ps[0] != "mastodon" {
		t.Fatalf("Platforms = %v", ps)
	}
}
