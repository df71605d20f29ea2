package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/orgball2608/crosspost/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=mocks/mock.go

// Notifier tells operators about posts that finished without reaching every
// destination.
type Notifier interface {
	PostFinished(ctx context.Context, post domain.Post, status domain.PostStatus, targets []domain.DeliveryTarget) error
}

// Level selects which terminal statuses produce an alert.
type Level string

const (
	LevelNone    Level = "none"
	LevelFailed  Level = "failed"
	LevelPartial Level = "partial"
)

func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelNone, LevelFailed, LevelPartial:
		return l, nil
	case "":
		return LevelPartial, nil
	default:
		return "", fmt.Errorf("unknown alert level %q", s)
	}
}

// Wants reports whether a post that ended in status should be reported.
func (l Level) Wants(status domain.PostStatus) bool {
	switch l {
	case LevelPartial:
		return status == domain.PostStatusPartial || status == domain.PostStatusFailed
	case LevelFailed:
		return status == domain.PostStatusFailed
	}
	return false
}

type Nop struct{}

var _ Notifier = Nop{}

func (Nop) PostFinished(context.Context, domain.Post, domain.PostStatus, []domain.DeliveryTarget) error {
	return nil
}
