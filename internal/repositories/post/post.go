package post

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/crosspost/internal/domain"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
)

var (
	ErrNotFound      = apperrors.WrapWithCode(apperrors.ErrNotFound, apperrors.CodeNotFound, "post not found")
	ErrAlreadyExists = errors.New("post already exists")
	// ErrNotClaimed means another worker owns the post or it is not due.
	ErrNotClaimed = errors.New("post not claimed")
)

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go

// Repository is the Post Record Store: the single source of truth for posts
// and their delivery targets.
type Repository interface {
	// CreatePost persists the post and one pending target per account in one transaction.
	CreatePost(ctx context.Context, post domain.Post, targets []domain.DeliveryTarget) error

	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListTargets(ctx context.Context, postID string) ([]domain.DeliveryTarget, error)
	ListTargetsForPosts(ctx context.Context, postIDs []string) (map[string][]domain.DeliveryTarget, error)

	// GetDuePosts returns ids of claimable posts due at now, plus dispatching
	// posts whose claim is older than stuckBefore.
	GetDuePosts(ctx context.Context, now, stuckBefore time.Time, limit int) ([]string, error)

	// ClaimPost atomically moves a due post to dispatching. It returns the claim
	// token, or ErrNotClaimed if someone else won.
	ClaimPost(ctx context.Context, id string, now, stuckBefore time.Time, owner string) (string, error)

	// MarkAttempting moves a target to attempting and counts the attempt.
	MarkAttempting(ctx context.Context, postID, accountID string, now time.Time) (*domain.DeliveryTarget, error)

	// RecordTargetOutcome applies an attempt result. A repeated success is a
	// no-op; any write that would change a sent target fails with ErrInvalidState.
	RecordTargetOutcome(ctx context.Context, postID, accountID string, outcome domain.TargetOutcome) error

	// FinishDispatch recomputes the post status from its targets and releases the claim.
	FinishDispatch(ctx context.Context, postID, claimToken string, now time.Time) (domain.PostStatus, error)

	// ReleaseClaim hands a claimed post back to the scheduler, due at now, when
	// dispatch could not start. Targets are left untouched.
	ReleaseClaim(ctx context.Context, postID, claimToken string, now time.Time) error

	CancelPost(ctx context.Context, id string, now time.Time) error
	ReschedulePost(ctx context.Context, id string, at, now time.Time) error

	ListByStatus(ctx context.Context, userID string, statuses []domain.PostStatus, limit, offset int) ([]domain.Post, error)
	ListUpcoming(ctx context.Context, userID string, limit int) ([]domain.Post, error)

	// PurgeCancelled deletes cancelled posts last touched before olderThan.
	PurgeCancelled(ctx context.Context, olderThan time.Time) (int64, error)
}
