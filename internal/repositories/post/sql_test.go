package post

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/storage"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"github.com/orgball2608/crosspost/pkg/logger"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *SQLRepository {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "posts.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db, logger.Nop())
}

func seed(t *testing.T, r *SQLRepository, id string, status domain.PostStatus, due *time.Time, accounts ...string) {
	t.Helper()
	p := domain.Post{
		ID:        id,
		UserID:    "u1",
		Content:   domain.Content{Text: "hello", Media: []domain.MediaRef{{URL: "https://cdn/x.png", Kind: "image"}}},
		Status:    status,
		DueAt:     due,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	if status == domain.PostStatusScheduled {
		p.ScheduledFor = due
	}
	var targets []domain.DeliveryTarget
	for _, a := range accounts {
		targets = append(targets, domain.DeliveryTarget{AccountID: a, Platform: "sandbox"})
	}
	if err := r.CreatePost(context.Background(), p, targets); err != nil {
		t.Fatalf("CreatePost(%s): %v", id, err)
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestCreateAndGet(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seed(t, r, "p1", domain.PostStatusQueued, ptr(t0), "a1", "a2", "a1")

	p, err := r.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if p.Status != domain.PostStatusQueued || p.Content.Text != "hello" || len(p.Content.Media) != 1 {
		t.Fatalf("unexpected post %+v", p)
	}
	if !p.DueAt.Equal(t0) {
		t.Fatalf("due_at = %v, want %v", p.DueAt, t0)
	}

	targets, err := r.ListTargets(ctx, "p1")
	if err != nil {
		t.Fatalf("ListTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("duplicate account must collapse, got %d targets", len(targets))
	}
	for _, tg := range targets {
		if tg.Status != domain.TargetStatusPending || tg.Attempts != 0 {
			t.Fatalf("new target not pending: %+v", tg)
		}
	}

	if err := r.CreatePost(ctx, domain.Post{ID: "p1", UserID: "u1", Status: domain.PostStatusDraft, CreatedAt: t0, UpdatedAt: t0}, nil); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second create err = %v, want ErrAlreadyExists", err)
	}

	if _, err := r.GetPost(ctx, "missing"); !apperrors.IsNotFound(err) {
		t.Fatalf("missing post err = %v, want not found", err)
	}
}

func TestScheduledPostIsNotDueEarly(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	due := t0.Add(time.Hour)
	seed(t, r, "p1", domain.PostStatusScheduled, &due, "a1")
	seed(t, r, "draft", domain.PostStatusDraft, nil, "a1")

	ids, err := r.GetDuePosts(ctx, t0, t0.Add(-10*time.Minute), 10)
	if err != nil {
		t.Fatalf("GetDuePosts: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("nothing should be due yet, got %v", ids)
	}
	if _, err := r.ClaimPost(ctx, "p1", t0, t0.Add(-10*time.Minute), "node-a"); !errors.Is(err, ErrNotClaimed) {
		t.Fatalf("early claim err = %v, want ErrNotClaimed", err)
	}

	later := t0.Add(61 * time.Minute)
	ids, err = r.GetDuePosts(ctx, later, later.Add(-10*time.Minute), 10)
	if err != nil {
		t.Fatalf("GetDuePosts: %v", err)
	}
	if len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("due = %v, want [p1]", ids)
	}
}

func TestClaimIsExclusive(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seed(t, r, "p1", domain.PostStatusQueued, ptr(t0), "a1")

	const workers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		tokens []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := r.ClaimPost(ctx, "p1", t0, t0.Add(-10*time.Minute), "node")
			if err != nil {
				if !errors.Is(err, ErrNotClaimed) {
					t.Errorf("ClaimPost: %v", err)
				}
				return
			}
			mu.Lock()
			tokens = append(tokens, token)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(tokens) != 1 {
		t.Fatalf("claims = %d, want exactly 1", len(tokens))
	}
	p, _ := r.GetPost(ctx, "p1")
	if p.Status != domain.PostStatusDispatching || p.ClaimToken != tokens[0] {
		t.Fatalf("post after claim: %+v", p)
	}
}

func TestStuckClaimIsRecovered(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seed(t, r, "p1", domain.PostStatusQueued, ptr(t0), "a1")

	first, err := r.ClaimPost(ctx, "p1", t0, t0.Add(-10*time.Minute), "crashed")
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}

	soon := t0.Add(time.Minute)
	if _, err := r.ClaimPost(ctx, "p1", soon, soon.Add(-10*time.Minute), "other"); !errors.Is(err, ErrNotClaimed) {
		t.Fatalf("fresh claim must not be stolen, err = %v", err)
	}

	late := t0.Add(11 * time.Minute)
	second, err := r.ClaimPost(ctx, "p1", late, late.Add(-10*time.Minute), "other")
	if err != nil {
		t.Fatalf("stale claim not recovered: %v", err)
	}
	if second == first {
		t.Fatal("recovered claim reused the old token")
	}

	if _, err := r.FinishDispatch(ctx, "p1", first, late); !apperrors.IsInvalidState(err) {
		t.Fatalf("finish with stale token err = %v, want invalid state", err)
	}
}

func TestOutcomesAreIdempotent(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seed(t, r, "p1", domain.PostStatusQueued, ptr(t0), "a1", "a2")

	token, err := r.ClaimPost(ctx, "p1", t0, t0.Add(-10*time.Minute), "node")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	tg, err := r.MarkAttempting(ctx, "p1", "a1", t0)
	if err != nil {
		t.Fatalf("MarkAttempting: %v", err)
	}
	if tg.Attempts != 1 || tg.Status != domain.TargetStatusAttempting {
		t.Fatalf("attempting target: %+v", tg)
	}

	sent := domain.TargetOutcome{Kind: domain.OutcomeSent, ExternalID: "ext-1", At: t0}
	if err := r.RecordTargetOutcome(ctx, "p1", "a1", sent); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	if err := r.RecordTargetOutcome(ctx, "p1", "a1", sent); err != nil {
		t.Fatalf("repeated success must be a no-op, got %v", err)
	}

	failed := domain.TargetOutcome{Kind: domain.OutcomeFailed, ErrorKind: domain.ErrorKindPermanent, Error: "boom", At: t0}
	if err := r.RecordTargetOutcome(ctx, "p1", "a1", failed); !apperrors.IsInvalidState(err) {
		t.Fatalf("failure after success err = %v, want invalid state", err)
	}
	if _, err := r.MarkAttempting(ctx, "p1", "a1", t0); !apperrors.IsInvalidState(err) {
		t.Fatalf("attempting a sent target err = %v, want invalid state", err)
	}

	if _, err := r.MarkAttempting(ctx, "p1", "a2", t0); err != nil {
		t.Fatalf("MarkAttempting a2: %v", err)
	}
	if err := r.RecordTargetOutcome(ctx, "p1", "a2", failed); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := r.RecordTargetOutcome(ctx, "p1", "a2", failed); err != nil {
		t.Fatalf("repeated failure must be a no-op, got %v", err)
	}
	other := failed
	other.Error = "different cause"
	if err := r.RecordTargetOutcome(ctx, "p1", "a2", other); !apperrors.IsInvalidState(err) {
		t.Fatalf("different failure on a failed target err = %v, want invalid state", err)
	}
	other = failed
	other.ErrorKind = domain.ErrorKindTransient
	if err := r.RecordTargetOutcome(ctx, "p1", "a2", other); !apperrors.IsInvalidState(err) {
		t.Fatalf("failure with another kind err = %v, want invalid state", err)
	}

	status, err := r.FinishDispatch(ctx, "p1", token, t0)
	if err != nil {
		t.Fatalf("FinishDispatch: %v", err)
	}
	if status != domain.PostStatusPartial {
		t.Fatalf("status = %s, want partial", status)
	}

	targets, _ := r.ListTargets(ctx, "p1")
	for _, tg := range targets {
		if tg.AccountID == "a1" && (tg.Status != domain.TargetStatusSent || tg.ExternalID != "ext-1" || tg.SentAt == nil) {
			t.Fatalf("a1 lost its success: %+v", tg)
		}
	}
}

func TestReleaseClaimReturnsPostToScheduler(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seed(t, r, "p1", domain.PostStatusQueued, ptr(t0), "a1")

	token, err := r.ClaimPost(ctx, "p1", t0, t0.Add(-10*time.Minute), "node")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := r.ReleaseClaim(ctx, "p1", "stale", t0); !apperrors.IsInvalidState(err) {
		t.Fatalf("release with a stale token err = %v, want invalid state", err)
	}

	now := t0.Add(time.Second)
	if err := r.ReleaseClaim(ctx, "p1", token, now); err != nil {
		t.Fatalf("ReleaseClaim: %v", err)
	}
	p, err := r.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if p.Status != domain.PostStatusRetrying || p.ClaimToken != "" || p.ClaimedAt != nil {
		t.Fatalf("released post: %+v", p)
	}
	if p.DueAt == nil || !p.DueAt.Equal(now) {
		t.Fatalf("due_at = %v, want %v", p.DueAt, now)
	}
	if err := r.ReleaseClaim(ctx, "p1", token, now); !apperrors.IsInvalidState(err) {
		t.Fatalf("second release err = %v, want invalid state", err)
	}

	if _, err := r.ClaimPost(ctx, "p1", now, now.Add(-10*time.Minute), "node"); err != nil {
		t.Fatalf("released post must be claimable again: %v", err)
	}
}

func TestFinishDispatchSchedulesRetry(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	seed(t, r, "p1", domain.PostStatusQueued, ptr(t0), "a1")

	token, err := r.ClaimPost(ctx, "p1", t0, t0.Add(-10*time.Minute), "node")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := r.MarkAttempting(ctx, "p1", "a1", t0); err != nil {
		t.Fatalf("MarkAttempting: %v", err)
	}
	next := t0.Add(30 * time.Second)
	err = r.RecordTargetOutcome(ctx, "p1", "a1", domain.TargetOutcome{
		Kind: domain.OutcomeRetrying, ErrorKind: domain.ErrorKindTransient, Error: "timeout", At: t0, NextAttemptAt: &next,
	})
	if err != nil {
		t.Fatalf("record retrying: %v", err)
	}

	status, err := r.FinishDispatch(ctx, "p1", token, t0)
	if err != nil {
		t.Fatalf("FinishDispatch: %v", err)
	}
	if status != domain.PostStatusRetrying {
		t.Fatalf("status = %s, want retrying", status)
	}
	p, _ := r.GetPost(ctx, "p1")
	if p.DueAt == nil || !p.DueAt.Equal(next) || p.ClaimToken != "" {
		t.Fatalf("post after retry finish: %+v", p)
	}

	ids, _ := r.GetDuePosts(ctx, t0.Add(10*time.Second), t0.Add(-10*time.Minute), 10)
	if len(ids) != 0 {
		t.Fatalf("retry must wait for its backoff, due = %v", ids)
	}
	ids, _ = r.GetDuePosts(ctx, next, next.Add(-10*time.Minute), 10)
	if len(ids) != 1 {
		t.Fatalf("retry not due at its time, due = %v", ids)
	}
}

func TestCancelAndReschedule(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	due := t0.Add(time.Hour)
	seed(t, r, "p1", domain.PostStatusScheduled, &due, "a1")
	seed(t, r, "p2", domain.PostStatusQueued, ptr(t0), "a1")

	at := t0.Add(2 * time.Hour)
	if err := r.ReschedulePost(ctx, "p1", at, t0); err != nil {
		t.Fatalf("ReschedulePost: %v", err)
	}
	p, _ := r.GetPost(ctx, "p1")
	if !p.ScheduledFor.Equal(at) || !p.DueAt.Equal(at) {
		t.Fatalf("reschedule not applied: %+v", p)
	}

	if err := r.CancelPost(ctx, "p1", t0); err != nil {
		t.Fatalf("CancelPost: %v", err)
	}
	targets, _ := r.ListTargets(ctx, "p1")
	if targets[0].Status != domain.TargetStatusCancelled {
		t.Fatalf("target not cancelled: %+v", targets[0])
	}
	if err := r.CancelPost(ctx, "p1", t0); !apperrors.IsInvalidState(err) {
		t.Fatalf("double cancel err = %v, want invalid state", err)
	}
	if err := r.ReschedulePost(ctx, "p1", at, t0); !apperrors.IsInvalidState(err) {
		t.Fatalf("reschedule after cancel err = %v, want invalid state", err)
	}

	if _, err := r.ClaimPost(ctx, "p2", t0, t0.Add(-10*time.Minute), "node"); err != nil {
		t.Fatalf("claim p2: %v", err)
	}
	if err := r.CancelPost(ctx, "p2", t0); !apperrors.IsInvalidState(err) {
		t.Fatalf("cancel while dispatching err = %v, want invalid state", err)
	}
	if err := r.CancelPost(ctx, "missing", t0); !apperrors.IsNotFound(err) {
		t.Fatalf("cancel missing err = %v, want not found", err)
	}
}

func TestListingsAndPurge(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	soon, later := t0.Add(time.Hour), t0.Add(2*time.Hour)
	seed(t, r, "late", domain.PostStatusScheduled, &later, "a1")
	seed(t, r, "soon", domain.PostStatusScheduled, &soon, "a1")
	seed(t, r, "draft", domain.PostStatusDraft, nil, "a1")

	upcoming, err := r.ListUpcoming(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(upcoming) != 2 || upcoming[0].ID != "soon" || upcoming[1].ID != "late" {
		t.Fatalf("upcoming order wrong: %+v", upcoming)
	}

	drafts, err := r.ListByStatus(ctx, "u1", []domain.PostStatus{domain.PostStatusDraft}, 10, 0)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != "draft" {
		t.Fatalf("drafts = %+v", drafts)
	}
	if other, _ := r.ListByStatus(ctx, "someone-else", nil, 10, 0); len(other) != 0 {
		t.Fatalf("listing leaked another user's posts: %+v", other)
	}

	if err := r.CancelPost(ctx, "draft", t0); err != nil {
		t.Fatalf("CancelPost: %v", err)
	}
	n, err := r.PurgeCancelled(ctx, t0)
	if err != nil || n != 0 {
		t.Fatalf("purge before retention = %d, %v", n, err)
	}
	n, err = r.PurgeCancelled(ctx, t0.Add(time.Second))
	if err != nil || n != 1 {
		t.Fatalf("purge after retention = %d, %v", n, err)
	}
	if _, err := r.GetPost(ctx, "draft"); !apperrors.IsNotFound(err) {
		t.Fatalf("purged post still readable: %v", err)
	}
	if targets, _ := r.ListTargets(ctx, "draft"); len(targets) != 0 {
		t.Fatalf("purged post kept targets: %+v", targets)
	}
}
