package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/publishing"
	"github.com/orgball2608/crosspost/internal/query"
	"github.com/orgball2608/crosspost/internal/ratelimit"
	"github.com/orgball2608/crosspost/internal/repositories/post"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
	"github.com/orgball2608/crosspost/pkg/logger"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakePosts struct {
	created    *publishing.CreateRequest
	createErr  error
	cancelErr  error
	reschedule time.Time
}

func (f *fakePosts) CreatePost(_ context.Context, req publishing.CreateRequest) (*domain.Post, []domain.DeliveryTarget, error) {
	f.created = &req
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	p := &domain.Post{ID: "p1", UserID: req.UserID, Content: req.Content, Status: domain.PostStatusQueued, CreatedAt: t0, UpdatedAt: t0}
	targets := make([]domain.DeliveryTarget, 0, len(req.AccountIDs))
	for _, id := range req.AccountIDs {
		targets = append(targets, domain.DeliveryTarget{PostID: "p1", AccountID: id, Platform: "sandbox", Status: domain.TargetStatusPending})
	}
	return p, targets, nil
}

func (f *fakePosts) Cancel(context.Context, string, string) error { return f.cancelErr }

func (f *fakePosts) Reschedule(_ context.Context, userID, postID string, at time.Time) (*domain.Post, error) {
	f.reschedule = at
	return &domain.Post{ID: postID, UserID: userID, Status: domain.PostStatusScheduled, ScheduledFor: &at}, nil
}

type fakeQueries struct {
	status string
	views  []query.PostView
	err    error
}

func (f *fakeQueries) Upcoming(context.Context, string, int) ([]query.PostView, error) {
	return f.views, f.err
}

func (f *fakeQueries) History(_ context.Context, _ string, status string, _, _ int) ([]query.PostView, error) {
	f.status = status
	return f.views, f.err
}

func (f *fakeQueries) Detail(_ context.Context, userID, postID string) (*query.PostView, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.views {
		if v.Post.ID == postID && v.Post.UserID == userID {
			return &v, nil
		}
	}
	return nil, post.ErrNotFound
}

func newTestRouter(posts *fakePosts, queries *fakeQueries, limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if limiter == nil {
		limiter = ratelimit.NewInMemoryLimiter(0, 0, 0)
	}
	return NewRouter(posts, queries, limiter, logger.Nop())
}

func do(r http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&fakePosts{}, &fakeQueries{}, nil)
	if w := do(r, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", w.Code, w.Body.String())
	}
}

func TestCreatePost(t *testing.T) {
	posts := &fakePosts{}
	r := newTestRouter(posts, &fakeQueries{}, nil)

	w := do(r, http.MethodPost, "/v1/posts", "u1",
		`{"content":{"text":"hello","media":[{"url":"https://cdn/x.png","kind":"image"}]},"account_ids":["x","y"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp postResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "p1" || resp.Status != string(domain.AggregatePublishing) || len(resp.Targets) != 2 {
		t.Fatalf("response = %+v", resp)
	}
	if posts.created.UserID != "u1" || len(posts.created.Content.Media) != 1 || posts.created.ScheduledFor != nil {
		t.Fatalf("request passed on as %+v", posts.created)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{name: "validation", err: apperrors.Validation("content is empty"), want: http.StatusBadRequest, code: apperrors.CodeValidation},
		{name: "not found", err: post.ErrNotFound, want: http.StatusNotFound, code: apperrors.CodeNotFound},
		{name: "invalid state", err: apperrors.InvalidState("post is dispatching"), want: http.StatusConflict, code: apperrors.CodeInvalidState},
		{name: "unexpected", err: errors.New("disk full"), want: http.StatusInternalServerError, code: "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakePosts{createErr: tt.err, cancelErr: tt.err}, &fakeQueries{}, nil)

			w := do(r, http.MethodPost, "/v1/posts", "u1", `{"content":{"text":"hi"},"account_ids":["x"]}`)
			if w.Code != tt.want {
				t.Fatalf("create status = %d, want %d", w.Code, tt.want)
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["code"] != tt.code {
				t.Fatalf("code = %q, want %q", body["code"], tt.code)
			}

			if w := do(r, http.MethodDelete, "/v1/posts/p1", "u1", ""); w.Code != tt.want {
				t.Fatalf("cancel status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestCancelReturnsNoContent(t *testing.T) {
	r := newTestRouter(&fakePosts{}, &fakeQueries{}, nil)
	if w := do(r, http.MethodDelete, "/v1/posts/p1", "u1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestReschedule(t *testing.T) {
	at := t0.Add(2 * time.Hour)
	posts := &fakePosts{}
	queries := &fakeQueries{views: []query.PostView{{
		Post:   domain.Post{ID: "p1", UserID: "u1", Status: domain.PostStatusScheduled, ScheduledFor: &at},
		Status: domain.AggregateScheduled,
	}}}
	r := newTestRouter(posts, queries, nil)

	if w := do(r, http.MethodPut, "/v1/posts/p1/schedule", "u1", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing scheduled_for status = %d", w.Code)
	}

	w := do(r, http.MethodPut, "/v1/posts/p1/schedule", "u1", `{"scheduled_for":"2026-03-01T14:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !posts.reschedule.Equal(at) {
		t.Fatalf("rescheduled to %s, want %s", posts.reschedule, at)
	}
}

func TestQueries(t *testing.T) {
	queries := &fakeQueries{views: []query.PostView{{
		Post:    domain.Post{ID: "p1", UserID: "u1", Status: domain.PostStatusPartial},
		Status:  domain.AggregatePartial,
		Targets: []domain.DeliveryTarget{{AccountID: "x", Status: domain.TargetStatusFailed, LastError: "rejected", LastErrorKind: domain.ErrorKindPermanent}},
	}}}
	r := newTestRouter(&fakePosts{}, queries, nil)

	w := do(r, http.MethodGet, "/v1/posts?status=partial&limit=10", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	if queries.status != "partial" {
		t.Fatalf("status filter = %q", queries.status)
	}
	var list listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Posts) != 1 || list.Posts[0].Targets[0].ErrorKind != "permanent" {
		t.Fatalf("history = %+v", list)
	}

	if w := do(r, http.MethodGet, "/v1/posts/upcoming", "u1", ""); w.Code != http.StatusOK {
		t.Fatalf("upcoming status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/v1/posts?limit=many", "u1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/v1/posts/p1", "u1", ""); w.Code != http.StatusOK {
		t.Fatalf("detail status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/v1/posts/p1", "u2", ""); w.Code != http.StatusNotFound {
		t.Fatalf("detail of another user's post = %d, want 404", w.Code)
	}
}

func TestUserHeaderAndRateLimit(t *testing.T) {
	r := newTestRouter(&fakePosts{}, &fakeQueries{}, ratelimit.NewInMemoryLimiter(1, time.Hour, 2))

	if w := do(r, http.MethodGet, "/v1/posts", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing user status = %d", w.Code)
	}
	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodGet, "/v1/posts", "u1", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, w.Code)
		}
	}
	if w := do(r, http.MethodGet, "/v1/posts", "u1", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit status = %d, want 429", w.Code)
	}
	if w := do(r, http.MethodGet, "/v1/posts", "u2", ""); w.Code != http.StatusOK {
		t.Fatalf("other user status = %d", w.Code)
	}
}
