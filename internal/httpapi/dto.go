package httpapi

import (
	"time"

	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/query"
)

type createPostRequest struct {
	Content      domain.Content `json:"content"`
	AccountIDs   []string       `json:"account_ids"`
	ScheduledFor *time.Time     `json:"scheduled_for"`
	Draft        bool           `json:"draft"`
}

type rescheduleRequest struct {
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type targetResponse struct {
	AccountID     string     `json:"account_id"`
	Platform      string     `json:"platform"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"last_error,omitempty"`
	ErrorKind     string     `json:"error_kind,omitempty"`
	ExternalID    string     `json:"external_id,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
}

type postResponse struct {
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	Content      domain.Content   `json:"content"`
	ScheduledFor *time.Time       `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Targets      []targetResponse `json:"targets"`
}

type listResponse struct {
	Posts []postResponse `json:"posts"`
}

func newPostResponse(p domain.Post, status domain.AggregateStatus, targets []domain.DeliveryTarget) postResponse {
	out := postResponse{
		ID:           p.ID,
		Status:       string(status),
		Content:      p.Content,
		ScheduledFor: p.ScheduledFor,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Targets:      make([]targetResponse, 0, len(targets)),
	}
	for _, t := range targets {
		out.Targets = append(out.Targets, targetResponse{
			AccountID:     t.AccountID,
			Platform:      t.Platform,
			Status:        string(t.Status),
			Attempts:      t.Attempts,
			LastError:     t.LastError,
			ErrorKind:     string(t.LastErrorKind),
			ExternalID:    t.ExternalID,
			LastAttemptAt: t.LastAttemptAt,
			NextAttemptAt: t.NextAttemptAt,
			SentAt:        t.SentAt,
		})
	}
	return out
}

func newListResponse(views []query.PostView) listResponse {
	out := listResponse{Posts: make([]postResponse, 0, len(views))}
	for _, v := range views {
		out.Posts = append(out.Posts, newPostResponse(v.Post, v.Status, v.Targets))
	}
	return out
}
