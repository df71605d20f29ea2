package domain

import (
	"strings"
	"time"
)

// PostStatus is the stored lifecycle status of a post. Terminal values
// (published, partial, failed) are only ever written by recomputing them from
// the post's delivery targets.
type PostStatus string

const (
	PostStatusDraft       PostStatus = "draft"
	PostStatusScheduled   PostStatus = "scheduled"
	PostStatusQueued      PostStatus = "queued"
	PostStatusDispatching PostStatus = "dispatching"
	PostStatusRetrying    PostStatus = "retrying"
	PostStatusPublished   PostStatus = "published"
	PostStatusPartial     PostStatus = "partial"
	PostStatusFailed      PostStatus = "failed"
	PostStatusCancelled   PostStatus = "cancelled"
)

// Claimable statuses may be moved to dispatching by the scheduler once due.
var ClaimableStatuses = []PostStatus{PostStatusScheduled, PostStatusQueued, PostStatusRetrying}

func (s PostStatus) IsTerminal() bool {
	switch s {
	case PostStatusPublished, PostStatusPartial, PostStatusFailed, PostStatusCancelled:
		return true
	}
	return false
}

// Editable reports whether the user may still change the post's schedule.
func (s PostStatus) Editable() bool {
	return s == PostStatusDraft || s == PostStatusScheduled
}

// Cancellable reports whether the post has not been claimed for dispatch yet.
func (s PostStatus) Cancellable() bool {
	return s == PostStatusDraft || s == PostStatusScheduled || s == PostStatusQueued
}

type MediaRef struct {
	URL  string `json:"url"`
	Kind string `json:"kind,omitempty"`
}

type Content struct {
	Text  string     `json:"text"`
	Media []MediaRef `json:"media,omitempty"`
}

func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == "" && len(c.Media) == 0
}

type Post struct {
	ID           string
	UserID       string
	Content      Content
	Status       PostStatus
	ScheduledFor *time.Time // nil means send immediately
	DueAt        *time.Time // next time the scheduler may pick the post up
	ClaimedAt    *time.Time
	ClaimedBy    string
	ClaimToken   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
