package domain

import "time"

type TargetStatus string

const (
	TargetStatusPending    TargetStatus = "pending"
	TargetStatusAttempting TargetStatus = "attempting"
	TargetStatusRetrying   TargetStatus = "retrying"
	TargetStatusSent       TargetStatus = "sent"
	TargetStatusFailed     TargetStatus = "failed"
	TargetStatusCancelled  TargetStatus = "cancelled"
)

func (s TargetStatus) IsTerminal() bool {
	return s == TargetStatusSent || s == TargetStatusFailed || s == TargetStatusCancelled
}

type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindPermanent ErrorKind = "permanent"
)

// DeliveryTarget pairs a post with one destination account. It is the unit of
// delivery status and idempotency: one row per (PostID, AccountID).
type DeliveryTarget struct {
	PostID        string
	AccountID     string
	Platform      string
	Status        TargetStatus
	Attempts      int
	LastError     string
	LastErrorKind ErrorKind
	LastAttemptAt *time.Time
	SentAt        *time.Time
	NextAttemptAt *time.Time
	ExternalID    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Due reports whether the dispatcher should attempt the target at now.
func (t DeliveryTarget) Due(now time.Time) bool {
	switch t.Status {
	case TargetStatusPending, TargetStatusAttempting:
		return true
	case TargetStatusRetrying:
		return t.NextAttemptAt == nil || !t.NextAttemptAt.After(now)
	}
	return false
}

// OutcomeKind is what the dispatcher decided after one attempt.
type OutcomeKind string

const (
	OutcomeSent     OutcomeKind = "sent"
	OutcomeRetrying OutcomeKind = "retrying"
	OutcomeFailed   OutcomeKind = "failed"
)

// TargetOutcome is written to the store for one target after an attempt.
type TargetOutcome struct {
	Kind          OutcomeKind
	ErrorKind     ErrorKind
	Error         string
	ExternalID    string
	At            time.Time
	NextAttemptAt *time.Time // only for OutcomeRetrying
}
