package models

import "time"

// Outbound email statuses for the delivery outbox.
const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
)

// OutboundEmail is a queued message awaiting delivery. Messages land here
// when the mail provider is unreachable at request time; a background worker
// retries them.
type OutboundEmail struct {
	ID           string
	ToEmail      string
	Subject      string
	Body         string
	Status       string
	AttemptCount int
	LastError    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
