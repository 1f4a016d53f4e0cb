package model

import "time"

const (
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
)

// DefaultMaxAttempts bounds how many processing passes a queue item gets
// before it is parked as failed for operator review.
const DefaultMaxAttempts = 3

// QueueItem wraps a lead reference in the durable distribution queue. There
// is at most one item per lead; the claim transition to processing is the
// sole concurrency-control boundary between competing processors.
type QueueItem struct {
	ID           int64      `json:"-"`
	ItemID       string     `json:"item_id"`
	LeadID       string     `json:"lead_id"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
