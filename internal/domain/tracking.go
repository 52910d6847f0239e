package domain

import "time"

// TicketTracking records operational timestamps for one ticket lifetime.
// A new tracking row is created each time a ticket re-opens after closure;
// the previous row keeps the finished conversation's metrics.
type TicketTracking struct {
	ID         string
	TicketID   string
	CompanyID  int64
	EndpointID string
	QueueID    *string
	AgentID    *string
	QueuedAt   *time.Time
	StartedAt  *time.Time
	ClosedAt   *time.Time
	FinishedAt *time.Time
	RatingAt   *time.Time
	Rate       *int
	Rated      bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AwaitingRating reports whether the current tracking row can still accept
// a satisfaction rating.
func (t *TicketTracking) AwaitingRating() bool {
	return t != nil && t.RatingAt == nil && !t.Rated
}
