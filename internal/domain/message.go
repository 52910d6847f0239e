package domain

import "time"

// Message is an immutable record of one inbound or outbound unit in a
// ticket thread. Append-only; never mutated after creation.
type Message struct {
	ID          string
	ExternalID  string
	TicketID    string
	CompanyID   int64
	ContactID   *string
	Body        string
	FromMe      bool
	Read        bool
	MediaType   string
	MediaURL    string
	QuotedMsgID *string
	Ack         int
	CreatedAt   time.Time
}
