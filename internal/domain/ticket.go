package domain

import "time"

// TicketStatus enumerates conversation lifecycle states.
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "pending"
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusClosed  TicketStatus = "closed"
	TicketStatusNPS     TicketStatus = "nps"
	TicketStatusLGPD    TicketStatus = "lgpd"
	TicketStatusGroup   TicketStatus = "group"
)

// Valid reports whether the status is one of the known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusOpen, TicketStatusClosed,
		TicketStatusNPS, TicketStatusLGPD, TicketStatusGroup:
		return true
	}
	return false
}

// NonTerminalStatuses are the states that count against the one active
// ticket per (contact, endpoint) invariant.
var NonTerminalStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusOpen,
	TicketStatusNPS,
	TicketStatusLGPD,
	TicketStatusGroup,
}

// Ticket is one conversation thread between a contact and a company inbox.
// At most one non-closed ticket exists per (contact, endpoint, isGroup).
type Ticket struct {
	ID                    string
	CompanyID             int64
	ContactID             string
	EndpointID            string
	QueueID               *string
	AgentID               *string
	Status                TicketStatus
	Channel               ChannelType
	IsGroup               bool
	IsBot                 bool
	UnreadMessages        int
	LastMessage           string
	AmountUsedBotQueues   int
	AmountUseBotQueuesNPS int
	LgpdSendMessageAt     *time.Time
	LgpdAcceptedAt        *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
