package events

import (
	"time"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketRemoved  EventType = "ticket_removed"
	EventMessageCreated EventType = "message_created"
	EventContactUpdated EventType = "contact_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	CompanyID int64     `json:"company_id"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketUpdatedPayload notifies listeners a ticket changed; Rooms lists the
// realtime rooms the update fans out to.
type TicketUpdatedPayload struct {
	Ticket *domain.Ticket `json:"ticket"`
	Rooms  []string       `json:"rooms"`
}

// TicketRemovedPayload tells a status room to drop the ticket, emitted when
// the ticket leaves that status.
type TicketRemovedPayload struct {
	TicketID  string `json:"ticket_id"`
	OldStatus string `json:"old_status"`
}

// MessageCreatedPayload carries a persisted message for ticket rooms.
type MessageCreatedPayload struct {
	Message *domain.Message `json:"message"`
}

// ContactUpdatedPayload announces a contact profile refresh.
type ContactUpdatedPayload struct {
	Contact *domain.Contact `json:"contact"`
}
