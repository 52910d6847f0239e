package dto

import "time"

// UpdateTicketRequest mutates one ticket. Pointer fields distinguish
// "leave unchanged" from "clear".
type UpdateTicketRequest struct {
	Status       string  `json:"status,omitempty"`
	QueueID      *string `json:"queueId,omitempty"`
	AgentID      *string `json:"userId,omitempty"`
	SendFarewell *bool   `json:"sendFarewellMessage,omitempty"`
}

// TicketResponse is the ticket snapshot returned to agents.
type TicketResponse struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	Channel        string     `json:"channel"`
	ContactID      string     `json:"contactId"`
	QueueID        *string    `json:"queueId"`
	AgentID        *string    `json:"userId"`
	IsGroup        bool       `json:"isGroup"`
	IsBot          bool       `json:"isBot"`
	UnreadMessages int        `json:"unreadMessages"`
	LastMessage    string     `json:"lastMessage"`
	LgpdAcceptedAt *time.Time `json:"lgpdAcceptedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// MessageResponse is one message unit for the conversation view.
type MessageResponse struct {
	ID          string    `json:"id"`
	Body        string    `json:"body"`
	FromMe      bool      `json:"fromMe"`
	MediaType   string    `json:"mediaType,omitempty"`
	MediaURL    string    `json:"mediaUrl,omitempty"`
	QuotedMsgID *string   `json:"quotedMsgId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
