package domain

import "time"

// TicketLogType captures what a ticket log entry records.
type TicketLogType string

const (
	LogTypeOpen             TicketLogType = "open"
	LogTypePending          TicketLogType = "pending"
	LogTypeClosed           TicketLogType = "closed"
	LogTypeNPS              TicketLogType = "nps"
	LogTypeTransfered       TicketLogType = "transfered"
	LogTypeReceivedTransfer TicketLogType = "receivedTransfer"
	LogTypeDelete           TicketLogType = "delete"
)

// TicketLogEntry is an append-only audit record. Write-only from the
// routing engine; reporting reads it elsewhere.
type TicketLogEntry struct {
	ID        string
	TicketID  string
	CompanyID int64
	AgentID   *string
	QueueID   *string
	Type      TicketLogType
	CreatedAt time.Time
}
