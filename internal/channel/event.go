// Package channel provides the abstraction layer between messaging
// platforms and the routing engine. The engine consumes a canonical
// inbound event and a Sender capability; platform transports live behind
// both.
package channel

import (
	"time"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// Attachment is one inbound media unit carried by an event.
type Attachment struct {
	Type string
	URL  string
}

// InboundEvent is the canonical normalized form of one channel webhook
// message. Everything downstream of the normalizers operates on this.
type InboundEvent struct {
	Channel           domain.ChannelType
	CompanyID         int64
	EndpointID        string
	SenderIdentity    string
	RecipientIdentity string
	IsEcho            bool
	Body              string
	Attachments       []Attachment
	QuotedExternalID  string
	ExternalMessageID string
	Timestamp         time.Time
}

// HasMedia reports whether the event carries attachments.
func (e InboundEvent) HasMedia() bool {
	return len(e.Attachments) > 0
}
