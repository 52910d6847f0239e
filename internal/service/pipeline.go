package service

import (
	"context"

	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/domain"
)

// GateOutcome tells the pipeline whether a gate consumed the event.
type GateOutcome int

const (
	// GatePass lets the event continue to the next gate.
	GatePass GateOutcome = iota
	// GateHandled stops the pipeline; the event is fully consumed.
	GateHandled
)

// Gate is one stage of the routing pipeline. Gates run in a fixed order
// (survey before consent before router) and the first GateHandled wins.
type Gate interface {
	Name() string
	Evaluate(ctx context.Context, flow *Flow) (GateOutcome, error)
}

// Flow carries one inbound event's resolved state through the gates.
// All mutation happens under the per-ticket lock held by the pipeline.
type Flow struct {
	Event    channel.InboundEvent
	Endpoint *domain.ChannelEndpoint
	Settings *domain.CompanySettings
	Contact  *domain.Contact
	Ticket   *domain.Ticket
	Tracking *domain.TicketTracking
	Sender   channel.Sender
}

// Recipient is the channel identity outbound replies go to.
func (f *Flow) Recipient() string {
	return f.Contact.Number
}
