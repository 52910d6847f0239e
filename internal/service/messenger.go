package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/observability"
	"github.com/spec-kit/inbox-service/internal/repository"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// Messenger sends outbound text through a channel Sender and records every
// inbound/outbound unit as an immutable Message. A send failure degrades
// to "log and continue": the conversational state already advanced.
type Messenger struct {
	messages    repository.MessageRepository
	tickets     repository.TicketRepository
	attachments channel.AttachmentStore
	dispatcher  events.Dispatcher
	sendTimeout time.Duration
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// MessengerDependencies bundles collaborators for the messenger.
type MessengerDependencies struct {
	MessageRepo     repository.MessageRepository
	TicketRepo      repository.TicketRepository
	AttachmentStore channel.AttachmentStore
	Dispatcher      events.Dispatcher
	SendTimeout     time.Duration
	Logger          *zap.Logger
	Metrics         *observability.Metrics
}

// NewMessenger constructs the messenger.
func NewMessenger(deps MessengerDependencies) *Messenger {
	timeout := deps.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Messenger{
		messages:    deps.MessageRepo,
		tickets:     deps.TicketRepo,
		attachments: deps.AttachmentStore,
		dispatcher:  deps.Dispatcher,
		sendTimeout: timeout,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
}

// SendText delivers body to the flow's contact, marks it as engine
// outbound, and records the resulting message on the ticket. The send is
// bounded by the configured timeout and retried once on failure.
func (m *Messenger) SendText(ctx context.Context, flow *Flow, body string, kind string) error {
	return m.Send(ctx, flow.Sender, flow.Ticket, flow.Recipient(), body, kind)
}

// Send is the flow-free variant used by update paths that reply without
// an inbound event in hand.
func (m *Messenger) Send(ctx context.Context, sender channel.Sender, ticket *domain.Ticket, recipient, body, kind string) error {
	if sender == nil {
		return apperrors.NewChannelSendFailure(string(ticket.Channel), nil)
	}

	marked := channel.MarkOutbound(body)
	sent, err := m.sendWithRetry(ctx, sender, recipient, marked)
	if err != nil {
		m.metrics.SendFailures.WithLabelValues(string(ticket.Channel)).Inc()
		m.logger.Warn("channel send failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("kind", kind),
			zap.Error(err))
		return apperrors.NewChannelSendFailure(string(ticket.Channel), err)
	}

	m.metrics.PromptsSent.WithLabelValues(kind).Inc()
	m.recordMessage(ctx, ticket, &domain.Message{
		ExternalID: sent.ExternalID,
		TicketID:   ticket.ID,
		CompanyID:  ticket.CompanyID,
		Body:       marked,
		FromMe:     true,
		Read:       true,
		Ack:        3,
	})
	return nil
}

// RecordInbound persists the event's message unit (text or media) and
// refreshes the ticket's last message.
func (m *Messenger) RecordInbound(ctx context.Context, flow *Flow) error {
	contactID := &flow.Contact.ID
	if flow.Event.IsEcho {
		contactID = nil
	}

	quotedID := m.resolveQuoted(ctx, flow)

	if flow.Event.HasMedia() {
		for _, att := range flow.Event.Attachments {
			ref := att.URL
			if m.attachments != nil {
				stored, err := m.attachments.PersistAttachment(ctx, flow.Ticket.CompanyID, flow.Ticket.ID, att)
				if err != nil {
					m.logger.Warn("attachment persist failed",
						zap.String("ticket_id", flow.Ticket.ID), zap.Error(err))
				} else {
					ref = stored
				}
			}
			m.recordMessage(ctx, flow.Ticket, &domain.Message{
				ExternalID:  flow.Event.ExternalMessageID,
				TicketID:    flow.Ticket.ID,
				CompanyID:   flow.Ticket.CompanyID,
				ContactID:   contactID,
				Body:        flow.Event.Body,
				FromMe:      flow.Event.IsEcho,
				Read:        flow.Event.IsEcho,
				MediaType:   att.Type,
				MediaURL:    ref,
				QuotedMsgID: quotedID,
				Ack:         3,
			})
		}
		return nil
	}

	m.recordMessage(ctx, flow.Ticket, &domain.Message{
		ExternalID:  flow.Event.ExternalMessageID,
		TicketID:    flow.Ticket.ID,
		CompanyID:   flow.Ticket.CompanyID,
		ContactID:   contactID,
		Body:        flow.Event.Body,
		FromMe:      flow.Event.IsEcho,
		Read:        flow.Event.IsEcho,
		QuotedMsgID: quotedID,
		Ack:         3,
	})
	return nil
}

func (m *Messenger) resolveQuoted(ctx context.Context, flow *Flow) *string {
	if flow.Event.QuotedExternalID == "" {
		return nil
	}
	quoted, err := m.messages.GetByExternalID(ctx, flow.Ticket.CompanyID, flow.Event.QuotedExternalID)
	if err != nil {
		if err != pgx.ErrNoRows {
			m.logger.Debug("quoted message lookup failed", zap.Error(err))
		}
		return nil
	}
	return &quoted.ID
}

func (m *Messenger) sendWithRetry(ctx context.Context, sender channel.Sender, recipient, body string) (channel.SentMessage, error) {
	sendCtx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	sent, err := sender.SendText(sendCtx, recipient, body)
	cancel()
	if err == nil {
		return sent, nil
	}

	retryCtx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()
	return sender.SendText(retryCtx, recipient, body)
}

// recordMessage persists the message and updates lastMessage. Failures are
// logged, never propagated: message bookkeeping must not stall the gates.
func (m *Messenger) recordMessage(ctx context.Context, ticket *domain.Ticket, message *domain.Message) {
	if err := m.messages.Create(ctx, message); err != nil {
		m.logger.Error("message persist failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}

	if message.Body != "" {
		ticket.LastMessage = message.Body
		if err := m.tickets.Update(ctx, ticket); err != nil {
			m.logger.Warn("last message update failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	if m.dispatcher != nil {
		_ = m.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventMessageCreated,
			CompanyID: ticket.CompanyID,
			TicketID:  ticket.ID,
			Payload:   events.MessageCreatedPayload{Message: message},
		})
	}
}
