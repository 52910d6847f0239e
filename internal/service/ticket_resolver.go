package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/repository"
)

// TicketResolver finds or creates the single non-closed ticket for a
// (contact, endpoint, isGroup) tuple, together with its tracking record.
// Callers hold the per-conversation lock, which is what actually enforces
// the uniqueness invariant against concurrent events.
type TicketResolver struct {
	tickets    repository.TicketRepository
	trackings  repository.TrackingRepository
	settings   repository.SettingsRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketResolver constructs the resolver.
func NewTicketResolver(
	tickets repository.TicketRepository,
	trackings repository.TrackingRepository,
	settings repository.SettingsRepository,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *TicketResolver {
	return &TicketResolver{
		tickets:    tickets,
		trackings:  trackings,
		settings:   settings,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Resolve returns the active ticket and its tracking record, creating
// both when no open conversation exists.
func (s *TicketResolver) Resolve(
	ctx context.Context,
	contact *domain.Contact,
	endpoint *domain.ChannelEndpoint,
	settings *domain.CompanySettings,
	isGroup bool,
	unread int,
) (*domain.Ticket, *domain.TicketTracking, error) {
	ticket, err := s.tickets.FindActive(ctx, contact.ID, endpoint.ID, isGroup)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, err
		}
		ticket, err = s.createTicket(ctx, contact, endpoint, settings, isGroup, unread)
		if err != nil {
			return nil, nil, err
		}
	} else if unread > 0 {
		ticket.UnreadMessages += unread
		if err := s.tickets.Update(ctx, ticket); err != nil {
			s.logger.Warn("unread counter update failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	tracking, err := s.resolveTracking(ctx, ticket, endpoint)
	if err != nil {
		return nil, nil, err
	}
	return ticket, tracking, nil
}

// Reload re-reads the current ticket row. The pipeline calls this after
// taking the ticket lock, since resolution ran outside it and an agent
// update may have committed in between.
func (s *TicketResolver) Reload(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

func (s *TicketResolver) createTicket(
	ctx context.Context,
	contact *domain.Contact,
	endpoint *domain.ChannelEndpoint,
	settings *domain.CompanySettings,
	isGroup bool,
	unread int,
) (*domain.Ticket, error) {
	status := domain.TicketStatusPending
	if isGroup {
		status = domain.TicketStatusGroup
	} else if consentRequired(settings, contact) {
		// New conversations start behind the consent gate when the
		// company enforces it and the contact never accepted.
		status = domain.TicketStatusLGPD
	}

	ticket := &domain.Ticket{
		CompanyID:      contact.CompanyID,
		ContactID:      contact.ID,
		EndpointID:     endpoint.ID,
		Status:         status,
		Channel:        endpoint.Channel,
		IsGroup:        isGroup,
		IsBot:          true,
		UnreadMessages: unread,
		LgpdAcceptedAt: contact.LgpdAcceptedAt,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventTicketCreated,
			CompanyID: ticket.CompanyID,
			TicketID:  ticket.ID,
			Payload:   events.TicketUpdatedPayload{Ticket: ticket},
		})
	}
	return ticket, nil
}

// resolveTracking finds the open tracking row or starts a new lifetime.
func (s *TicketResolver) resolveTracking(ctx context.Context, ticket *domain.Ticket, endpoint *domain.ChannelEndpoint) (*domain.TicketTracking, error) {
	tracking, err := s.trackings.FindOpenByTicket(ctx, ticket.ID)
	if err == nil {
		return tracking, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	tracking = &domain.TicketTracking{
		TicketID:   ticket.ID,
		CompanyID:  ticket.CompanyID,
		EndpointID: endpoint.ID,
		QueueID:    ticket.QueueID,
		AgentID:    ticket.AgentID,
		QueuedAt:   &now,
	}
	if err := s.trackings.Create(ctx, tracking); err != nil {
		return nil, err
	}
	return tracking, nil
}

func consentRequired(settings *domain.CompanySettings, contact *domain.Contact) bool {
	if settings == nil || !settings.EnableLGPD {
		return false
	}
	return contact.LgpdAcceptedAt == nil || settings.LGPDConsent
}
