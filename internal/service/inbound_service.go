package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/observability"
	"github.com/spec-kit/inbox-service/internal/persistence"
	"github.com/spec-kit/inbox-service/internal/repository"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// InboundService runs the full pipeline for one normalized channel
// event: dedup, endpoint and settings lookup, contact and ticket
// resolution, then the ordered gates under the conversation lock.
type InboundService struct {
	deduper   persistence.Deduper
	endpoints repository.EndpointRepository
	settings  repository.SettingsRepository
	registry  *channel.Registry
	contacts  *ContactService
	resolver  *TicketResolver
	messenger *Messenger
	locks     *KeyedLocks
	metrics   *observability.Metrics
	logger    *zap.Logger

	preRecord  []Gate
	postRecord []Gate
}

// InboundServiceDependencies bundles collaborators for the pipeline.
type InboundServiceDependencies struct {
	Deduper        persistence.Deduper
	EndpointRepo   repository.EndpointRepository
	SettingsRepo   repository.SettingsRepository
	Registry       *channel.Registry
	ContactService *ContactService
	TicketResolver *TicketResolver
	Messenger      *Messenger
	Locks          *KeyedLocks
	SurveyGate     *SurveyGate
	ConsentGate    *ConsentGate
	QueueRouter    *QueueRouter
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewInboundService wires the pipeline. Gate order is fixed: the survey
// gate and consent gate run before the inbound message is persisted for
// routing, the router runs after.
func NewInboundService(deps InboundServiceDependencies) *InboundService {
	return &InboundService{
		deduper:    deps.Deduper,
		endpoints:  deps.EndpointRepo,
		settings:   deps.SettingsRepo,
		registry:   deps.Registry,
		contacts:   deps.ContactService,
		resolver:   deps.TicketResolver,
		messenger:  deps.Messenger,
		locks:      deps.Locks,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		preRecord:  []Gate{deps.SurveyGate, deps.ConsentGate},
		postRecord: []Gate{deps.QueueRouter},
	}
}

// Process handles one inbound event end to end. Gate errors are logged
// and the event dropped; the conversational state stays consistent
// because every mutation happened under the lock before the failure.
func (s *InboundService) Process(ctx context.Context, event channel.InboundEvent) error {
	s.metrics.InboundEvents.WithLabelValues(string(event.Channel)).Inc()

	first, err := s.deduper.FirstSeen(ctx, event.ExternalMessageID)
	if err != nil {
		s.logger.Warn("dedup check degraded", zap.Error(err))
	}
	if !first {
		s.metrics.DuplicateEvents.WithLabelValues(string(event.Channel)).Inc()
		return nil
	}

	endpoint, err := s.endpoints.GetByID(ctx, event.EndpointID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNoSessionFound(event.EndpointID)
		}
		return err
	}

	settings, err := s.settings.GetByCompany(ctx, endpoint.CompanyID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	sender, _ := s.registry.Sender(endpoint.ID)
	profile := s.fetchProfile(ctx, endpoint.ID, event)

	isGroup := event.Channel == domain.ChannelWhatsApp && channel.IsGroupJID(event.SenderIdentity)

	contact, err := s.contacts.Resolve(ctx, event, profile, isGroup)
	if err != nil {
		return err
	}

	lockKey := endpoint.ID + ":" + contact.ID
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	unread := 1
	if event.IsEcho {
		unread = 0
	}
	ticket, tracking, err := s.resolver.Resolve(ctx, contact, endpoint, settings, isGroup, unread)
	if err != nil {
		return err
	}

	// Agent updates serialize on the ticket id, not the conversation key.
	// Take that lock too so the gates never interleave with an in-flight
	// update, then re-read the row it may have committed. Order is fixed,
	// conversation lock first, so the two paths cannot deadlock.
	s.locks.Lock("ticket:" + ticket.ID)
	defer s.locks.Unlock("ticket:" + ticket.ID)

	fresh, err := s.resolver.Reload(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Deleted while we waited for the lock.
			return nil
		}
		return err
	}
	ticket = fresh

	// An echo of the endpoint's own farewell would reopen the ticket it
	// just closed. Drop it before it is recorded.
	if event.IsEcho && endpoint.FarewellMessage != "" && event.Body == endpoint.FarewellMessage {
		return nil
	}

	flow := &Flow{
		Event:    event,
		Endpoint: endpoint,
		Settings: settings,
		Contact:  contact,
		Ticket:   ticket,
		Tracking: tracking,
		Sender:   sender,
	}

	if event.IsEcho {
		return s.messenger.RecordInbound(ctx, flow)
	}

	for _, gate := range s.preRecord {
		outcome, err := gate.Evaluate(ctx, flow)
		if err != nil {
			s.logger.Error("gate failed, event dropped",
				zap.String("gate", gate.Name()),
				zap.String("ticket_id", flow.Ticket.ID),
				zap.Error(err))
			return nil
		}
		if outcome == GateHandled {
			return nil
		}
	}

	if err := s.messenger.RecordInbound(ctx, flow); err != nil {
		s.logger.Warn("inbound persist failed",
			zap.String("ticket_id", flow.Ticket.ID), zap.Error(err))
	}

	for _, gate := range s.postRecord {
		outcome, err := gate.Evaluate(ctx, flow)
		if err != nil {
			s.logger.Error("gate failed, event dropped",
				zap.String("gate", gate.Name()),
				zap.String("ticket_id", flow.Ticket.ID),
				zap.Error(err))
			return nil
		}
		if outcome == GateHandled {
			return nil
		}
	}
	return nil
}

func (s *InboundService) fetchProfile(ctx context.Context, endpointID string, event channel.InboundEvent) channel.Profile {
	fetcher, ok := s.registry.Profiles(endpointID)
	if !ok {
		return channel.Profile{}
	}
	identity := event.SenderIdentity
	if event.IsEcho {
		identity = event.RecipientIdentity
	}
	profile, err := fetcher.FetchProfile(ctx, identity)
	if err != nil {
		s.logger.Debug("profile lookup failed",
			zap.String("identity", identity), zap.Error(err))
		return channel.Profile{}
	}
	return profile
}
