package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/observability"
	"github.com/spec-kit/inbox-service/internal/realtime"
	"github.com/spec-kit/inbox-service/internal/repository"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// TicketUpdate is the agent-facing mutation request. QueueID and AgentID
// use a Set flag so "leave unchanged" and "clear" stay distinct.
type TicketUpdate struct {
	Status     domain.TicketStatus
	QueueID    *string
	QueueIDSet bool
	AgentID    *string
	AgentIDSet bool
	// SendFarewell defaults to true when nil.
	SendFarewell *bool
}

// transferKind classifies a queue/agent reassignment. Exactly one kind
// applies per update, checked in fixed priority order.
type transferKind int

const (
	transferNone transferKind = iota
	transferQueue
	transferAgent
	transferQueueAndAgent
	transferBackToQueue
)

// UpdateTicketService applies agent-driven ticket mutations: status
// moves, queue and agent transfers, closure with the survey entry check,
// and deletion. All paths run under the ticket lock.
type UpdateTicketService struct {
	tickets    repository.TicketRepository
	trackings  repository.TrackingRepository
	contacts   repository.ContactRepository
	endpoints  repository.EndpointRepository
	settingsR  repository.SettingsRepository
	agents     repository.AgentRepository
	queues     repository.QueueRepository
	tags       repository.TagRepository
	logs       repository.TicketLogRepository
	registry   *channel.Registry
	messenger  *Messenger
	resolver   *TicketResolver
	dispatcher events.Dispatcher
	locks      *KeyedLocks
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// UpdateTicketServiceDependencies bundles collaborators.
type UpdateTicketServiceDependencies struct {
	TicketRepo     repository.TicketRepository
	TrackingRepo   repository.TrackingRepository
	ContactRepo    repository.ContactRepository
	EndpointRepo   repository.EndpointRepository
	SettingsRepo   repository.SettingsRepository
	AgentRepo      repository.AgentRepository
	QueueRepo      repository.QueueRepository
	TagRepo        repository.TagRepository
	LogRepo        repository.TicketLogRepository
	Registry       *channel.Registry
	Messenger      *Messenger
	TicketResolver *TicketResolver
	Dispatcher     events.Dispatcher
	Locks          *KeyedLocks
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewUpdateTicketService constructs the service.
func NewUpdateTicketService(deps UpdateTicketServiceDependencies) *UpdateTicketService {
	return &UpdateTicketService{
		tickets:    deps.TicketRepo,
		trackings:  deps.TrackingRepo,
		contacts:   deps.ContactRepo,
		endpoints:  deps.EndpointRepo,
		settingsR:  deps.SettingsRepo,
		agents:     deps.AgentRepo,
		queues:     deps.QueueRepo,
		tags:       deps.TagRepo,
		logs:       deps.LogRepo,
		registry:   deps.Registry,
		messenger:  deps.Messenger,
		resolver:   deps.TicketResolver,
		dispatcher: deps.Dispatcher,
		locks:      deps.Locks,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Update applies one mutation to the ticket and returns the new state.
func (s *UpdateTicketService) Update(ctx context.Context, ticketID string, companyID int64, data TicketUpdate) (*domain.Ticket, error) {
	s.locks.Lock("ticket:" + ticketID)
	defer s.locks.Unlock("ticket:" + ticketID)

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewTicketNotFound(ticketID)
		}
		return nil, err
	}
	if ticket.CompanyID != companyID {
		return nil, apperrors.NewTicketNotFound(ticketID)
	}
	if data.Status != "" && !data.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid ticket status", map[string]any{"status": string(data.Status)})
	}

	endpoint, err := s.endpoints.GetByID(ctx, ticket.EndpointID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNoSessionFound(ticket.EndpointID)
		}
		return nil, err
	}
	settings, err := s.settingsR.GetByCompany(ctx, companyID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	tracking, err := s.resolver.resolveTracking(ctx, ticket, endpoint)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	oldQueue := ticket.QueueID
	oldAgent := ticket.AgentID

	newQueue := oldQueue
	if data.QueueIDSet {
		newQueue = data.QueueID
	}
	newAgent := oldAgent
	if data.AgentIDSet {
		newAgent = data.AgentID
	}

	// Transfer handling runs even when the same request closes the
	// ticket: the reassignment is announced and logged first.
	kind := classifyTransfer(oldQueue, newQueue, oldAgent, newAgent, ticket.IsGroup)
	if kind != transferNone {
		s.announceTransfer(ctx, ticket, settings, kind, newQueue, newAgent)
		s.logTransfer(ctx, ticket, kind, oldQueue, oldAgent, newQueue, newAgent)
	}

	if data.Status == domain.TicketStatusClosed {
		ticket.QueueID = newQueue
		ticket.AgentID = newAgent
		return s.close(ctx, ticket, endpoint, settings, tracking, data, oldStatus)
	}

	now := time.Now()
	if data.QueueIDSet && newQueue != nil && !idEqual(oldQueue, newQueue) {
		tracking.QueueID = newQueue
		tracking.QueuedAt = &now
	}

	ticket.QueueID = newQueue
	ticket.AgentID = newAgent
	if data.Status != "" {
		ticket.Status = data.Status
	}
	if data.AgentIDSet && newAgent != nil {
		ticket.IsBot = false
	}

	switch ticket.Status {
	case domain.TicketStatusOpen:
		tracking.StartedAt = &now
		tracking.RatingAt = nil
		tracking.Rated = false
		tracking.AgentID = newAgent
		tracking.QueueID = newQueue
		if oldStatus != domain.TicketStatusOpen {
			s.writeLog(ctx, ticket, domain.LogTypeOpen, newAgent, newQueue)
		}
	case domain.TicketStatusPending:
		if oldAgent != nil {
			s.writeLog(ctx, ticket, domain.LogTypePending, oldAgent, oldQueue)
			tracking.StartedAt = nil
			tracking.AgentID = nil
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.trackings.Update(ctx, tracking); err != nil {
		s.logger.Warn("tracking update failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	s.publishUpdate(ctx, ticket, oldStatus)
	return ticket, nil
}

// close runs the closure path: either hand the ticket to the survey
// phase or finish it with an optional farewell.
func (s *UpdateTicketService) close(
	ctx context.Context,
	ticket *domain.Ticket,
	endpoint *domain.ChannelEndpoint,
	settings *domain.CompanySettings,
	tracking *domain.TicketTracking,
	data TicketUpdate,
	oldStatus domain.TicketStatus,
) (*domain.Ticket, error) {
	sendFarewell := data.SendFarewell == nil || *data.SendFarewell
	now := time.Now()

	if s.shouldEnterSurvey(ticket, endpoint, settings, tracking, sendFarewell) {
		if err := s.sendToContact(ctx, ticket, endpoint.RatingMessage, "rating"); err != nil {
			s.logger.Warn("rating prompt send degraded",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}

		tracking.AgentID = ticket.AgentID
		tracking.ClosedAt = &now
		if err := s.trackings.Update(ctx, tracking); err != nil {
			return nil, err
		}
		s.writeLog(ctx, ticket, domain.LogTypeNPS, ticket.AgentID, ticket.QueueID)
		s.stripKanbanTags(ctx, ticket)

		ticket.Status = domain.TicketStatusNPS
		ticket.AmountUseBotQueuesNPS = 1
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		s.publishUpdate(ctx, ticket, oldStatus)
		return ticket, nil
	}

	if sendFarewell && !ticket.IsGroup &&
		(oldStatus != domain.TicketStatusPending || settingsAllowsWaitingFarewell(settings)) {
		if farewell := s.farewellBody(ctx, ticket, endpoint); farewell != "" {
			if err := s.sendToContact(ctx, ticket, farewell, "farewell"); err != nil {
				s.logger.Warn("farewell send degraded",
					zap.String("ticket_id", ticket.ID), zap.Error(err))
			}
		}
	}

	tracking.AgentID = ticket.AgentID
	tracking.ClosedAt = &now
	tracking.FinishedAt = &now
	if err := s.trackings.Update(ctx, tracking); err != nil {
		return nil, err
	}
	s.writeLog(ctx, ticket, domain.LogTypeClosed, ticket.AgentID, ticket.QueueID)
	s.stripKanbanTags(ctx, ticket)

	ticket.Status = domain.TicketStatusClosed
	ticket.AmountUsedBotQueues = 0
	ticket.AmountUseBotQueuesNPS = 0
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.metrics.TicketsClosed.Inc()
	s.publishUpdate(ctx, ticket, oldStatus)
	return ticket, nil
}

// Delete removes the ticket after writing its final audit entry.
func (s *UpdateTicketService) Delete(ctx context.Context, ticketID string, companyID int64, agentID *string) error {
	s.locks.Lock("ticket:" + ticketID)
	defer s.locks.Unlock("ticket:" + ticketID)

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewTicketNotFound(ticketID)
		}
		return err
	}
	if ticket.CompanyID != companyID {
		return apperrors.NewTicketNotFound(ticketID)
	}

	s.writeLog(ctx, ticket, domain.LogTypeDelete, agentID, ticket.QueueID)
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventTicketRemoved,
			CompanyID: ticket.CompanyID,
			TicketID:  ticket.ID,
			Payload: events.TicketRemovedPayload{
				TicketID:  ticket.ID,
				OldStatus: string(ticket.Status),
			},
		})
	}
	return nil
}

func (s *UpdateTicketService) shouldEnterSurvey(
	ticket *domain.Ticket,
	endpoint *domain.ChannelEndpoint,
	settings *domain.CompanySettings,
	tracking *domain.TicketTracking,
	sendFarewell bool,
) bool {
	return settings != nil && settings.UserRating &&
		sendFarewell &&
		endpoint.RatingMessage != "" &&
		!ticket.IsGroup &&
		tracking.AwaitingRating()
}

// farewellBody prefers the assigned agent's personal farewell over the
// endpoint default.
func (s *UpdateTicketService) farewellBody(ctx context.Context, ticket *domain.Ticket, endpoint *domain.ChannelEndpoint) string {
	if ticket.AgentID != nil {
		agent, err := s.agents.GetByID(ctx, *ticket.AgentID)
		if err == nil && agent.FarewellMessage != "" {
			return agent.FarewellMessage
		}
	}
	return endpoint.FarewellMessage
}

// classifyTransfer picks the single applicable transfer case, checked in
// fixed priority order so overlapping conditions cannot double-fire.
func classifyTransfer(oldQueue, newQueue, oldAgent, newAgent *string, isGroup bool) transferKind {
	queueChanged := newQueue != nil && !idEqual(oldQueue, newQueue)
	agentChanged := newAgent != nil && !idEqual(oldAgent, newAgent)

	switch {
	case oldQueue != nil && queueChanged && agentChanged && oldAgent != nil && !isGroup:
		return transferQueueAndAgent
	case oldAgent != nil && agentChanged && !isGroup:
		return transferAgent
	case oldQueue != nil && queueChanged && idEqual(oldAgent, newAgent):
		return transferQueue
	case oldAgent != nil && newAgent == nil && queueChanged:
		return transferBackToQueue
	default:
		return transferNone
	}
}

// announceTransfer sends the automatic transfer notice when the company
// enabled it. Failures degrade to a log line.
func (s *UpdateTicketService) announceTransfer(
	ctx context.Context,
	ticket *domain.Ticket,
	settings *domain.CompanySettings,
	kind transferKind,
	newQueue, newAgent *string,
) {
	if settings == nil || !settings.SendTransferMessage {
		return
	}

	var body string
	switch kind {
	case transferQueue, transferBackToQueue:
		queue := s.queueName(ctx, newQueue)
		if queue == "" {
			return
		}
		body = fmt.Sprintf("*Mensagem Automática*:\nVocê foi transferido(a) para o departamento *%s*\nAguarde um momento, iremos atende-lo(a)!", queue)
	case transferAgent:
		agent := s.agentName(ctx, newAgent)
		if agent == "" {
			return
		}
		body = fmt.Sprintf("*Mensagem Automática*:\nVocê foi transferido(a) para o atendente *%s*\nAguarde um momento, iremos atende-lo(a)!", agent)
	case transferQueueAndAgent:
		queue := s.queueName(ctx, newQueue)
		agent := s.agentName(ctx, newAgent)
		if queue == "" || agent == "" {
			return
		}
		body = fmt.Sprintf("*Mensagem Automática*:\nVocê foi transferido(a) para o departamento *%s* e será atendido(a) por *%s*\nAguarde um momento, iremos atende-lo(a)!", queue, agent)
	default:
		return
	}

	if err := s.sendToContact(ctx, ticket, body, "transfer"); err != nil {
		s.logger.Warn("transfer notice send degraded",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

// logTransfer writes the audit entries. Agent handovers produce a pair
// (transfered from the old holder, receivedTransfer to the new); queue
// moves without a receiving agent produce a single transfered entry.
func (s *UpdateTicketService) logTransfer(
	ctx context.Context,
	ticket *domain.Ticket,
	kind transferKind,
	oldQueue, oldAgent, newQueue, newAgent *string,
) {
	switch kind {
	case transferAgent, transferQueueAndAgent:
		s.writeLog(ctx, ticket, domain.LogTypeTransfered, oldAgent, oldQueue)
		s.writeLog(ctx, ticket, domain.LogTypeReceivedTransfer, newAgent, newQueue)
	case transferQueue, transferBackToQueue:
		s.writeLog(ctx, ticket, domain.LogTypeTransfered, oldAgent, oldQueue)
	}
}

func (s *UpdateTicketService) queueName(ctx context.Context, id *string) string {
	if id == nil {
		return ""
	}
	queue, err := s.queues.GetByID(ctx, *id)
	if err != nil {
		return ""
	}
	return queue.Name
}

func (s *UpdateTicketService) agentName(ctx context.Context, id *string) string {
	if id == nil {
		return ""
	}
	agent, err := s.agents.GetByID(ctx, *id)
	if err != nil {
		return ""
	}
	return agent.Name
}

// sendToContact resolves the ticket's contact and live sender, then
// delivers body through the messenger.
func (s *UpdateTicketService) sendToContact(ctx context.Context, ticket *domain.Ticket, body, kind string) error {
	contact, err := s.contacts.GetByID(ctx, ticket.ContactID)
	if err != nil {
		return err
	}
	sender, ok := s.registry.Sender(ticket.EndpointID)
	if !ok {
		return apperrors.NewNoSessionFound(ticket.EndpointID)
	}
	return s.messenger.Send(ctx, sender, ticket, contact.Number, body, kind)
}

// writeLog appends an audit entry. Best effort: audit must not block the
// ticket mutation.
func (s *UpdateTicketService) writeLog(ctx context.Context, ticket *domain.Ticket, logType domain.TicketLogType, agentID, queueID *string) {
	entry := &domain.TicketLogEntry{
		TicketID:  ticket.ID,
		CompanyID: ticket.CompanyID,
		AgentID:   agentID,
		QueueID:   queueID,
		Type:      logType,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Warn("ticket log write failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("type", string(logType)),
			zap.Error(err))
	}
}

func (s *UpdateTicketService) stripKanbanTags(ctx context.Context, ticket *domain.Ticket) {
	if err := s.tags.RemoveKanbanTags(ctx, ticket.ID); err != nil {
		s.logger.Warn("kanban tag strip failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (s *UpdateTicketService) publishUpdate(ctx context.Context, ticket *domain.Ticket, oldStatus domain.TicketStatus) {
	if s.dispatcher == nil {
		return
	}
	if ticket.Status != oldStatus {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventTicketRemoved,
			CompanyID: ticket.CompanyID,
			TicketID:  ticket.ID,
			Payload: events.TicketRemovedPayload{
				TicketID:  ticket.ID,
				OldStatus: string(oldStatus),
			},
		})
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventTicketUpdated,
		CompanyID: ticket.CompanyID,
		TicketID:  ticket.ID,
		Payload: events.TicketUpdatedPayload{
			Ticket: ticket,
			Rooms: []string{
				realtime.StatusRoom(ticket.CompanyID, string(ticket.Status)),
				realtime.TicketRoom(ticket.CompanyID, ticket.ID),
				realtime.NotificationRoom(ticket.CompanyID),
			},
		},
	})
}

func idEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func settingsAllowsWaitingFarewell(settings *domain.CompanySettings) bool {
	return settings != nil && settings.SendFarewellWaitingTicket
}
