package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/observability"
	"github.com/spec-kit/inbox-service/internal/realtime"
	"github.com/spec-kit/inbox-service/internal/repository"
)

const invalidRatingReply = "Opção inválida, tente novamente."

// SurveyGate consumes inbound events for tickets awaiting a satisfaction
// rating. It runs first in the pipeline: a ticket in nps status never
// reaches the consent gate or the router.
type SurveyGate struct {
	tickets    repository.TicketRepository
	trackings  repository.TrackingRepository
	messenger  *Messenger
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewSurveyGate constructs the gate.
func NewSurveyGate(
	tickets repository.TicketRepository,
	trackings repository.TrackingRepository,
	messenger *Messenger,
	dispatcher events.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SurveyGate {
	return &SurveyGate{
		tickets:    tickets,
		trackings:  trackings,
		messenger:  messenger,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

func (g *SurveyGate) Name() string { return "survey" }

// Evaluate reads the event body as a rating when the ticket is in the
// survey phase. Non-numeric input re-sends the rating prompt up to the
// endpoint's cap and is always consumed.
func (g *SurveyGate) Evaluate(ctx context.Context, flow *Flow) (GateOutcome, error) {
	ticket := flow.Ticket
	if ticket.Status != domain.TicketStatusNPS {
		return GatePass, nil
	}
	if flow.Tracking == nil || !flow.Tracking.AwaitingRating() {
		return GatePass, nil
	}

	if err := g.messenger.RecordInbound(ctx, flow); err != nil {
		g.logger.Warn("survey inbound persist failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	if rating, ok := parseRating(flow.Event.Body); ok {
		return GateHandled, g.acceptRating(ctx, flow, rating)
	}

	if ticket.AmountUseBotQueuesNPS < flow.Endpoint.MaxUseBotQueuesNPS {
		_ = g.messenger.SendText(ctx, flow, invalidRatingReply, "rating")
		if flow.Endpoint.RatingMessage != "" {
			_ = g.messenger.SendText(ctx, flow, flow.Endpoint.RatingMessage, "rating")
		}
		ticket.AmountUseBotQueuesNPS++
		if err := g.tickets.Update(ctx, ticket); err != nil {
			return GateHandled, err
		}
	}
	return GateHandled, nil
}

// acceptRating stamps the tracking record, closes the ticket and sends
// the farewell. Ratings outside 0..10 are clamped.
func (g *SurveyGate) acceptRating(ctx context.Context, flow *Flow, rating int) error {
	ticket := flow.Ticket
	tracking := flow.Tracking
	now := time.Now()
	oldStatus := ticket.Status

	tracking.Rate = &rating
	tracking.RatingAt = &now
	tracking.FinishedAt = &now
	tracking.Rated = true
	if err := g.trackings.Update(ctx, tracking); err != nil {
		return err
	}

	ticket.Status = domain.TicketStatusClosed
	ticket.AmountUseBotQueuesNPS = 0
	if err := g.tickets.Update(ctx, ticket); err != nil {
		return err
	}
	g.metrics.TicketsClosed.Inc()

	if flow.Endpoint.FarewellMessage != "" && !ticket.IsGroup {
		if err := g.messenger.SendText(ctx, flow, flow.Endpoint.FarewellMessage, "farewell"); err != nil {
			g.logger.Warn("rating farewell send degraded",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	if g.dispatcher != nil {
		_ = g.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventTicketRemoved,
			CompanyID: ticket.CompanyID,
			TicketID:  ticket.ID,
			Payload: events.TicketRemovedPayload{
				TicketID:  ticket.ID,
				OldStatus: string(oldStatus),
			},
		})
		_ = g.dispatcher.Publish(ctx, events.Event{
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
	return nil
}

// parseRating accepts an integer rating, clamped into the 0..10 scale.
func parseRating(body string) (int, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	rating := int(value)
	if rating < 0 {
		rating = 0
	}
	if rating > 10 {
		rating = 10
	}
	return rating, true
}
