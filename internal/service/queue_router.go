package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/observability"
	"github.com/spec-kit/inbox-service/internal/realtime"
	"github.com/spec-kit/inbox-service/internal/repository"
)

const backToMenuOption = "#"

// QueueRouter assigns unqueued tickets to a queue from a numbered menu
// and walks queue chatbot sub-menus. Menu renders are debounced so a
// burst of messages yields a single reply.
type QueueRouter struct {
	tickets    repository.TicketRepository
	trackings  repository.TrackingRepository
	messenger  *Messenger
	debouncer  *Debouncer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewQueueRouter constructs the router.
func NewQueueRouter(
	tickets repository.TicketRepository,
	trackings repository.TrackingRepository,
	messenger *Messenger,
	debouncer *Debouncer,
	dispatcher events.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *QueueRouter {
	return &QueueRouter{
		tickets:    tickets,
		trackings:  trackings,
		messenger:  messenger,
		debouncer:  debouncer,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

func (g *QueueRouter) Name() string { return "router" }

// Evaluate routes the ticket. Tickets already held by an agent, group
// tickets, and endpoints with no queues pass through untouched.
func (g *QueueRouter) Evaluate(ctx context.Context, flow *Flow) (GateOutcome, error) {
	ticket := flow.Ticket
	if ticket.AgentID != nil || ticket.IsGroup {
		return GatePass, nil
	}
	if len(flow.Endpoint.Queues) == 0 {
		return GatePass, nil
	}

	if ticket.QueueID == nil {
		return g.selectQueue(ctx, flow)
	}
	return g.walkChatbot(ctx, flow)
}

// selectQueue handles the top-level queue menu.
func (g *QueueRouter) selectQueue(ctx context.Context, flow *Flow) (GateOutcome, error) {
	ticket := flow.Ticket
	queues := flow.Endpoint.Queues

	// A single queue skips the menu entirely.
	if len(queues) == 1 {
		if err := g.assignQueue(ctx, flow, &queues[0]); err != nil {
			return GateHandled, err
		}
		return GateHandled, nil
	}

	selection := flow.Event.Body
	if ticket.Status == domain.TicketStatusLGPD {
		// The event that carried the consent acceptance is not a menu
		// choice. Promote the ticket and show the menu instead.
		if ticket.LgpdAcceptedAt == nil {
			return GateHandled, nil
		}
		ticket.Status = domain.TicketStatusPending
		if err := g.tickets.Update(ctx, ticket); err != nil {
			return GateHandled, err
		}
		selection = ""
	}

	if choice, ok := parseMenuChoice(selection); ok && choice <= len(queues) {
		queue := &queues[choice-1]
		if err := g.assignQueue(ctx, flow, queue); err != nil {
			return GateHandled, err
		}
		if len(queue.Chatbots) > 0 {
			_ = g.messenger.SendText(ctx, flow, renderChatbotMenu(queue), "chatbot")
		} else if queue.GreetingMessage != "" {
			_ = g.messenger.SendText(ctx, flow, queue.GreetingMessage, "menu")
		}
		return GateHandled, nil
	}

	g.scheduleMenu(flow, renderQueueMenu(flow.Endpoint))
	return GateHandled, nil
}

// walkChatbot handles sub-menu selection once a queue is set.
func (g *QueueRouter) walkChatbot(ctx context.Context, flow *Flow) (GateOutcome, error) {
	ticket := flow.Ticket
	queue := findQueue(flow.Endpoint.Queues, *ticket.QueueID)
	if queue == nil || len(queue.Chatbots) == 0 {
		return GatePass, nil
	}

	body := strings.TrimSpace(flow.Event.Body)
	if body == backToMenuOption {
		ticket.QueueID = nil
		ticket.Status = domain.TicketStatusPending
		if err := g.tickets.Update(ctx, ticket); err != nil {
			return GateHandled, err
		}
		g.publishUpdated(ctx, ticket)
		g.scheduleMenu(flow, renderQueueMenu(flow.Endpoint))
		return GateHandled, nil
	}

	if choice, ok := parseMenuChoice(body); ok && choice <= len(queue.Chatbots) {
		bot := queue.Chatbots[choice-1]
		if bot.GreetingMessage != "" {
			_ = g.messenger.SendText(ctx, flow, bot.GreetingMessage, "chatbot")
		}
		return GateHandled, nil
	}

	g.scheduleMenu(flow, renderChatbotMenu(queue))
	return GateHandled, nil
}

// assignQueue binds the queue to the ticket and stamps the tracking's
// queued time.
func (g *QueueRouter) assignQueue(ctx context.Context, flow *Flow, queue *domain.Queue) error {
	ticket := flow.Ticket
	now := time.Now()

	ticket.QueueID = &queue.ID
	ticket.Status = domain.TicketStatusPending
	if err := g.tickets.Update(ctx, ticket); err != nil {
		return err
	}

	if flow.Tracking != nil {
		flow.Tracking.QueueID = &queue.ID
		flow.Tracking.QueuedAt = &now
		if err := g.trackings.Update(ctx, flow.Tracking); err != nil {
			g.logger.Warn("tracking queue stamp failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	g.publishUpdated(ctx, ticket)
	return nil
}

// scheduleMenu queues a debounced menu render keyed by ticket id. Only
// the last render within the window is delivered. The timer outlives the
// request, so the send runs on a fresh context.
func (g *QueueRouter) scheduleMenu(flow *Flow, menu string) {
	sender := flow.Sender
	ticket := flow.Ticket
	recipient := flow.Recipient()

	g.debouncer.Schedule(ticket.ID, func() {
		g.metrics.MenuRenders.Inc()
		if err := g.messenger.Send(context.Background(), sender, ticket, recipient, menu, "menu"); err != nil {
			g.logger.Warn("menu render send failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	})
}

func (g *QueueRouter) publishUpdated(ctx context.Context, ticket *domain.Ticket) {
	if g.dispatcher == nil {
		return
	}
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

func findQueue(queues []domain.Queue, id string) *domain.Queue {
	for i := range queues {
		if queues[i].ID == id {
			return &queues[i]
		}
	}
	return nil
}

// renderQueueMenu numbers the endpoint's queues in load order.
func renderQueueMenu(endpoint *domain.ChannelEndpoint) string {
	var sb strings.Builder
	if endpoint.GreetingMessage != "" {
		sb.WriteString(endpoint.GreetingMessage)
		sb.WriteString("\n\n")
	}
	for i, queue := range endpoint.Queues {
		fmt.Fprintf(&sb, "*[%d]* - %s\n", i+1, queue.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderChatbotMenu numbers a queue's chatbots plus the back option.
func renderChatbotMenu(queue *domain.Queue) string {
	var sb strings.Builder
	if queue.GreetingMessage != "" {
		sb.WriteString(queue.GreetingMessage)
		sb.WriteString("\n\n")
	}
	for i, bot := range queue.Chatbots {
		fmt.Fprintf(&sb, "*[%d]* - %s\n", i+1, bot.Name)
	}
	sb.WriteString("\n*[#]* Voltar para o menu principal")
	return sb.String()
}
