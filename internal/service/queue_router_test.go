package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/inbox-service/internal/domain"
)

func TestRouterValidSelectionAssignsQueue(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())

	env.process(t, env.event("2", "msg-1"))

	ticket := env.activeTicket(t)
	if ticket.QueueID == nil || *ticket.QueueID != "queue-2" {
		t.Fatalf("queue = %v, want queue-2", ticket.QueueID)
	}
	if ticket.Status != domain.TicketStatusPending {
		t.Fatalf("status = %s, want pending", ticket.Status)
	}

	tracking := env.trackings.byID["tracking-1"]
	if tracking.QueueID == nil || *tracking.QueueID != "queue-2" || tracking.QueuedAt == nil {
		t.Fatalf("tracking queue stamp missing: %+v", tracking)
	}
}

func TestRouterSelectionSendsQueueGreeting(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())

	env.process(t, env.event("1", "msg-1"))

	bodies := env.sender.bodies()
	if len(bodies) == 0 || !strings.Contains(bodies[len(bodies)-1], "vendas") {
		t.Fatalf("queue greeting not sent: %v", bodies)
	}
}

func TestRouterSingleQueueSkipsMenu(t *testing.T) {
	endpoint := whatsappEndpoint()
	endpoint.Queues = endpoint.Queues[:1]
	env := newTestEnv(t, endpoint, defaultSettings())

	env.process(t, env.event("qualquer coisa", "msg-1"))

	ticket := env.activeTicket(t)
	if ticket.QueueID == nil || *ticket.QueueID != "queue-1" {
		t.Fatalf("single queue not auto-assigned: %v", ticket.QueueID)
	}
}

func TestRouterInvalidBurstRendersMenuOnce(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())

	env.process(t, env.event("oi", "msg-1"))
	env.process(t, env.event("tem alguem?", "msg-2"))
	env.process(t, env.event("alo", "msg-3"))

	time.Sleep(100 * time.Millisecond)

	var menus int
	for _, body := range env.sender.bodies() {
		if strings.Contains(body, env.endpoint.GreetingMessage) {
			menus++
		}
	}
	if menus != 1 {
		t.Fatalf("menu rendered %d times, want 1", menus)
	}
}

func TestRouterSkipsAssignedTickets(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())

	env.process(t, env.event("1", "msg-1"))
	ticket := env.activeTicket(t)
	agentID := "agent-1"
	ticket.AgentID = &agentID

	before := len(env.sender.bodies())
	env.process(t, env.event("2", "msg-2"))

	refreshed, _ := env.tickets.GetByID(context.Background(), ticket.ID)
	if *refreshed.QueueID != "queue-1" {
		t.Fatalf("agent-held ticket re-routed to %v", refreshed.QueueID)
	}
	// Only bookkeeping, no bot reply.
	if got := len(env.sender.bodies()); got != before {
		t.Fatalf("bot replied on agent-held ticket: %d sends", got-before)
	}
}

func TestRouterChatbotMenuFlow(t *testing.T) {
	endpoint := whatsappEndpoint()
	endpoint.Queues[0].Chatbots = []domain.Chatbot{
		{ID: "bot-1", QueueID: "queue-1", Name: "Orçamento", GreetingMessage: "Envie os detalhes do orçamento."},
		{ID: "bot-2", QueueID: "queue-1", Name: "Entrega"},
	}
	env := newTestEnv(t, endpoint, defaultSettings())

	// Queue selection renders the chatbot sub-menu instead of a greeting.
	env.process(t, env.event("1", "msg-1"))
	bodies := env.sender.bodies()
	subMenu := bodies[len(bodies)-1]
	if !strings.Contains(subMenu, "Orçamento") || !strings.Contains(subMenu, "Voltar para o menu principal") {
		t.Fatalf("chatbot menu not rendered: %q", subMenu)
	}

	// Picking an option replies with the bot greeting.
	env.process(t, env.event("1", "msg-2"))
	bodies = env.sender.bodies()
	if !strings.Contains(bodies[len(bodies)-1], "detalhes do orçamento") {
		t.Fatalf("chatbot greeting not sent: %q", bodies[len(bodies)-1])
	}

	// "#" returns to the main menu and clears the queue.
	env.process(t, env.event("#", "msg-3"))
	ticket := env.activeTicket(t)
	if ticket.QueueID != nil {
		t.Fatalf("queue not cleared on back option: %v", *ticket.QueueID)
	}
}
