package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/inbox-service/internal/domain"
)

func TestConsentPromptIssuedOnFirstContact(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), lgpdSettings())

	env.process(t, env.event("oi", "msg-1"))

	ticket := env.activeTicket(t)
	if ticket.Status != domain.TicketStatusLGPD {
		t.Fatalf("status = %s, want lgpd", ticket.Status)
	}
	if ticket.LgpdSendMessageAt == nil {
		t.Fatal("prompt stamp not set")
	}
	if ticket.AmountUsedBotQueues != 1 {
		t.Fatalf("prompt counter = %d, want 1", ticket.AmountUsedBotQueues)
	}

	bodies := env.sender.bodies()
	if len(bodies) != 3 {
		t.Fatalf("sent %d messages, want consent message, link and prompt", len(bodies))
	}
	if !strings.Contains(bodies[2], "[1]") || !strings.Contains(bodies[2], "[2]") {
		t.Fatalf("binary prompt missing: %q", bodies[2])
	}
}

func TestConsentAcceptedRoutesSameEvent(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), lgpdSettings())

	env.process(t, env.event("oi", "msg-1"))
	env.process(t, env.event("1", "msg-2"))

	ticket := env.activeTicket(t)
	if ticket.LgpdAcceptedAt == nil {
		t.Fatal("ticket consent stamp not set")
	}
	if ticket.AmountUsedBotQueues != 0 {
		t.Fatalf("counter not reset: %d", ticket.AmountUsedBotQueues)
	}

	contact, err := env.contacts.GetByID(context.Background(), ticket.ContactID)
	if err != nil {
		t.Fatalf("load contact: %v", err)
	}
	if contact.LgpdAcceptedAt == nil {
		t.Fatal("contact consent stamp not set")
	}

	// The acceptance event continues into the router: with consent just
	// granted the queue menu is rendered, not treated as a selection.
	env.debouncer.Stop()
	if ticket.QueueID != nil {
		t.Fatalf("acceptance digit must not pick a queue, got %v", *ticket.QueueID)
	}
}

func TestConsentDeclinedClosesTicket(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), lgpdSettings())

	env.process(t, env.event("oi", "msg-1"))
	ticketID := env.activeTicket(t).ID

	env.process(t, env.event("2", "msg-2"))

	ticket, err := env.tickets.GetByID(context.Background(), ticketID)
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if ticket.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %s, want closed", ticket.Status)
	}

	bodies := env.sender.bodies()
	if !strings.Contains(bodies[len(bodies)-1], env.endpoint.FarewellMessage) {
		t.Fatalf("farewell not sent on decline, last = %q", bodies[len(bodies)-1])
	}

	if _, ok := env.trackings.byID["tracking-1"]; ok {
		t.Fatal("tracking row not discarded on decline")
	}
}

func TestConsentInvalidInputResendsUntilCap(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), lgpdSettings())

	env.process(t, env.event("oi", "msg-1"))
	promptSends := len(env.sender.bodies())

	env.process(t, env.event("talvez", "msg-2"))
	if got := len(env.sender.bodies()); got <= promptSends {
		t.Fatal("prompt not resent after invalid input")
	}

	// Burn the counter to the cap, then verify silence.
	ticket := env.activeTicket(t)
	ticket.AmountUsedBotQueues = env.endpoint.MaxUseBotQueues

	quiet := len(env.sender.bodies())
	env.process(t, env.event("ainda invalido", "msg-3"))
	if got := len(env.sender.bodies()); got != quiet {
		t.Fatalf("prompt resent past the cap: %d extra sends", got-quiet)
	}
	if env.activeTicket(t).Status != domain.TicketStatusLGPD {
		t.Fatal("capped ticket must stay parked in consent state")
	}
}

func TestConsentSkippedWhenDisabled(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())

	env.process(t, env.event("oi", "msg-1"))

	ticket := env.activeTicket(t)
	if ticket.Status == domain.TicketStatusLGPD {
		t.Fatal("consent gate engaged with LGPD disabled")
	}
	for _, body := range env.sender.bodies() {
		if strings.Contains(body, "[1]") && strings.Contains(body, "[2]") {
			t.Fatalf("consent prompt sent with LGPD disabled: %q", body)
		}
	}
}
