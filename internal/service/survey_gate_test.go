package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// closeIntoSurvey drives a fresh conversation into the survey phase the
// way an agent would: route, open, close with rating enabled.
func closeIntoSurvey(t *testing.T, env *testEnv) *domain.Ticket {
	t.Helper()

	env.process(t, env.event("1", "setup-1"))
	ticket := env.activeTicket(t)

	closed := domain.TicketStatusClosed
	updated, err := env.updates.Update(context.Background(), ticket.ID, ticket.CompanyID, TicketUpdate{Status: closed})
	if err != nil {
		t.Fatalf("close ticket: %v", err)
	}
	if updated.Status != domain.TicketStatusNPS {
		t.Fatalf("status after close = %s, want nps", updated.Status)
	}
	return updated
}

func TestSurveyRatingClosesTicket(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())
	ticket := closeIntoSurvey(t, env)

	env.process(t, env.event("8", "msg-rate"))

	refreshed, err := env.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if refreshed.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %s, want closed", refreshed.Status)
	}
	if refreshed.AmountUseBotQueuesNPS != 0 {
		t.Fatalf("nps counter not reset: %d", refreshed.AmountUseBotQueuesNPS)
	}

	tracking := env.trackings.byID["tracking-1"]
	if tracking.Rate == nil || *tracking.Rate != 8 {
		t.Fatalf("rate not recorded: %+v", tracking.Rate)
	}
	if !tracking.Rated || tracking.RatingAt == nil || tracking.FinishedAt == nil {
		t.Fatal("tracking not finalized")
	}

	bodies := env.sender.bodies()
	if !strings.Contains(bodies[len(bodies)-1], env.endpoint.FarewellMessage) {
		t.Fatalf("farewell missing after rating, last = %q", bodies[len(bodies)-1])
	}
}

func TestSurveyRatingClampedToScale(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"above scale", "15", 10},
		{"below scale", "-3", 0},
		{"decimal", "7.6", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, whatsappEndpoint(), defaultSettings())
			closeIntoSurvey(t, env)

			env.process(t, env.event(tt.body, "msg-rate"))

			tracking := env.trackings.byID["tracking-1"]
			if tracking.Rate == nil || *tracking.Rate != tt.want {
				t.Fatalf("rate = %v, want %d", tracking.Rate, tt.want)
			}
		})
	}
}

func TestSurveyInvalidInputResendsPrompt(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())
	ticket := closeIntoSurvey(t, env)

	before := len(env.sender.bodies())
	env.process(t, env.event("muito bom", "msg-bad"))

	bodies := env.sender.bodies()
	if len(bodies) < before+2 {
		t.Fatalf("expected invalid reply and rating prompt, got %d new sends", len(bodies)-before)
	}
	if !strings.Contains(bodies[len(bodies)-1], env.endpoint.RatingMessage) {
		t.Fatalf("rating prompt not resent, last = %q", bodies[len(bodies)-1])
	}

	refreshed, _ := env.tickets.GetByID(context.Background(), ticket.ID)
	if refreshed.Status != domain.TicketStatusNPS {
		t.Fatalf("ticket left survey phase: %s", refreshed.Status)
	}
	if refreshed.AmountUseBotQueuesNPS != 2 {
		t.Fatalf("nps counter = %d, want 2", refreshed.AmountUseBotQueuesNPS)
	}
}

func TestSurveyInvalidInputSilentPastCap(t *testing.T) {
	env := newTestEnv(t, whatsappEndpoint(), defaultSettings())
	ticket := closeIntoSurvey(t, env)

	ticket.AmountUseBotQueuesNPS = env.endpoint.MaxUseBotQueuesNPS

	before := len(env.sender.bodies())
	env.process(t, env.event("ainda nao", "msg-bad"))
	if got := len(env.sender.bodies()); got != before {
		t.Fatalf("prompt resent past cap: %d extra sends", got-before)
	}
}
