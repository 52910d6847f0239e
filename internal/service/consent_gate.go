package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/repository"
)

const consentPrompt = "Estou ciente sobre o tratamento dos meus dados pessoais.\n\n*[1]* Sim\n*[2]* Não"

// ConsentGate blocks routing until the contact decides on the data
// consent prompt. Strictly sequential per ticket: a prompt is fully sent
// and stamped before the next inbound event can be read as a decision.
type ConsentGate struct {
	contacts  repository.ContactRepository
	tickets   repository.TicketRepository
	trackings repository.TrackingRepository
	messenger *Messenger
	logger    *zap.Logger
}

// NewConsentGate constructs the gate.
func NewConsentGate(
	contacts repository.ContactRepository,
	tickets repository.TicketRepository,
	trackings repository.TrackingRepository,
	messenger *Messenger,
	logger *zap.Logger,
) *ConsentGate {
	return &ConsentGate{
		contacts:  contacts,
		tickets:   tickets,
		trackings: trackings,
		messenger: messenger,
		logger:    logger,
	}
}

func (g *ConsentGate) Name() string { return "consent" }

// Evaluate runs the consent flow for one inbound event.
func (g *ConsentGate) Evaluate(ctx context.Context, flow *Flow) (GateOutcome, error) {
	if flow.Settings == nil || !flow.Settings.EnableLGPD {
		return GatePass, nil
	}
	if flow.Ticket.IsGroup {
		return GatePass, nil
	}

	ticket := flow.Ticket

	// A prompt is pending and undecided: read the body as the choice.
	if ticket.Status == domain.TicketStatusLGPD &&
		ticket.LgpdAcceptedAt == nil && ticket.LgpdSendMessageAt != nil {
		outcome, err := g.interpretChoice(ctx, flow)
		if err != nil || outcome == GateHandled {
			return outcome, err
		}
		if ticket.LgpdAcceptedAt != nil {
			// Consent just granted. The ticket stays in lgpd status so the
			// router promotes it and renders the menu; the acceptance digit
			// is never read as a queue selection.
			return GatePass, nil
		}
	}

	// No prompt pending: issue one when configuration allows.
	if g.shouldPrompt(flow) {
		if err := g.sendPrompt(ctx, flow); err != nil {
			g.logger.Warn("consent prompt send degraded",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
		return GateHandled, nil
	}

	// Prompt sent, decision still outstanding: consume silently.
	if ticket.Status == domain.TicketStatusLGPD &&
		ticket.LgpdSendMessageAt != nil && ticket.LgpdAcceptedAt == nil {
		return GateHandled, nil
	}

	return GatePass, nil
}

func (g *ConsentGate) interpretChoice(ctx context.Context, flow *Flow) (GateOutcome, error) {
	ticket := flow.Ticket
	choice, numeric := parseMenuChoice(flow.Event.Body)

	if numeric && choice == 1 {
		now := time.Now()
		if flow.Contact.LgpdAcceptedAt == nil {
			flow.Contact.LgpdAcceptedAt = &now
			if err := g.contacts.Update(ctx, flow.Contact); err != nil {
				return GatePass, err
			}
		}
		ticket.LgpdAcceptedAt = &now
		ticket.AmountUsedBotQueues = 0
		if err := g.tickets.Update(ctx, ticket); err != nil {
			return GatePass, err
		}
		return GatePass, nil
	}

	if numeric && choice == 2 {
		if flow.Endpoint.FarewellMessage != "" {
			if err := g.messenger.SendText(ctx, flow, flow.Endpoint.FarewellMessage, "consent"); err != nil {
				g.logger.Warn("consent farewell send degraded",
					zap.String("ticket_id", ticket.ID), zap.Error(err))
			}
		}
		ticket.Status = domain.TicketStatusClosed
		ticket.AmountUsedBotQueues = 0
		if err := g.tickets.Update(ctx, ticket); err != nil {
			return GateHandled, err
		}
		if flow.Tracking != nil && flow.Tracking.ID != "" {
			if err := g.trackings.Delete(ctx, flow.Tracking.ID); err != nil {
				g.logger.Warn("tracking discard failed",
					zap.String("ticket_id", ticket.ID), zap.Error(err))
			}
		}
		return GateHandled, nil
	}

	// Any other input: clear the stamp so the prompt is resent, unless
	// the usage cap is already reached (then stay silently idle).
	if ticket.AmountUsedBotQueues < flow.Endpoint.MaxUseBotQueues {
		ticket.AmountUsedBotQueues++
		ticket.LgpdSendMessageAt = nil
		if err := g.tickets.Update(ctx, ticket); err != nil {
			return GateHandled, err
		}
		return GatePass, nil
	}
	return GateHandled, nil
}

func (g *ConsentGate) shouldPrompt(flow *Flow) bool {
	ticket := flow.Ticket
	settings := flow.Settings
	if flow.Contact.LgpdAcceptedAt != nil && !settings.LGPDConsent {
		return false
	}
	return ticket.Status == domain.TicketStatusLGPD &&
		ticket.LgpdSendMessageAt == nil &&
		ticket.AmountUsedBotQueues <= flow.Endpoint.MaxUseBotQueues &&
		settings.LGPDMessage != "" &&
		settings.LGPDLink != ""
}

// sendPrompt persists the inbound message and issues the consent
// sequence: message, link, binary prompt. The stamp is written before
// returning so the next event is read as the decision.
func (g *ConsentGate) sendPrompt(ctx context.Context, flow *Flow) error {
	ticket := flow.Ticket

	if err := g.messenger.RecordInbound(ctx, flow); err != nil {
		g.logger.Warn("consent inbound persist failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	var sendErr error
	if err := g.messenger.SendText(ctx, flow, flow.Settings.LGPDMessage, "consent"); err != nil {
		sendErr = err
	}
	if err := g.messenger.SendText(ctx, flow, flow.Settings.LGPDLink, "consent"); err != nil {
		sendErr = err
	}
	if err := g.messenger.SendText(ctx, flow, consentPrompt, "consent"); err != nil {
		sendErr = err
	}

	now := time.Now()
	ticket.LgpdSendMessageAt = &now
	ticket.AmountUsedBotQueues++
	if err := g.tickets.Update(ctx, ticket); err != nil {
		return err
	}

	reloaded, err := g.tickets.GetByID(ctx, ticket.ID)
	if err == nil {
		flow.Ticket = reloaded
	}
	return sendErr
}

// parseMenuChoice reads a 1-based numeric menu selection.
func parseMenuChoice(body string) (int, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return 0, false
	}
	choice, err := strconv.Atoi(trimmed)
	if err != nil || choice <= 0 {
		return 0, false
	}
	return choice, true
}
