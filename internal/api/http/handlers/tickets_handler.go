package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inbox-service/internal/api/dto"
	"github.com/spec-kit/inbox-service/internal/auth"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/repository"
	"github.com/spec-kit/inbox-service/internal/service"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// TicketsHandler exposes agent-facing ticket mutations.
type TicketsHandler struct {
	updates  *service.UpdateTicketService
	messages repository.MessageRepository
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(updates *service.UpdateTicketService, messages repository.MessageRepository) *TicketsHandler {
	return &TicketsHandler{updates: updates, messages: messages}
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	update := service.TicketUpdate{
		Status:       domain.TicketStatus(req.Status),
		SendFarewell: req.SendFarewell,
	}
	if req.QueueID != nil {
		update.QueueID = nullableID(req.QueueID)
		update.QueueIDSet = true
	}
	if req.AgentID != nil {
		update.AgentID = nullableID(req.AgentID)
		update.AgentIDSet = true
	}

	ticket, err := h.updates.Update(c.Context(), c.Params("id"), agent.CompanyID, update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.UpdateTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	ticket, err := h.updates.Update(c.Context(), c.Params("id"), agent.CompanyID, service.TicketUpdate{
		Status:       domain.TicketStatusClosed,
		SendFarewell: req.SendFarewell,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	if err := h.updates.Delete(c.Context(), c.Params("id"), agent.CompanyID, &agent.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMessages GET /tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	if _, ok := auth.AgentFromContext(c); !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	limit := c.QueryInt("limit", 50)
	msgs, err := h.messages.ListByTicket(c.Context(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, messageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// nullableID treats an explicit empty string as "clear the assignment".
func nullableID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             t.ID,
		Status:         string(t.Status),
		Channel:        string(t.Channel),
		ContactID:      t.ContactID,
		QueueID:        t.QueueID,
		AgentID:        t.AgentID,
		IsGroup:        t.IsGroup,
		IsBot:          t.IsBot,
		UnreadMessages: t.UnreadMessages,
		LastMessage:    t.LastMessage,
		LgpdAcceptedAt: t.LgpdAcceptedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func messageResponse(m *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:          m.ID,
		Body:        m.Body,
		FromMe:      m.FromMe,
		MediaType:   m.MediaType,
		MediaURL:    m.MediaURL,
		QuotedMsgID: m.QuotedMsgID,
		CreatedAt:   m.CreatedAt,
	}
}
