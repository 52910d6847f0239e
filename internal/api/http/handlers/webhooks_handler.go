package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/repository"
	"github.com/spec-kit/inbox-service/internal/service"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// WebhooksHandler receives platform webhook deliveries, normalizes them
// and feeds the routing pipeline. Per-event failures are logged, never
// surfaced: Meta retries on non-200 and a retry would just hit dedup.
type WebhooksHandler struct {
	inbound     *service.InboundService
	endpoints   repository.EndpointRepository
	verifyToken string
	logger      *zap.Logger
}

// NewWebhooksHandler constructs handler.
func NewWebhooksHandler(inbound *service.InboundService, endpoints repository.EndpointRepository, verifyToken string, logger *zap.Logger) *WebhooksHandler {
	return &WebhooksHandler{
		inbound:     inbound,
		endpoints:   endpoints,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// VerifyMeta GET /webhooks/meta handles the Graph subscription handshake.
func (h *WebhooksHandler) VerifyMeta(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		return c.SendString(challenge)
	}
	return apperrors.NewForbidden("webhook verification failed")
}

// ReceiveMeta POST /webhooks/meta/:endpointId ingests Facebook and
// Instagram message events.
func (h *WebhooksHandler) ReceiveMeta(c *fiber.Ctx) error {
	endpointID := c.Params("endpointId")

	var payload channel.MetaWebhook
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid webhook payload", nil)
	}

	endpoint, err := h.endpoints.GetByID(c.Context(), endpointID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNoSessionFound(endpointID)
		}
		return err
	}

	ch := endpoint.Channel
	if payload.Object == "instagram" {
		ch = domain.ChannelInstagram
	}

	for _, event := range channel.NormalizeMeta(payload, ch, endpoint.CompanyID, endpoint.ID) {
		if err := h.inbound.Process(c.Context(), event); err != nil {
			h.logger.Error("meta event processing failed",
				zap.String("endpoint_id", endpoint.ID),
				zap.String("external_id", event.ExternalMessageID),
				zap.Error(err))
		}
	}
	return c.SendStatus(fiber.StatusOK)
}

// ReceiveWhatsApp POST /webhooks/whatsapp/:endpointId ingests messages
// relayed by the WhatsApp socket adapter.
func (h *WebhooksHandler) ReceiveWhatsApp(c *fiber.Ctx) error {
	endpointID := c.Params("endpointId")

	var msg channel.WhatsAppMessage
	if err := c.BodyParser(&msg); err != nil {
		return apperrors.NewValidationError("invalid webhook payload", nil)
	}

	endpoint, err := h.endpoints.GetByID(c.Context(), endpointID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNoSessionFound(endpointID)
		}
		return err
	}

	event := channel.NormalizeWhatsApp(msg, endpoint.CompanyID, endpoint.ID)
	if event == nil {
		return c.SendStatus(fiber.StatusOK)
	}
	if err := h.inbound.Process(c.Context(), *event); err != nil {
		h.logger.Error("whatsapp event processing failed",
			zap.String("endpoint_id", endpoint.ID),
			zap.String("external_id", event.ExternalMessageID),
			zap.Error(err))
	}
	return c.SendStatus(fiber.StatusOK)
}
