package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/realtime"
)

// NotificationService fans domain events out to realtime rooms. All
// delivery is best-effort; handlers never return errors upstream.
type NotificationService struct {
	notifier realtime.Notifier
	logger   *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(notifier realtime.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifier: notifier, logger: logger}
}

// HandleTicketUpdated publishes the ticket snapshot to its rooms.
func (s *NotificationService) HandleTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return nil
	}
	rooms := payload.Rooms
	if len(rooms) == 0 && payload.Ticket != nil {
		rooms = []string{
			realtime.StatusRoom(payload.Ticket.CompanyID, string(payload.Ticket.Status)),
			realtime.TicketRoom(payload.Ticket.CompanyID, payload.Ticket.ID),
			realtime.NotificationRoom(payload.Ticket.CompanyID),
		}
	}
	for _, room := range rooms {
		s.notifier.PublishTicketEvent(ctx, room, map[string]any{
			"action": "update",
			"ticket": payload.Ticket,
		})
	}
	return nil
}

// HandleTicketRemoved tells the old status room to drop the ticket.
func (s *NotificationService) HandleTicketRemoved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRemovedPayload)
	if !ok {
		return nil
	}
	room := realtime.StatusRoom(event.CompanyID, payload.OldStatus)
	s.notifier.PublishTicketEvent(ctx, room, map[string]any{
		"action":   "delete",
		"ticketId": payload.TicketID,
	})
	return nil
}

// HandleMessageCreated pushes new messages to the ticket room and the
// company notification room.
func (s *NotificationService) HandleMessageCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageCreatedPayload)
	if !ok || payload.Message == nil {
		return nil
	}
	body := map[string]any{
		"action":  "create",
		"message": payload.Message,
	}
	s.notifier.PublishTicketEvent(ctx, realtime.TicketRoom(event.CompanyID, event.TicketID), body)
	s.notifier.PublishTicketEvent(ctx, realtime.NotificationRoom(event.CompanyID), body)
	return nil
}

// HandleContactUpdated broadcasts contact profile refreshes.
func (s *NotificationService) HandleContactUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ContactUpdatedPayload)
	if !ok || payload.Contact == nil {
		return nil
	}
	s.notifier.PublishTicketEvent(ctx, realtime.NotificationRoom(event.CompanyID), map[string]any{
		"action":  "update",
		"contact": payload.Contact,
	})
	return nil
}
