// Package worker binds event subscriptions at startup.
package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/service"
)

// RegisterNotificationHandlers subscribes the notification service to
// every event the engine publishes.
func RegisterNotificationHandlers(dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger) {
	dispatcher.Subscribe(events.EventTicketCreated, notifications.HandleTicketUpdated)
	dispatcher.Subscribe(events.EventTicketUpdated, notifications.HandleTicketUpdated)
	dispatcher.Subscribe(events.EventTicketRemoved, notifications.HandleTicketRemoved)
	dispatcher.Subscribe(events.EventMessageCreated, notifications.HandleMessageCreated)
	dispatcher.Subscribe(events.EventContactUpdated, notifications.HandleContactUpdated)

	logger.Info("notification handlers registered")
}
