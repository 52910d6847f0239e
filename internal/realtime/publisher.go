// Package realtime fans ticket events out to interested UI rooms. The
// socket transport itself is external; this package only publishes to the
// broker the transport subscribes on.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier publishes a payload to one room. At-least-once, best-effort:
// a failed publish is logged and never propagated to the caller's flow.
type Notifier interface {
	PublishTicketEvent(ctx context.Context, room string, payload any)
}

// Room name helpers. Status rooms carry every ticket in that status,
// ticket rooms carry one conversation, the notification room carries
// everything agent-facing.
func StatusRoom(companyID int64, status string) string {
	return fmt.Sprintf("company-%d-%s", companyID, status)
}

func TicketRoom(companyID int64, ticketID string) string {
	return fmt.Sprintf("company-%d-ticket-%s", companyID, ticketID)
}

func NotificationRoom(companyID int64) string {
	return fmt.Sprintf("company-%d-notification", companyID)
}

type redisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier publishes room payloads on Redis pub/sub channels.
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) Notifier {
	return &redisNotifier{client: client, logger: logger}
}

func (n *redisNotifier) PublishTicketEvent(ctx context.Context, room string, payload any) {
	if n.client == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("realtime payload marshal failed", zap.String("room", room), zap.Error(err))
		return
	}
	if err := n.client.Publish(ctx, "inbox:room:"+room, raw).Err(); err != nil {
		n.logger.Warn("realtime publish failed", zap.String("room", room), zap.Error(err))
	}
}

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that drops everything. Used when no
// broker is configured and in tests.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) PublishTicketEvent(context.Context, string, any) {}
