package channel

import (
	"strings"
	"time"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// WhatsAppMessage is the already-decoded form delivered by the WhatsApp
// socket adapter. The socket client itself is an external collaborator;
// this normalizer only maps its output onto the canonical event.
type WhatsAppMessage struct {
	ID          string              `json:"id"`
	RemoteJID   string              `json:"remoteJid"`
	Participant string              `json:"participant"`
	PageUserID  string              `json:"pageUserId"`
	FromMe      bool                `json:"fromMe"`
	Body        string              `json:"body"`
	QuotedID    string              `json:"quotedId"`
	Timestamp   int64               `json:"timestamp"`
	Media       []WhatsAppMediaItem `json:"media"`
}

// WhatsAppMediaItem is one media unit from the socket adapter.
type WhatsAppMediaItem struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// IsGroupJID reports whether a WhatsApp JID addresses a group chat.
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}

// NormalizeWhatsApp converts a socket adapter message into a canonical
// inbound event. Marked echoes are dropped (nil is returned).
func NormalizeWhatsApp(msg WhatsAppMessage, companyID int64, endpointID string) *InboundEvent {
	if msg.FromMe && IsMarkedOutbound(msg.Body) {
		return nil
	}

	// The chat JID is the conversation identity even in groups, where the
	// participant only names the message author.
	event := &InboundEvent{
		Channel:           domain.ChannelWhatsApp,
		CompanyID:         companyID,
		EndpointID:        endpointID,
		SenderIdentity:    msg.RemoteJID,
		RecipientIdentity: msg.PageUserID,
		IsEcho:            msg.FromMe,
		Body:              msg.Body,
		QuotedExternalID:  msg.QuotedID,
		ExternalMessageID: msg.ID,
		Timestamp:         time.Unix(msg.Timestamp, 0),
	}
	for _, item := range msg.Media {
		event.Attachments = append(event.Attachments, Attachment{Type: item.Type, URL: item.URL})
	}
	return event
}
