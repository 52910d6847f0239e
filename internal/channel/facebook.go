package channel

import (
	"strings"
	"time"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// Meta webhook payload shapes shared by Facebook pages and Instagram
// business accounts.

// MetaWebhook is the top-level Graph webhook envelope.
type MetaWebhook struct {
	Object string      `json:"object"`
	Entry  []MetaEntry `json:"entry"`
}

// MetaEntry groups messaging events for one page.
type MetaEntry struct {
	ID        string          `json:"id"`
	Time      int64           `json:"time"`
	Messaging []MetaMessaging `json:"messaging"`
}

// MetaMessaging is one sender→recipient message event.
type MetaMessaging struct {
	Sender    MetaParty    `json:"sender"`
	Recipient MetaParty    `json:"recipient"`
	Timestamp int64        `json:"timestamp"`
	Message   *MetaMessage `json:"message"`
}

// MetaParty identifies one side of a messaging event.
type MetaParty struct {
	ID string `json:"id"`
}

// MetaMessage is the message body of a messaging event.
type MetaMessage struct {
	MID         string           `json:"mid"`
	Text        string           `json:"text"`
	IsEcho      bool             `json:"is_echo"`
	ReplyTo     *MetaReplyTo     `json:"reply_to"`
	Attachments []MetaAttachment `json:"attachments"`
}

// MetaReplyTo references the quoted message.
type MetaReplyTo struct {
	MID string `json:"mid"`
}

// MetaAttachment is one media unit in a Graph message.
type MetaAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

// echoMarker prefixes messages the engine itself sent; echoes carrying it
// must never be re-processed as agent traffic.
const echoMarker = "\u200e"

// MarkOutbound prefixes a body with the echo marker.
func MarkOutbound(body string) string {
	return echoMarker + body
}

// IsMarkedOutbound reports whether a body carries the echo marker.
func IsMarkedOutbound(body string) bool {
	return strings.Contains(body, echoMarker)
}

// NormalizeMeta converts a Graph webhook envelope into canonical inbound
// events for the given channel (facebook or instagram). Events the engine
// itself produced (marked echoes) and non-message entries are dropped.
func NormalizeMeta(payload MetaWebhook, ch domain.ChannelType, companyID int64, endpointID string) []InboundEvent {
	var events []InboundEvent
	for _, entry := range payload.Entry {
		for _, messaging := range entry.Messaging {
			msg := messaging.Message
			if msg == nil {
				continue
			}
			if msg.IsEcho && IsMarkedOutbound(msg.Text) {
				continue
			}

			event := InboundEvent{
				Channel:           ch,
				CompanyID:         companyID,
				EndpointID:        endpointID,
				SenderIdentity:    messaging.Sender.ID,
				RecipientIdentity: messaging.Recipient.ID,
				IsEcho:            msg.IsEcho,
				Body:              msg.Text,
				ExternalMessageID: msg.MID,
				Timestamp:         time.UnixMilli(messaging.Timestamp),
			}
			if msg.ReplyTo != nil {
				event.QuotedExternalID = msg.ReplyTo.MID
			}
			for _, att := range msg.Attachments {
				event.Attachments = append(event.Attachments, Attachment{
					Type: att.Type,
					URL:  att.Payload.URL,
				})
			}
			events = append(events, event)
		}
	}
	return events
}
