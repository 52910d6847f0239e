package channel

import (
	"testing"

	"github.com/spec-kit/inbox-service/internal/domain"
)

func TestIsGroupJID(t *testing.T) {
	tests := []struct {
		jid  string
		want bool
	}{
		{"5511999990000@s.whatsapp.net", false},
		{"123456789-987654@g.us", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsGroupJID(tt.jid); got != tt.want {
			t.Errorf("IsGroupJID(%q) = %v, want %v", tt.jid, got, tt.want)
		}
	}
}

func TestNormalizeWhatsAppMapsFields(t *testing.T) {
	event := NormalizeWhatsApp(WhatsAppMessage{
		ID:         "wamid-1",
		RemoteJID:  "5511999990000@s.whatsapp.net",
		PageUserID: "business-1",
		Body:       "oi",
		QuotedID:   "wamid-0",
		Timestamp:  1700000000,
		Media:      []WhatsAppMediaItem{{Type: "audio", URL: "https://cdn.example.com/v.ogg"}},
	}, 1, "endpoint-1")

	if event == nil {
		t.Fatal("event dropped")
	}
	if event.Channel != domain.ChannelWhatsApp || event.SenderIdentity != "5511999990000@s.whatsapp.net" {
		t.Fatalf("identity wrong: %+v", event)
	}
	if event.ExternalMessageID != "wamid-1" || event.QuotedExternalID != "wamid-0" {
		t.Fatalf("message ids wrong: %+v", event)
	}
	if len(event.Attachments) != 1 || event.Attachments[0].Type != "audio" {
		t.Fatalf("attachments wrong: %+v", event.Attachments)
	}
}

func TestNormalizeWhatsAppGroupKeepsChatIdentity(t *testing.T) {
	event := NormalizeWhatsApp(WhatsAppMessage{
		ID:          "wamid-1",
		RemoteJID:   "123456789-987654@g.us",
		Participant: "5511999990000@s.whatsapp.net",
		Body:        "bom dia grupo",
	}, 1, "endpoint-1")

	if event == nil {
		t.Fatal("event dropped")
	}
	// Grouping key must stay the chat JID, not the author.
	if event.SenderIdentity != "123456789-987654@g.us" {
		t.Fatalf("sender identity = %q, want the group JID", event.SenderIdentity)
	}
	if !IsGroupJID(event.SenderIdentity) {
		t.Fatal("group event lost its group identity")
	}
}

func TestNormalizeWhatsAppDropsMarkedSelfMessages(t *testing.T) {
	if event := NormalizeWhatsApp(WhatsAppMessage{
		ID:     "wamid-1",
		FromMe: true,
		Body:   MarkOutbound("menu enviado pelo bot"),
	}, 1, "endpoint-1"); event != nil {
		t.Fatalf("marked self message not dropped: %+v", event)
	}

	event := NormalizeWhatsApp(WhatsAppMessage{
		ID:     "wamid-2",
		FromMe: true,
		Body:   "mensagem digitada no aparelho",
	}, 1, "endpoint-1")
	if event == nil || !event.IsEcho {
		t.Fatal("unmarked self message must survive as an echo")
	}
}
