package channel

import (
	"testing"

	"github.com/spec-kit/inbox-service/internal/domain"
)

func metaEnvelope(messaging ...MetaMessaging) MetaWebhook {
	return MetaWebhook{
		Object: "page",
		Entry:  []MetaEntry{{ID: "page-1", Messaging: messaging}},
	}
}

func TestNormalizeMetaMapsFields(t *testing.T) {
	payload := metaEnvelope(MetaMessaging{
		Sender:    MetaParty{ID: "psid-1"},
		Recipient: MetaParty{ID: "page-1"},
		Timestamp: 1700000000000,
		Message: &MetaMessage{
			MID:     "mid-1",
			Text:    "preciso de ajuda",
			ReplyTo: &MetaReplyTo{MID: "mid-0"},
			Attachments: []MetaAttachment{
				{Type: "image", Payload: struct {
					URL string `json:"url"`
				}{URL: "https://cdn.example.com/a.jpg"}},
			},
		},
	})

	events := NormalizeMeta(payload, domain.ChannelFacebook, 1, "endpoint-1")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	event := events[0]
	if event.Channel != domain.ChannelFacebook || event.CompanyID != 1 || event.EndpointID != "endpoint-1" {
		t.Fatalf("envelope fields wrong: %+v", event)
	}
	if event.SenderIdentity != "psid-1" || event.RecipientIdentity != "page-1" {
		t.Fatalf("identity fields wrong: %+v", event)
	}
	if event.Body != "preciso de ajuda" || event.ExternalMessageID != "mid-1" {
		t.Fatalf("message fields wrong: %+v", event)
	}
	if event.QuotedExternalID != "mid-0" {
		t.Fatalf("quoted id = %q, want mid-0", event.QuotedExternalID)
	}
	if len(event.Attachments) != 1 || event.Attachments[0].URL != "https://cdn.example.com/a.jpg" {
		t.Fatalf("attachments wrong: %+v", event.Attachments)
	}
}

func TestNormalizeMetaDropsMarkedEchoes(t *testing.T) {
	payload := metaEnvelope(
		MetaMessaging{
			Sender:  MetaParty{ID: "page-1"},
			Message: &MetaMessage{MID: "mid-1", Text: MarkOutbound("resposta do bot"), IsEcho: true},
		},
		MetaMessaging{
			Sender:  MetaParty{ID: "page-1"},
			Message: &MetaMessage{MID: "mid-2", Text: "resposta digitada pelo atendente", IsEcho: true},
		},
	)

	events := NormalizeMeta(payload, domain.ChannelFacebook, 1, "endpoint-1")
	if len(events) != 1 {
		t.Fatalf("got %d events, want only the unmarked echo", len(events))
	}
	if events[0].ExternalMessageID != "mid-2" || !events[0].IsEcho {
		t.Fatalf("wrong survivor: %+v", events[0])
	}
}

func TestNormalizeMetaSkipsNonMessageEntries(t *testing.T) {
	payload := metaEnvelope(MetaMessaging{Sender: MetaParty{ID: "psid-1"}})

	if events := NormalizeMeta(payload, domain.ChannelInstagram, 1, "endpoint-1"); len(events) != 0 {
		t.Fatalf("delivery/read entries must be skipped, got %d events", len(events))
	}
}

func TestOutboundMarkerRoundTrip(t *testing.T) {
	marked := MarkOutbound("Obrigado, até logo!")
	if !IsMarkedOutbound(marked) {
		t.Fatal("marked body not detected")
	}
	if IsMarkedOutbound("Obrigado, até logo!") {
		t.Fatal("plain body misdetected as marked")
	}
}
