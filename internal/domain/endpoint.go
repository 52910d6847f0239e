package domain

import "time"

// ChannelType identifies the messaging platform behind an endpoint.
type ChannelType string

const (
	ChannelWhatsApp  ChannelType = "whatsapp"
	ChannelFacebook  ChannelType = "facebook"
	ChannelInstagram ChannelType = "instagram"
)

// Valid reports whether the channel is a supported platform.
func (c ChannelType) Valid() bool {
	switch c {
	case ChannelWhatsApp, ChannelFacebook, ChannelInstagram:
		return true
	}
	return false
}

// ChannelEndpoint is one connected inbox (a WhatsApp session or a
// Facebook/Instagram page) owned by a company. Queues are loaded ordered
// by id, matching the menu numbering shown to contacts.
type ChannelEndpoint struct {
	ID                 string
	CompanyID          int64
	Name               string
	Channel            ChannelType
	PageUserID         string
	GreetingMessage    string
	FarewellMessage    string
	RatingMessage      string
	MaxUseBotQueues    int
	MaxUseBotQueuesNPS int
	Queues             []Queue
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
