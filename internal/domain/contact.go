package domain

import "time"

// Contact is a channel identity that messages a company inbox.
// Created on the first inbound event from an unseen identity.
type Contact struct {
	ID             string
	CompanyID      int64
	Name           string
	Number         string
	Channel        ChannelType
	ProfilePicURL  string
	IsGroup        bool
	LgpdAcceptedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
