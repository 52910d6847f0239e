package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/events"
	"github.com/spec-kit/inbox-service/internal/repository"
)

// ContactService finds or creates contacts for channel identities.
// Idempotent on (company, channel, identity).
type ContactService struct {
	contacts   repository.ContactRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewContactService constructs the service.
func NewContactService(contacts repository.ContactRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ContactService {
	return &ContactService{contacts: contacts, dispatcher: dispatcher, logger: logger}
}

// Resolve returns the contact for the identity, creating it on first
// sight. Profile fields are refreshed opportunistically; a consent
// timestamp already recorded is never overwritten.
func (s *ContactService) Resolve(ctx context.Context, event channel.InboundEvent, profile channel.Profile, isGroup bool) (*domain.Contact, error) {
	identity := event.SenderIdentity
	if event.IsEcho {
		identity = event.RecipientIdentity
	}

	name := displayName(profile, identity)

	contact, err := s.contacts.GetByIdentity(ctx, event.CompanyID, event.Channel, identity)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		contact = &domain.Contact{
			CompanyID:     event.CompanyID,
			Name:          name,
			Number:        identity,
			Channel:       event.Channel,
			ProfilePicURL: profile.PicURL,
			IsGroup:       isGroup,
		}
		if err := s.contacts.Create(ctx, contact); err != nil {
			return nil, err
		}
		s.publish(ctx, contact)
		return contact, nil
	}

	changed := false
	if name != "" && name != identity && contact.Name != name {
		contact.Name = name
		changed = true
	}
	if profile.PicURL != "" && contact.ProfilePicURL != profile.PicURL {
		contact.ProfilePicURL = profile.PicURL
		changed = true
	}
	if changed {
		if err := s.contacts.Update(ctx, contact); err != nil {
			s.logger.Warn("contact profile refresh failed",
				zap.String("contact_id", contact.ID), zap.Error(err))
		} else {
			s.publish(ctx, contact)
		}
	}
	return contact, nil
}

func (s *ContactService) publish(ctx context.Context, contact *domain.Contact) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventContactUpdated,
		CompanyID: contact.CompanyID,
		Payload:   events.ContactUpdatedPayload{Contact: contact},
	})
}

func displayName(profile channel.Profile, fallback string) string {
	if profile.Name != "" {
		return profile.Name
	}
	full := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	if full != "" {
		return full
	}
	return fallback
}
