package channel

import (
	"context"
	"sync"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// SentMessage describes one message accepted by a channel transport.
type SentMessage struct {
	ExternalID string
	Body       string
}

// Profile is the sender profile returned by a platform lookup.
type Profile struct {
	Name      string
	FirstName string
	LastName  string
	PicURL    string
}

// Sender is the outbound capability the engine depends on. One
// implementation exists per platform transport; the engine never sees
// the wire format.
type Sender interface {
	Channel() domain.ChannelType
	SendText(ctx context.Context, recipient string, body string) (SentMessage, error)
	SendMedia(ctx context.Context, recipient string, mediaURL string, caption string) (SentMessage, error)
}

// ProfileFetcher resolves display information for a channel identity.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, identity string) (Profile, error)
}

// AttachmentStore persists inbound media and returns a stable reference.
type AttachmentStore interface {
	PersistAttachment(ctx context.Context, companyID int64, ticketID string, att Attachment) (string, error)
}

// Registry maps endpoint ids to their live Sender and ProfileFetcher.
// Endpoint connect/disconnect lifecycles register and remove entries;
// the engine only reads.
type Registry struct {
	mu       sync.RWMutex
	senders  map[string]Sender
	profiles map[string]ProfileFetcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		senders:  make(map[string]Sender),
		profiles: make(map[string]ProfileFetcher),
	}
}

// Register binds an endpoint id to its transport capabilities.
func (r *Registry) Register(endpointID string, sender Sender, profiles ProfileFetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[endpointID] = sender
	if profiles != nil {
		r.profiles[endpointID] = profiles
	}
}

// Remove drops an endpoint's capabilities on disconnect.
func (r *Registry) Remove(endpointID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.senders, endpointID)
	delete(r.profiles, endpointID)
}

// Active returns how many endpoints currently have a live sender.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.senders)
}

// Sender returns the Sender for an endpoint, if connected.
func (r *Registry) Sender(endpointID string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[endpointID]
	return s, ok
}

// Profiles returns the ProfileFetcher for an endpoint, if any.
func (r *Registry) Profiles(endpointID string) (ProfileFetcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[endpointID]
	return p, ok
}
