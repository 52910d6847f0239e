package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spec-kit/inbox-service/internal/channel"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/observability"
)

// In-memory repository fakes. They hand out the stored pointers, which
// matches how the services mutate and re-save entities.

type memTickets struct {
	mu   sync.Mutex
	byID map[string]*domain.Ticket
	seq  int

	// One-shot park point for concurrency tests: the next Update signals
	// parked, then waits on release before proceeding.
	updateParked  chan struct{}
	updateRelease chan struct{}
}

func (m *memTickets) parkNextUpdate(parked, release chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateParked = parked
	m.updateRelease = release
}

func newMemTickets() *memTickets {
	return &memTickets{byID: make(map[string]*domain.Ticket)}
}

func (m *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", m.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	m.byID[ticket.ID] = ticket
	return nil
}

func (m *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	parked, release := m.updateParked, m.updateRelease
	m.updateParked, m.updateRelease = nil, nil
	m.mu.Unlock()
	if parked != nil {
		close(parked)
		<-release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	m.byID[ticket.ID] = ticket
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

func (m *memTickets) FindActive(_ context.Context, contactID, endpointID string, isGroup bool) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ticket := range m.byID {
		if ticket.ContactID == contactID && ticket.EndpointID == endpointID &&
			ticket.IsGroup == isGroup && ticket.Status != domain.TicketStatusClosed {
			return ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTickets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

type memTrackings struct {
	mu   sync.Mutex
	byID map[string]*domain.TicketTracking
	seq  int
}

func newMemTrackings() *memTrackings {
	return &memTrackings{byID: make(map[string]*domain.TicketTracking)}
}

func (m *memTrackings) Create(_ context.Context, tracking *domain.TicketTracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	tracking.ID = fmt.Sprintf("tracking-%d", m.seq)
	tracking.CreatedAt = time.Now()
	m.byID[tracking.ID] = tracking
	return nil
}

func (m *memTrackings) Update(_ context.Context, tracking *domain.TicketTracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[tracking.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[tracking.ID] = tracking
	return nil
}

func (m *memTrackings) FindOpenByTicket(_ context.Context, ticketID string) (*domain.TicketTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tracking := range m.byID {
		if tracking.TicketID == ticketID && tracking.FinishedAt == nil {
			return tracking, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTrackings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

type memContacts struct {
	mu   sync.Mutex
	byID map[string]*domain.Contact
	seq  int
}

func newMemContacts() *memContacts {
	return &memContacts{byID: make(map[string]*domain.Contact)}
}

func (m *memContacts) Create(_ context.Context, contact *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	contact.ID = fmt.Sprintf("contact-%d", m.seq)
	m.byID[contact.ID] = contact
	return nil
}

func (m *memContacts) Update(_ context.Context, contact *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[contact.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[contact.ID] = contact
	return nil
}

func (m *memContacts) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return contact, nil
}

func (m *memContacts) GetByIdentity(_ context.Context, companyID int64, ch domain.ChannelType, number string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, contact := range m.byID {
		if contact.CompanyID == companyID && contact.Channel == ch && contact.Number == number {
			return contact, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memEndpoints struct {
	byID map[string]*domain.ChannelEndpoint
}

func newMemEndpoints(endpoints ...*domain.ChannelEndpoint) *memEndpoints {
	m := &memEndpoints{byID: make(map[string]*domain.ChannelEndpoint)}
	for _, e := range endpoints {
		m.byID[e.ID] = e
	}
	return m
}

func (m *memEndpoints) GetByID(_ context.Context, id string) (*domain.ChannelEndpoint, error) {
	endpoint, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return endpoint, nil
}

func (m *memEndpoints) GetByPageUserID(_ context.Context, pageUserID string) (*domain.ChannelEndpoint, error) {
	for _, endpoint := range m.byID {
		if endpoint.PageUserID == pageUserID {
			return endpoint, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memSettings struct {
	byCompany map[int64]*domain.CompanySettings
}

func newMemSettings(settings ...*domain.CompanySettings) *memSettings {
	m := &memSettings{byCompany: make(map[int64]*domain.CompanySettings)}
	for _, s := range settings {
		m.byCompany[s.CompanyID] = s
	}
	return m
}

func (m *memSettings) GetByCompany(_ context.Context, companyID int64) (*domain.CompanySettings, error) {
	settings, ok := m.byCompany[companyID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return settings, nil
}

type memMessages struct {
	mu   sync.Mutex
	list []*domain.Message
	seq  int
}

func newMemMessages() *memMessages { return &memMessages{} }

func (m *memMessages) Create(_ context.Context, message *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	message.ID = fmt.Sprintf("message-%d", m.seq)
	message.CreatedAt = time.Now()
	m.list = append(m.list, message)
	return nil
}

func (m *memMessages) GetByExternalID(_ context.Context, companyID int64, externalID string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, message := range m.list {
		if message.CompanyID == companyID && message.ExternalID == externalID {
			return message, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memMessages) ListByTicket(_ context.Context, ticketID string, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, message := range m.list {
		if message.TicketID == ticketID {
			out = append(out, *message)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type memLogs struct {
	mu      sync.Mutex
	entries []domain.TicketLogEntry
}

func newMemLogs() *memLogs { return &memLogs{} }

func (m *memLogs) Create(_ context.Context, entry *domain.TicketLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = fmt.Sprintf("log-%d", len(m.entries)+1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memLogs) types() []domain.TicketLogType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TicketLogType, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry.Type)
	}
	return out
}

type memAgents struct {
	byID map[string]*domain.Agent
}

func newMemAgents(agents ...*domain.Agent) *memAgents {
	m := &memAgents{byID: make(map[string]*domain.Agent)}
	for _, a := range agents {
		m.byID[a.ID] = a
	}
	return m
}

func (m *memAgents) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	agent, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return agent, nil
}

func (m *memAgents) GetByEmail(_ context.Context, companyID int64, email string) (*domain.Agent, error) {
	for _, agent := range m.byID {
		if agent.CompanyID == companyID && agent.Email == email {
			return agent, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memQueues struct {
	byID map[string]*domain.Queue
}

func newMemQueues(queues ...*domain.Queue) *memQueues {
	m := &memQueues{byID: make(map[string]*domain.Queue)}
	for _, q := range queues {
		m.byID[q.ID] = q
	}
	return m
}

func (m *memQueues) GetByID(_ context.Context, id string) (*domain.Queue, error) {
	queue, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return queue, nil
}

type memTags struct {
	mu       sync.Mutex
	stripped []string
}

func newMemTags() *memTags { return &memTags{} }

func (m *memTags) ListByTicket(context.Context, string) ([]domain.Tag, error) {
	return nil, nil
}

func (m *memTags) RemoveKanbanTags(_ context.Context, ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stripped = append(m.stripped, ticketID)
	return nil
}

// fakeSender records outbound sends in order.
type fakeSender struct {
	mu    sync.Mutex
	ch    domain.ChannelType
	sends []sentRecord
	fail  bool
	seq   int
}

type sentRecord struct {
	Recipient string
	Body      string
}

func newFakeSender(ch domain.ChannelType) *fakeSender {
	return &fakeSender{ch: ch}
}

func (f *fakeSender) Channel() domain.ChannelType { return f.ch }

func (f *fakeSender) SendText(_ context.Context, recipient, body string) (channel.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return channel.SentMessage{}, fmt.Errorf("transport down")
	}
	f.seq++
	f.sends = append(f.sends, sentRecord{Recipient: recipient, Body: body})
	return channel.SentMessage{ExternalID: fmt.Sprintf("out-%d", f.seq), Body: body}, nil
}

func (f *fakeSender) SendMedia(ctx context.Context, recipient, mediaURL, caption string) (channel.SentMessage, error) {
	return f.SendText(ctx, recipient, mediaURL+" "+caption)
}

func (f *fakeSender) bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sends))
	for _, send := range f.sends {
		out = append(out, send.Body)
	}
	return out
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}
