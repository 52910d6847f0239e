package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the engine's prometheus collectors.
type Metrics struct {
	InboundEvents    *prometheus.CounterVec
	DuplicateEvents  *prometheus.CounterVec
	PromptsSent      *prometheus.CounterVec
	SendFailures     *prometheus.CounterVec
	MenuRenders      prometheus.Counter
	CoalescedRenders prometheus.Counter
	TicketsClosed    prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
	RequestErrors    *prometheus.CounterVec
}

// NewMetrics registers collectors on the given registerer. Passing nil uses
// the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		InboundEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inbox_inbound_events_total",
			Help: "Inbound channel events accepted by the pipeline.",
		}, []string{"channel"}),
		DuplicateEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inbox_duplicate_events_total",
			Help: "Inbound events dropped by external message id dedup.",
		}, []string{"channel"}),
		PromptsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inbox_prompts_sent_total",
			Help: "Outbound prompts by kind (consent, rating, menu, chatbot).",
		}, []string{"kind"}),
		SendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inbox_channel_send_failures_total",
			Help: "Outbound sends that failed after retry.",
		}, []string{"channel"}),
		MenuRenders: factory.NewCounter(prometheus.CounterOpts{
			Name: "inbox_menu_renders_total",
			Help: "Queue menus actually delivered.",
		}),
		CoalescedRenders: factory.NewCounter(prometheus.CounterOpts{
			Name: "inbox_menu_renders_coalesced_total",
			Help: "Menu renders cancelled by a newer render in the debounce window.",
		}),
		TicketsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "inbox_tickets_closed_total",
			Help: "Tickets moved to closed status.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inbox_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inbox_http_request_errors_total",
			Help: "HTTP requests rejected with a domain error code.",
		}, []string{"path", "method", "code"}),
	}
}

// RecordRequest observes one HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordError counts one domain error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.RequestErrors.WithLabelValues(path, method, code).Inc()
}
