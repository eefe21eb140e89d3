// Package metrics registers the messaging counters and histograms.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	MessagesSent         *prometheus.CounterVec
	ConversationsCreated prometheus.Counter
	GroupsCreated        prometheus.Counter
	GroupsDeleted        prometheus.Counter
	MembersLeft          prometheus.Counter
	InvitesIssued        prometheus.Counter
	InvitesRedeemed      *prometheus.CounterVec
	ReportsFiled         *prometheus.CounterVec
	SearchDuration       prometheus.Histogram
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New registers metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers metrics on reg. Tests pass prometheus.NewRegistry() so
// repeated construction does not panic on duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MessagesSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fellowship_messages_sent_total",
			Help: "Total number of messages sent, by target kind",
		}, []string{"target"}),
		ConversationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "fellowship_conversations_created_total",
			Help: "Total number of direct conversations created",
		}),
		GroupsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "fellowship_groups_created_total",
			Help: "Total number of groups created",
		}),
		GroupsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "fellowship_groups_deleted_total",
			Help: "Total number of groups deleted, explicitly or by the last member leaving",
		}),
		MembersLeft: f.NewCounter(prometheus.CounterOpts{
			Name: "fellowship_group_members_left_total",
			Help: "Total number of group departures",
		}),
		InvitesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "fellowship_invites_issued_total",
			Help: "Total number of group invite links issued",
		}),
		InvitesRedeemed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fellowship_invites_redeemed_total",
			Help: "Total number of invite redemptions, by outcome",
		}, []string{"outcome"}),
		ReportsFiled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fellowship_group_reports_total",
			Help: "Total number of group reports, by reason",
		}, []string{"reason"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fellowship_search_duration_seconds",
			Help:    "Duration of unified search requests",
			Buckets: latencyBuckets,
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fellowship_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route pattern",
			Buckets: latencyBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// ObserveSearch records the duration of a search.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSearch(start time.Time) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(time.Since(start).Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency labelled by the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
