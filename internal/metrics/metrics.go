package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "outercircle"

// Collision stages.
const (
	StageCheck  = "check"
	StageInsert = "insert"
)

// Metrics holds the application's Prometheus collectors on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	codesIssued       prometheus.Counter
	codeCollisions    *prometheus.CounterVec
	messagesSubmitted prometheus.Counter
	messageRejections *prometheus.CounterVec
	messagesDeleted   prometheus.Counter
	requestDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and process collectors, on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_issued_total",
			Help:      "Total codes generated and registered.",
		}),
		codeCollisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Total generated code candidates that were already taken.",
		}, []string{"stage"}),
		messagesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_submitted_total",
			Help:      "Total messages successfully stored.",
		}),
		messageRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_rejections_total",
			Help:      "Total message submissions rejected by validation.",
		}, []string{"reason"}),
		messagesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_deleted_total",
			Help:      "Total messages removed.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.codesIssued,
		m.codeCollisions,
		m.messagesSubmitted,
		m.messageRejections,
		m.messagesDeleted,
		m.requestDuration,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CodeIssued() {
	if m == nil {
		return
	}
	m.codesIssued.Inc()
}

func (m *Metrics) CodeCollision(stage string) {
	if m == nil {
		return
	}
	m.codeCollisions.WithLabelValues(stage).Inc()
}

func (m *Metrics) MessageSubmitted() {
	if m == nil {
		return
	}
	m.messagesSubmitted.Inc()
}

func (m *Metrics) MessageRejected(reason string) {
	if m == nil {
		return
	}
	m.messageRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) MessageDeleted() {
	if m == nil {
		return
	}
	m.messagesDeleted.Inc()
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
