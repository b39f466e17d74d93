// Package metrics exposes Prometheus counters for the HTTP API and the
// visit flow. All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stallpass"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	signups         prometheus.Counter
	logins          *prometheus.CounterVec
	tokensIssued    prometheus.Counter
	visitsRecorded  prometheus.Counter
	visitsRejected  *prometheus.CounterVec
	resets          prometheus.Counter
}

// New registers every collector on a private registry, so tests can create
// as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Accounts created.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_tokens_issued_total",
			Help:      "Visit tokens generated by stalls.",
		}),
		visitsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_recorded_total",
			Help:      "Stall visits recorded.",
		}),
		visitsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_rejected_total",
			Help:      "Visit verifications refused, by reason.",
		}, []string{"reason"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_resets_total",
			Help:      "Admin resets of all visits.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.signups, m.logins,
		m.tokensIssued, m.visitsRecorded, m.visitsRejected, m.resets,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Signup() {
	if m != nil {
		m.signups.Inc()
	}
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) VisitTokenIssued() {
	if m != nil {
		m.tokensIssued.Inc()
	}
}

func (m *Metrics) VisitRecorded() {
	if m != nil {
		m.visitsRecorded.Inc()
	}
}

// VisitRejected counts a refused verification; reason is "invalid_token" or
// "already_visited".
func (m *Metrics) VisitRejected(reason string) {
	if m != nil {
		m.visitsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) Reset() {
	if m != nil {
		m.resets.Inc()
	}
}
