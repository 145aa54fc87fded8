package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/rpgconsent/core/session"
)

// StatsSource reports the current session store size.
type StatsSource interface {
	Stats() session.Stats
}

// Metrics owns a Prometheus registry with session, login, live client and HTTP metrics.
// It implements session.Observer.
type Metrics struct {
	registry  *prometheus.Registry
	namespace string

	sessionsCreated prometheus.Counter
	tokensRotated   prometheus.Counter
	logins          *prometheus.CounterVec
	liveClients     prometheus.Gauge
	liveFrames      *prometheus.CounterVec

	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   prometheus.Gauge
}

var _ session.Observer = (*Metrics)(nil)

// New creates the registry and registers the Go and process collectors.
func New(cfg Config) *Metrics {
	ns := cfg.Namespace
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry:  r,
		namespace: ns,
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "session", Name: "created_total",
			Help: "Sessions created for unknown or missing tokens.",
		}),
		tokensRotated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "session", Name: "rotations_total",
			Help: "Session token rotations on login and logout.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "auth", Name: "login_attempts_total",
			Help: "Login attempts by identity provider and result.",
		}, []string{"provider", "result"}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: "live", Name: "clients",
			Help: "Connected live UI clients.",
		}),
		liveFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "live", Name: "frames_total",
			Help: "Frames pushed to live UI clients by type.",
		}, []string{"type"}),
		httpReqCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "http_requests_total",
		}, []string{"method", "route", "status"}),
		httpDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "http_request_duration_seconds", Buckets: buckets,
		}, []string{"method", "route", "status"}),
		httpInfl: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "http_requests_inflight",
		}),
	}

	r.MustRegister(m.sessionsCreated, m.tokensRotated, m.logins)
	r.MustRegister(m.liveClients, m.liveFrames)
	r.MustRegister(m.httpReqCnt, m.httpDur, m.httpInfl)

	return m
}

// TrackSessions exports the number of active sessions, read on every scrape.
func (m *Metrics) TrackSessions(src StatsSource) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "session", Name: "active",
		Help: "Distinct sessions held in memory.",
	}, func() float64 {
		return float64(src.Stats().Active)
	}))
}

func (m *Metrics) SessionCreated() {
	m.sessionsCreated.Inc()
}

func (m *Metrics) TokenRotated() {
	m.tokensRotated.Inc()
}

func (m *Metrics) LoginAttempt(provider string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.WithLabelValues(provider, result).Inc()
}

// ClientConnected and ClientDisconnected track live UI connections.
func (m *Metrics) ClientConnected() {
	m.liveClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	m.liveClients.Dec()
}

// FrameSent counts a frame pushed to a live client.
func (m *Metrics) FrameSent(frameType string) {
	m.liveFrames.WithLabelValues(frameType).Inc()
}

// Middleware records request count, duration and in-flight requests.
// Routes are labelled with the chi route pattern to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInfl.Inc()
		defer m.httpInfl.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := strconv.Itoa(sw.status)
		m.httpReqCnt.WithLabelValues(r.Method, route, status).Inc()
		m.httpDur.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	w.wroteHeader = true
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.wroteHeader = true
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
