package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

// Metrics agrupa os coletores da API e do ciclo de vida das ocorrências.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// New cria e registra os coletores num registro próprio.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "Requisições HTTP em andamento.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total de requisições HTTP.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latência das requisições HTTP em segundos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occurrences_created_total",
			Help: "Ocorrências abertas por regional.",
		}, []string{"regional_id"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occurrence_transitions_total",
			Help: "Transições aplicadas.",
		}, []string{"transition", "from", "to"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occurrence_transitions_rejected_total",
			Help: "Transições recusadas por motivo.",
		}, []string{"transition", "reason"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.created, m.transitions, m.rejected,
	)
	return m
}

// Handler expõe as métricas no formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry devolve o registro, usado em testes.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OccurrenceCreated(regionalID string) {
	m.created.WithLabelValues(regionalID).Inc()
}

func (m *Metrics) TransitionApplied(t occurrence.Transition, from, to occurrence.Status) {
	m.transitions.WithLabelValues(string(t), string(from), string(to)).Inc()
}

func (m *Metrics) TransitionRejected(t occurrence.Transition, reason string) {
	m.rejected.WithLabelValues(string(t), reason).Inc()
}

// Instrument mede volume, latência e requisições em andamento.
// A rota vem do padrão do chi para não explodir a cardinalidade com ids.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
