package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"truth-or-twist/internal/domain"
)

// Metrics implements app.Observer on top of Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	roomsCreated      prometheus.Counter
	submissions       prometheus.Counter
	roundsScored      prometheus.Counter
	gamesFinished     prometheus.Counter
	oracleCalls       *prometheus.CounterVec
	oracleDuration    prometheus.Histogram
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twist_rooms_created_total",
			Help: "Total rooms created.",
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twist_submissions_total",
			Help: "Total accepted answer submissions.",
		}),
		roundsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twist_rounds_scored_total",
			Help: "Total rounds committed.",
		}),
		gamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twist_games_finished_total",
			Help: "Total games that reached the final round.",
		}),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twist_oracle_calls_total",
			Help: "Oracle calls by outcome.",
		}, []string{"outcome"}),
		oracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "twist_oracle_duration_seconds",
			Help:    "Histogram of oracle call durations.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.roomsCreated,
		m.submissions,
		m.roundsScored,
		m.gamesFinished,
		m.oracleCalls,
		m.oracleDuration,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

// Registry is exposed for tests and for registering process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RoomCreated() {
	m.roomsCreated.Inc()
}

func (m *Metrics) SubmissionRecorded() {
	m.submissions.Inc()
}

func (m *Metrics) OracleCall(elapsed time.Duration, err error) {
	m.oracleDuration.Observe(elapsed.Seconds())
	m.oracleCalls.WithLabelValues(oracleOutcome(err)).Inc()
}

func (m *Metrics) RoundScored(gameOver bool) {
	m.roundsScored.Inc()
	if gameOver {
		m.gamesFinished.Inc()
	}
}

func oracleOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrOracleFailure):
		return "rejected"
	default:
		return "error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency under route.
// Not for websocket routes: the recorder does not implement http.Hijacker.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
