package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"truth-or-twist/internal/app"
	"truth-or-twist/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// Server exposes the game service over REST and a websocket command channel.
type Server struct {
	service *app.GameService
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	ws      *WSHandler
}

func NewServer(service *app.GameService, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		service: service,
		metrics: m,
		log:     log,
		ws:      NewWSHandler(service, log),
	}
}

// Handler builds the routed handler with request IDs and panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.ws.ServeWS)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.route(r, "/rooms", s.createRoom, http.MethodPost)
	s.route(r, "/rooms/{roomId}", s.roomState, http.MethodGet)
	s.route(r, "/rooms/{roomId}/players", s.joinRoom, http.MethodPost)
	s.route(r, "/rooms/{roomId}/start", s.startGame, http.MethodPost)
	s.route(r, "/rooms/{roomId}/submissions", s.submitAnswer, http.MethodPost)
	s.route(r, "/rooms/{roomId}/score", s.scoreRound, http.MethodPost)
	s.route(r, "/leaderboard", s.leaderboard, http.MethodGet)
	s.route(r, "/players/{playerId}", s.playerProfile, http.MethodGet)
	s.route(r, "/players/{playerId}", s.registerPlayer, http.MethodPut)
	s.route(r, "/players/{playerId}/results", s.reportResult, http.MethodPost)
	s.route(r, "/week", s.weeklyTopic, http.MethodGet)
	s.route(r, "/week/questions", s.weeklyQuestions, http.MethodGet)

	return handlers.RecoveryHandler(handlers.RecoveryLogger(s.log))(r)
}

func (s *Server) route(r *mux.Router, path string, h http.HandlerFunc, method string) {
	var handler http.Handler = h
	if s.metrics != nil {
		handler = s.metrics.WrapHandler(path, handler)
	}
	r.Handle(path, handler).Methods(method)
}

// requestID propagates X-Request-ID, generating one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
