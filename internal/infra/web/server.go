package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-sms-bridge/internal/infra/logging"
	"telegram-sms-bridge/internal/infra/metrics"
)

// InboundRelay is the slice of the relay use case the webhook needs.
type InboundRelay interface {
	RelayInbound(ctx context.Context, number, body string) (bool, error)
}

// Server receives SMS delivery webhooks from the provider and hands them to
// the inbound relay.
type Server struct {
	relay   InboundRelay
	smsPath string
	log     *zerolog.Logger
}

func NewServer(relay InboundRelay, smsPath string, logger *zerolog.Logger) *Server {
	if smsPath == "" {
		smsPath = "/sms"
	}
	return &Server{relay: relay, smsPath: smsPath, log: logger}
}

// Router builds the chi router with the webhook, health and metrics routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post(s.smsPath, s.handleInboundSMS)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// handleInboundSMS processes one provider delivery. The provider retries on
// non-200, so an unmapped sender still answers 200: dropping it is the
// intended outcome, not a fault.
func (s *Server) handleInboundSMS(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	log := logging.With(ctx, s.log)

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("malformed webhook form")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	number := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if number == "" {
		log.Warn().Msg("webhook without From field")
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}

	log.Debug().Str("number", number).Str("body", body).Msg("received sms")

	delivered, err := s.relay.RelayInbound(ctx, number, body)
	if err != nil {
		metrics.IncInbound("failed")
		log.Error().Err(err).Str("number", number).Msg("failed to deliver inbound SMS")
		http.Error(w, "delivery failed", http.StatusInternalServerError)
		return
	}
	if delivered {
		metrics.IncInbound("delivered")
	} else {
		metrics.IncInbound("dropped")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
