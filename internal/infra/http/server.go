package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/infra/adapters/slackbot"
	"slack-gpt-sessions/internal/infra/logging"
)

const maxBody = 1 << 20

// Sink receives verified Slack deliveries.
type Sink interface {
	Message(ctx context.Context, ev model.MessageEvent) error
	Command(ctx context.Context, cmd model.SlashCommand) error
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Port          int
	SigningSecret string
	// SlackRoutes mounts the Events API and slash command endpoints.
	SlackRoutes bool
}

// Server exposes health, metrics and, in HTTP mode, the signed Slack endpoints.
type Server struct {
	opts   Options
	sink   Sink
	db     Pinger
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(opts Options, sink Sink, db Pinger, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()
	s := &Server{opts: opts, sink: sink, db: db, log: &l}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router; exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), AccessLog(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	if s.opts.SlackRoutes && s.sink != nil {
		r.Group(func(r chi.Router) {
			r.Use(AckDeadline(3 * time.Second))
			r.Post("/slack/events", s.handleEvents)
			r.Post("/slack/commands", s.handleCommands)
		})
	}
	return r
}

// Start blocks until the server stops. It returns nil after Shutdown, even
// when Shutdown ran first.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.opts.Port).Bool("slack_routes", s.opts.SlackRoutes).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// readVerified reads the body and checks the Slack request signature.
func (s *Server) readVerified(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, err
	}
	sv, err := slack.NewSecretsVerifier(r.Header, s.opts.SigningSecret)
	if err != nil {
		return nil, err
	}
	if _, err := sv.Write(body); err != nil {
		return nil, err
	}
	if err := sv.Ensure(); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)
	body, err := s.readVerified(r)
	if err != nil {
		log.Warn().Err(err).Msg("rejected slack event")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch ev.Type {
	case slackevents.URLVerification:
		var ch slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &ch); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(ch.Challenge))
		return
	case slackevents.CallbackEvent:
		if msg, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			if err := s.sink.Message(r.Context(), slackbot.FromMessageEvent(msg)); err != nil {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)
	body, err := s.readVerified(r)
	if err != nil {
		log.Warn().Err(err).Msg("rejected slash command")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := s.sink.Command(r.Context(), slackbot.FromSlashCommand(cmd)); err != nil {
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}
	// empty 200 acks without a visible response
	w.WriteHeader(http.StatusOK)
}
