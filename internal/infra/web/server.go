package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"telegram-weather-bot/internal/config"
	"telegram-weather-bot/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the ops surface: health probe, Prometheus metrics and a small
// JWT-guarded admin API.
type Server struct {
	cfg     *config.WebConfig
	statsUC usecase.StatsUseCase
	auth    *AuthManager
	log     *zerolog.Logger

	srv *http.Server
}

func NewServer(cfg *config.WebConfig, statsUC usecase.StatsUseCase, logger *zerolog.Logger) *Server {
	componentLogger := logger.With().Str("component", "web").Logger()
	return &Server{
		cfg:     cfg,
		statsUC: statsUC,
		auth:    NewAuthManager(cfg.JWTSecret, cfg.SecureCookies, cfg.SessionTTL),
		log:     &componentLogger,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(traceID())
	r.Use(recoverer(s.log))
	r.Use(requestLog(s.log))
	r.Use(timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/stats", s.handleStats)
			r.Post("/logout", s.handleLogout)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("ops server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// requireSession guards the admin endpoints with the JWT session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.JWTSecret == "" {
			s.log.Error().Msg("jwt secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
