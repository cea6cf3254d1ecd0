// Package httpapi serves the chat, search and admin endpoints over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Ports aggregates the driving ports the HTTP API exposes.
type Ports struct {
	Chat     driving.ChatService
	Search   driving.SearchService
	Document driving.DocumentService
	Index    driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil || p.Search == nil || p.Document == nil || p.Index == nil {
		return ErrMissingPort
	}
	return nil
}

// Server is the HTTP API.
type Server struct {
	ports    *Ports
	settings domain.ServerSettings
	limiter  *clientLimiter
	router   chi.Router
	started  time.Time
	now      func() time.Time
}

// NewServer creates the API server and its routes.
func NewServer(ports *Ports, settings domain.ServerSettings) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	s := &Server{
		ports:    ports,
		settings: settings,
		limiter:  newClientLimiter(settings.RateLimit, settings.RateWindow),
		now:      time.Now,
	}
	s.started = s.now()
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.With(s.rateLimit).Post("/chat", s.handleChat)
		r.Get("/search", s.handleSearch)
		r.Get("/notices/recent", s.handleRecent)
		r.Get("/notices/{id}", s.handleNotice)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/index/rebuild", s.handleRebuild)
			r.Put("/index/documents/{id}", s.handleUpsertDocument)
			r.Delete("/index/documents/{id}", s.handleRemoveDocument)
			r.Post("/cache/invalidate", s.handleInvalidateCache)
			r.Get("/stats", s.handleStats)
		})
	})
	return r
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.settings.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api: listening on %s", s.settings.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
