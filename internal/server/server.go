// Package server wires handlers, middleware and routes, and owns process
// lifecycle: it starts the HTTP listener and the sync scheduler, and shuts
// both down gracefully on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ctc-wpm/monkeyboard/internal/config"
	"github.com/ctc-wpm/monkeyboard/internal/handler"
	"github.com/ctc-wpm/monkeyboard/internal/metrics"
	"github.com/ctc-wpm/monkeyboard/internal/middleware"
	"github.com/ctc-wpm/monkeyboard/internal/monkeytype"
	sqliteRepo "github.com/ctc-wpm/monkeyboard/internal/repository/sqlite"
	"github.com/ctc-wpm/monkeyboard/internal/service"
)

// Server holds the router and every dependency it owns. The database
// connection belongs to the server and is closed on shutdown.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	svc     *service.Service
	metrics *metrics.Manager
}

// New assembles the dependency chain: database, service, handlers, routes.
// Each layer only receives what it needs; handlers never touch the
// database and the service never touches HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var clientOpts []monkeytype.Option
	if cfg.APIBaseURL != "" {
		clientOpts = append(clientOpts, monkeytype.WithBaseURL(cfg.APIBaseURL))
	}
	if cfg.UpstreamTimeout > 0 {
		clientOpts = append(clientOpts, monkeytype.WithTimeout(cfg.UpstreamTimeout))
	}

	svc := service.New(service.Config{
		Accounts:            db,
		Tags:                db,
		Results:             db,
		NewClient:           service.DefaultClientFactory(clientOpts...),
		Logger:              logger,
		MaintainerDiscordID: cfg.MaintainerDiscordID,
		MaxPagesPerSync:     cfg.MaxPagesPerSync,
	})

	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		logger:  logger,
		db:      db,
		svc:     svc,
		metrics: metrics.New(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	accountHandler := handler.NewAccountHandler(s.svc, s.logger)
	rankingHandler := handler.NewRankingHandler(s.svc, s.logger)
	syncHandler := handler.NewSyncHandler(s.svc, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/accounts/link", accountHandler.HandleLink)
		r.Get("/accounts/{discordID}", accountHandler.HandleGet)
		r.Delete("/accounts/{discordID}", accountHandler.HandleUnlink)
		r.Post("/accounts/{discordID}/optout", accountHandler.HandleOptOut)
		r.Post("/accounts/{discordID}/results", accountHandler.HandleManualResult)
		r.Post("/accounts/{discordID}/sync", syncHandler.HandleSyncAccount)
		r.Get("/accounts/{discordID}/rankings", rankingHandler.HandleAccountRankings)

		r.Get("/rankings", rankingHandler.HandleRankings)
		r.Get("/rankings/records", rankingHandler.HandleRecords)

		r.Post("/sync", syncHandler.HandleSyncAll)
	})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and the sync scheduler until a shutdown
// signal arrives, then stops both and closes the database. In-flight
// requests get 30 seconds to finish.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()

	var wg sync.WaitGroup
	if s.cfg.SyncInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runScheduler(schedulerCtx)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.cfg.Addr),
			slog.String("database", s.cfg.DBPath),
			slog.Duration("sync_interval", s.cfg.SyncInterval),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		stopScheduler()
		wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// runScheduler drives periodic sync passes. The first pass fires one
// interval after startup, not immediately, so a crash-looping process
// cannot hammer the upstream API.
func (s *Server) runScheduler(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			s.runSyncPass(ctx)
		}
	}
}

func (s *Server) runSyncPass(ctx context.Context) {
	summary, err := s.svc.SyncAll(ctx, true)
	if summary != nil {
		s.metrics.SyncPasses.Inc()
		s.metrics.SyncFailures.Add(float64(summary.AccountsFailed))
		s.metrics.UpstreamErrors.Add(float64(summary.UpstreamFailures))
		s.metrics.ResultsIngested.Add(float64(summary.ResultsAdded))
	}
	if err != nil {
		s.logger.Error("scheduled sync pass failed", slog.Any("error", err))
	}

	if count, err := s.svc.AccountCount(ctx); err == nil {
		s.metrics.LinkedAccounts.Set(float64(count))
	}
}
