// Package server exposes a finished analysis run over a read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"
	"github.com/tariffsim/tariffsim/pkg/analysis"
	"github.com/tariffsim/tariffsim/pkg/log"
	"github.com/tariffsim/tariffsim/pkg/types"
)

// Server serves the results of one analysis run. It holds no mutable state
// after SetResult; every endpoint is a read.
type Server struct {
	listenAddr string
	httpServer *http.Server

	result analysis.Result
	daily  []types.DailyAggregate
	trends analysis.Trends
}

// Configured initializes the Server.
// It uses lflag to register command-line flags for configuration.
func Configured() *Server {
	srv := &Server{}

	listenAddr := lflag.String("http-listen", ":8080", "HTTP server listen address for serve mode")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
	})

	return srv
}

// SetResult installs the analysis to serve. Call before Run.
func (s *Server) SetResult(result analysis.Result, daily []types.DailyAggregate) {
	s.result = result
	s.daily = daily
	s.trends = analysis.DailyTrends(daily)
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/zones", s.handleZones)
	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/daily", s.handleDaily)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return gziphandler.GzipHandler(mux)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Tariff     string                 `json:"tariff"`
		Settlement types.SettlementResult `json:"settlement"`
		Trends     analysis.Trends        `json:"trends"`
	}{
		Tariff:     s.result.Tariff,
		Settlement: s.result.Settlement,
		Trends:     s.trends,
	})
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.result.Settlement.Zones)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.result.Ledger)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.daily)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}
