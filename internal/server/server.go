package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/deepsight/internal/batch"
	"github.com/MeKo-Tech/deepsight/internal/config"
	"github.com/MeKo-Tech/deepsight/internal/pipeline"
	"github.com/MeKo-Tech/deepsight/internal/version"
)

// batchCoordinator is the coordinator surface the server needs.
type batchCoordinator interface {
	Start(ctx context.Context, folder string, recursive bool) (string, error)
	Status(batchID string) (batch.Record, bool)
	AllStatuses() map[string]batch.Record
	Delete(batchID string) error
}

// imageProcessor runs the single-image pipeline.
type imageProcessor interface {
	Process(ctx context.Context, imagePath string, saveToStorage bool) (*pipeline.ImageResult, error)
}

// connectionChecker probes LLM reachability for health reporting.
type connectionChecker interface {
	CheckConnection(ctx context.Context) bool
}

// Server exposes batch and single-image processing over HTTP.
type Server struct {
	coordinator      batchCoordinator
	processor        imageProcessor
	llm              connectionChecker
	cfg              config.ServerConfig
	saveToStorage    bool
	progressInterval time.Duration
	httpServer       *http.Server
}

// New creates a server wired to its collaborators.
func New(coordinator batchCoordinator, processor imageProcessor, llm connectionChecker, cfg config.ServerConfig, saveToStorage bool) *Server {
	interval := time.Duration(cfg.ProgressIntervalSec) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Server{
		coordinator:      coordinator,
		processor:        processor,
		llm:              llm,
		cfg:              cfg,
		saveToStorage:    saveToStorage,
		progressInterval: interval,
	}
}

// Handler builds the route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /batch", s.corsMiddleware(s.handleBatchStart))
	mux.HandleFunc("GET /batches", s.corsMiddleware(s.handleBatchList))
	mux.HandleFunc("GET /batch/{id}", s.corsMiddleware(s.handleBatchStatus))
	mux.HandleFunc("DELETE /batch/{id}", s.corsMiddleware(s.handleBatchDelete))
	mux.HandleFunc("GET /batch/{id}/ws", s.handleBatchWebSocket)
	mux.HandleFunc("POST /process", s.corsMiddleware(s.handleProcess))
	mux.HandleFunc("GET /health", s.corsMiddleware(s.handleHealth))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("OPTIONS /", s.corsMiddleware(func(http.ResponseWriter, *http.Request) {}))

	return mux
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(s.cfg.TimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.TimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "version", version.Version)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
