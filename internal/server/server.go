// Package server exposes the memo processing pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"murmur/internal/api"
	"murmur/internal/logging"
	"murmur/internal/pipeline"
)

// maxRequestBytes caps the JSON request body. Base64 inflates the 25MiB audio
// cap by a third, plus envelope overhead.
const maxRequestBytes = 50 * 1024 * 1024

// Processor turns a base64 audio payload into a structured memory response.
type Processor interface {
	Process(ctx context.Context, audioBase64 string) (api.ProcessMemoryResponse, *pipeline.Error)
}

// Server hosts the processing API.
type Server struct {
	bind      string
	token     string
	logger    *slog.Logger
	processor Processor

	listener net.Listener
	server   *http.Server
}

// New builds a server bound to the given address. An empty token disables
// authentication.
func New(bind, token string, processor Processor, logger *slog.Logger) *Server {
	srv := &Server{
		bind:      strings.TrimSpace(bind),
		token:     strings.TrimSpace(token),
		logger:    logging.WithComponent(logger, "api"),
		processor: processor,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/process-memory", srv.requireAuth(srv.handleProcessMemory))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler exposes the routed handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured bind address and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, draining in-flight requests briefly.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProcessMemory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req api.ProcessMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "Recording is too large. Please keep recordings under 60 seconds.")
			return
		}
		s.writeError(w, http.StatusBadRequest, "Invalid request body. Expected JSON with an \"audio\" field.")
		return
	}

	started := time.Now()
	resp, procErr := s.processor.Process(r.Context(), req.Audio)
	if procErr != nil {
		s.logger.Warn("memory processing failed",
			logging.Int("status", procErr.Status),
			logging.String("message", procErr.Message))
		s.writeError(w, procErr.Status, procErr.Message)
		return
	}

	s.logger.Info("memory processed",
		logging.String("title", resp.Title),
		logging.String("category", resp.Category),
		logging.Duration("elapsed", time.Since(started)))
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response failed", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
