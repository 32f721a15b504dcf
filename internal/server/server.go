// Package server exposes roadmaps and credential records over HTTP.
//
// Endpoints:
//
//	GET  /api/roadmap?projectId=ID   stored aggregate, or null
//	POST /api/roadmap?projectId=ID   replace the aggregate
//	POST /api/login                  project user login
//	POST /api/admin/login            administrator login
//	POST /api/admin/create-user      register a project user
//	POST /api/admin/setup            seed records and migrate legacy data
//	GET  /healthz                    Redis connectivity
//
// Errors are JSON objects {"error": "...", "details": "..."}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// maxBodyBytes bounds request bodies; whole roadmaps are posted at once.
const maxBodyBytes = 10 << 20

// Options configures the server. Admin and DefaultUser are the records
// seeded by /api/admin/setup.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Admin        roadmap.AdminCredentials
	DefaultUser  roadmap.User
}

// Server is the roadmapper HTTP API.
type Server struct {
	client *roadmap.Client
	opts   Options
	server *http.Server
}

// New creates a server backed by client.
func New(client *roadmap.Client, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	return &Server{
		client: client,
		opts:   opts,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/roadmap", s.roadmapHandler)
	mux.HandleFunc("/api/login", s.loginHandler)
	mux.HandleFunc("/api/admin/login", s.adminLoginHandler)
	mux.HandleFunc("/api/admin/create-user", s.createUserHandler)
	mux.HandleFunc("/api/admin/setup", s.setupHandler)
	mux.HandleFunc("/healthz", s.healthCheckHandler)
	return mux
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	log.Printf("[Server] Listening on %s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		log.Printf("[Server] Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Server] Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// logEvent logs a structured event in JSON format.
func logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "server"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Server] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
