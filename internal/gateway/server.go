// Package gateway exposes the HTTP surface of the guildhall client: local
// session CRUD, commission and meeting relays to the guild daemon, roster
// discovery, and the aggregated dashboard view.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/guildhall/internal/config"
	"github.com/kingrea/guildhall/internal/daemon"
	"github.com/kingrea/guildhall/internal/dashboard"
	"github.com/kingrea/guildhall/internal/roster"
	"github.com/kingrea/guildhall/internal/session"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// daemonOfflineMessage is the one fixed body every relayed endpoint answers
// with when the daemon process cannot be reached.
const daemonOfflineMessage = "guild daemon is not running"

// Logger is the minimal logging surface the server needs.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Deps are the collaborators the gateway forwards to. They are constructed
// explicitly at startup so tests can substitute fakes.
type Deps struct {
	Sessions  *session.Store
	Daemon    *daemon.Client
	RosterDir string
	Projects  func() ([]config.Project, error)
}

// Server wraps the HTTP listener and handlers for the guildhall gateway.
type Server struct {
	settings Settings
	deps     Deps
	logger   Logger
	clock    func() time.Time

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a gateway server using the provided settings and
// collaborators.
func NewServer(settings Settings, deps Deps, opts ...Option) *Server {
	s := &Server{
		settings: settings,
		deps:     deps,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gateway: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("gateway: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: s.settings.ReadHeaderTimeout,
		IdleTimeout:       s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("gateway: serve error: %v", err)
		}
	}()
	s.logger.Printf("gateway: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests
// to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return "http://" + s.settings.Address()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /daemon/health", s.handleDaemonHealth)
	mux.HandleFunc("GET /roster", s.handleRoster)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)

	mux.HandleFunc("GET /sessions", s.handleSessionList)
	mux.HandleFunc("POST /sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("PATCH /sessions/{id}", s.handleSessionUpdate)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("POST /sessions/{id}/messages", s.handleSessionAppend)
	mux.HandleFunc("POST /sessions/{id}/complete", s.handleSessionComplete)

	mux.HandleFunc("POST /commissions", s.handleCommissionCreate)
	mux.HandleFunc("PUT /commissions/{id}", s.handleCommissionUpdate)
	mux.HandleFunc("DELETE /commissions/{id}", s.handleCommissionDelete)
	mux.HandleFunc("POST /commissions/{id}/dispatch", s.handleCommissionDispatch)

	mux.HandleFunc("POST /meetings", s.handleMeetingCreate)
	mux.HandleFunc("POST /meetings/{id}/messages", s.handleMeetingMessage)
	mux.HandleFunc("POST /meetings/{id}/accept", s.handleMeetingAccept)
	mux.HandleFunc("POST /meetings/{id}/interrupt", s.handleMeetingInterrupt)
	mux.HandleFunc("POST /meetings/{id}/defer", s.handleMeetingDefer)
	mux.HandleFunc("DELETE /meetings/{id}", s.handleMeetingDelete)
	return mux
}

func (s *Server) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(time.Since(s.startTime).Seconds())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         string(s.Status()),
		"uptime_seconds": s.uptimeSeconds(),
	})
}

// handleDaemonHealth never fails: the daemon's absence collapses into a
// {"status":"offline"} document.
func (s *Server) handleDaemonHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Daemon.Health(r.Context()))
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	workers, err := roster.LoadDir(s.deps.RosterDir)
	if err != nil {
		s.logger.Printf("gateway: roster: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("roster unavailable"))
		return
	}
	if workers == nil {
		workers = []roster.Worker{}
	}
	writeJSON(w, http.StatusOK, workers)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var projects []config.Project
	if s.deps.Projects != nil {
		var err error
		projects, err = s.deps.Projects()
		if err != nil {
			s.logger.Printf("gateway: project registry: %v", err)
			writeJSON(w, http.StatusInternalServerError, errorBody("project registry unavailable"))
			return
		}
	}
	roots := make([]dashboard.Project, 0, len(projects))
	for _, p := range projects {
		roots = append(roots, dashboard.Project{Name: p.Name, Path: p.Path})
	}
	snap, err := dashboard.New(roots).Load()
	if err != nil {
		s.logger.Printf("gateway: dashboard: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("dashboard unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// decodeBody parses a JSON object body with the configured size limit.
// An empty body yields an empty map so optional payloads stay optional.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: read body: %w", err)
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("gateway: invalid JSON body: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

// stringField extracts a trimmed string value, empty when absent or not a
// string.
func stringField(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return strings.TrimSpace(value)
}

// daemonFailure translates client errors into responses. The unavailable
// sentinel is the only place this layer synthesizes its own error body.
func (s *Server) daemonFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, daemon.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(daemonOfflineMessage))
	case errors.Is(err, context.Canceled):
		// The inbound client went away; nothing left to answer.
	default:
		s.logger.Printf("gateway: daemon call: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("daemon call failed"))
	}
}

// relay forwards a daemon JSON response untouched: same status code, same
// body bytes.
func (s *Server) relay(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Printf("gateway: relay body: %v", err)
	}
}

// relayStream forwards a daemon event stream chunk by chunk, flushing after
// every read so bytes reach the client as the daemon emits them. The body is
// never inspected or re-chunked. When the inbound client disconnects, the
// request context cancels the upstream read and the copy loop exits.
func (s *Server) relayStream(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(resp.StatusCode)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				s.logger.Printf("gateway: stream relay: %v", err)
			}
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
