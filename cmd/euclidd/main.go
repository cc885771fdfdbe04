// Package main provides the euclidd construction engine server. Each
// websocket connection owns one interactive session: pointer commands come
// in, engine events go out.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"euclidcore/internal/engine"
	"euclidcore/internal/gateway"
	blobs3 "euclidcore/internal/infra/blob/s3"
	"euclidcore/internal/infra/persistence"
	"euclidcore/internal/observability"
	"euclidcore/internal/tools"
	"euclidcore/pkg/domain"
)

const sessionTimeout = 30 * time.Minute

// command is the inbound wire message.
type command struct {
	Type string  `json:"type"` // select_tool | pointer_down | pointer_move | clear
	Tool string  `json:"tool,omitempty"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
}

// eventFrame is the outbound wire message wrapping an engine event.
type eventFrame struct {
	Event   string       `json:"event"`
	Payload domain.Event `json:"payload"`
}

// Session owns one controller and its outbound event stream. Events is never
// closed; the done channel ends the writer instead, so concurrent publishers
// can never hit a closed channel.
type Session struct {
	ID         string
	Controller *tools.Controller
	Events     chan eventFrame
	done       chan struct{}
	// lastUsed is UnixNano; the connection loop writes it while the reaper
	// reads it, so it must be atomic.
	lastUsed atomic.Int64
}

func (s *Session) touch() { s.lastUsed.Store(time.Now().UnixNano()) }

// LastUsed returns the time of the session's most recent activity.
func (s *Session) LastUsed() time.Time { return time.Unix(0, s.lastUsed.Load()) }

// SessionManager tracks live sessions and reaps idle ones.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	logger   observability.Logger
	metrics  observability.MetricsRecorder
	gw       *gateway.Gateway
	archive  domain.SpaceArchive
	exporter *blobs3.Exporter
}

// NewSessionManager creates a manager and starts the idle reaper.
func NewSessionManager(logger observability.Logger, metrics observability.MetricsRecorder, gw *gateway.Gateway, archive domain.SpaceArchive, exporter *blobs3.Exporter) *SessionManager {
	sm := &SessionManager{
		sessions: make(map[string]*Session),
		logger:   logger,
		metrics:  metrics,
		gw:       gw,
		archive:  archive,
		exporter: exporter,
	}
	go sm.reapLoop()
	return sm
}

// CreateSession builds a session, restoring any archived snapshot for its id.
// A second connection presenting a live session id is rejected; it must not
// silently replace the first.
func (sm *SessionManager) CreateSession(id string) (*Session, error) {
	if id == "" {
		id = generateID()
	}
	session := &Session{
		ID:     id,
		Events: make(chan eventFrame, 256),
		done:   make(chan struct{}),
	}
	session.touch()
	sink := domain.SinkFunc(func(ev domain.Event) {
		select {
		case session.Events <- eventFrame{Event: ev.EventName(), Payload: ev}:
		default:
			// Slow consumer: drop rather than stall the interaction path.
		}
	})

	space := engine.NewSpace()
	if sm.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		snapshot, ok, err := sm.archive.LoadLatest(ctx, id)
		cancel()
		switch {
		case err != nil:
			sm.logger.Warn("restore session snapshot", "session", id, "err", err.Error())
		case ok:
			if err := space.Restore(snapshot); err != nil {
				sm.logger.Warn("rejected archived snapshot", "session", id, "err", err.Error())
			}
		}
	}

	session.Controller = tools.NewController(space, tools.Config{
		SessionID: id,
		Logger:    sm.logger,
		Metrics:   sm.metrics,
		Sink:      sink,
		Gateway:   sm.gw,
		Archive:   sm.archive,
	})

	sm.mu.Lock()
	if _, ok := sm.sessions[id]; ok {
		sm.mu.Unlock()
		return nil, fmt.Errorf("session %q already active", id)
	}
	sm.sessions[id] = session
	sm.mu.Unlock()
	sm.logger.Info("session created", "session", id)
	return session, nil
}

// GetSession retrieves a session by id.
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// DeleteSession drops a session from the manager.
func (sm *SessionManager) DeleteSession(id string) {
	sm.mu.Lock()
	delete(sm.sessions, id)
	sm.mu.Unlock()
}

// Publish fans a gateway event (connectivity changes, unlock grants) out to
// every live session. Implements domain.EventSink.
func (sm *SessionManager) Publish(ev domain.Event) {
	frame := eventFrame{Event: ev.EventName(), Payload: ev}
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, session := range sm.sessions {
		select {
		case session.Events <- frame:
		default:
		}
	}
}

func (sm *SessionManager) reapLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		var stale []string
		sm.mu.RLock()
		for id, s := range sm.sessions {
			if now.Sub(s.LastUsed()) > sessionTimeout {
				stale = append(stale, id)
			}
		}
		sm.mu.RUnlock()
		for _, id := range stale {
			sm.DeleteSession(id)
			sm.logger.Info("session expired", "session", id)
		}
	}
}

// Server exposes the websocket interaction endpoint and auxiliary routes.
type Server struct {
	sm       *SessionManager
	upgrader websocket.Upgrader
}

// NewServer creates the HTTP server facade.
func NewServer(sm *SessionManager) *Server {
	return &Server{
		sm: sm,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// handleSession upgrades to a websocket and runs one interactive session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sm.CreateSession(r.URL.Query().Get("session"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	defer s.sm.DeleteSession(session.ID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sm.logger.Warn("websocket upgrade failed", "err", err.Error())
		return
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(map[string]string{"event": "session_ready", "session": session.ID}); err != nil {
		return
	}

	// Single writer goroutine; gorilla connections allow one concurrent writer.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case frame := <-session.Events:
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			case <-session.done:
				return
			}
		}
	}()

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		session.touch()
		s.dispatch(session, cmd)
	}
	close(session.done)
	<-writerDone
}

func (s *Server) dispatch(session *Session, cmd command) {
	ctrl := session.Controller
	switch cmd.Type {
	case "select_tool":
		tool, err := tools.ParseTool(cmd.Tool)
		if err != nil {
			s.sm.logger.Debug("ignoring command", "err", err.Error())
			return
		}
		ctrl.SelectTool(tool)
	case "pointer_down":
		ctrl.PointerDown(domain.Position{X: cmd.X, Y: cmd.Y})
	case "pointer_move":
		ctrl.PointerMove(domain.Position{X: cmd.X, Y: cmd.Y})
	case "clear":
		ctrl.Clear()
	default:
		s.sm.logger.Debug("ignoring command", "type", cmd.Type)
	}
}

// handleExport uploads the session snapshot to the configured bucket and
// returns a presigned share link.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.sm.exporter == nil {
		http.Error(w, "snapshot export not configured", http.StatusNotImplemented)
		return
	}
	session := s.sm.GetSession(r.URL.Query().Get("session"))
	if session == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	snapshot := session.Controller.Space().Snapshot()
	key, err := s.sm.exporter.Export(ctx, session.ID, snapshot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	url, err := s.sm.exporter.ShareURL(ctx, session.ID, 15*time.Minute)
	if err != nil {
		s.sm.logger.Warn("presign export", "session", session.ID, "err", err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"key": key, "url": url})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func main() {
	logger := observability.NewJSONLogger(os.Stdout)

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewPrometheusRecorder(registry)
	if err != nil {
		logger.Error("register metrics", "err", err.Error())
		os.Exit(1)
	}

	archive, closeArchive, err := persistence.OpenFromEnv()
	if err != nil {
		logger.Error("open archive", "err", err.Error())
		os.Exit(1)
	}
	defer func() { _ = closeArchive() }()

	var exporter *blobs3.Exporter
	if os.Getenv("EUCLIDCORE_BLOB_S3_BUCKET") != "" {
		exporter, err = blobs3.OpenFromEnv(context.Background())
		if err != nil {
			logger.Error("open s3 exporter", "err", err.Error())
			os.Exit(1)
		}
	}

	sm := NewSessionManager(logger, metrics, nil, archive, exporter)
	if remote := os.Getenv("EUCLIDCORE_REMOTE_URL"); remote != "" {
		// The session manager fans gateway events out to every live session.
		gw := gateway.New(gateway.Config{BaseURL: remote, Logger: logger, Metrics: metrics, Sink: sm})
		defer gw.Close()
		sm.gw = gw
	}
	server := NewServer(sm)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/session", server.handleSession)
	mux.HandleFunc("/api/export", server.handleExport)
	mux.HandleFunc("/healthz", server.handleHealthz)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	logger.Info("euclidd listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Error("server stopped", "err", err.Error())
		os.Exit(1)
	}
}

func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
