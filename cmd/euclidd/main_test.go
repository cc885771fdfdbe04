package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"euclidcore/internal/observability"
)

func newTestManager() *SessionManager {
	return NewSessionManager(observability.NopLogger{}, observability.NopMetrics{}, nil, nil, nil)
}

func wsURL(ts *httptest.Server, sessionID string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/?session=" + sessionID
}

func TestCreateSessionRejectsDuplicateLiveID(t *testing.T) {
	sm := newTestManager()

	first, err := sm.CreateSession("shared")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := sm.CreateSession("shared"); err == nil {
		t.Fatalf("second create with a live id must be rejected")
	}
	if got := sm.GetSession("shared"); got != first {
		t.Fatalf("rejected create must not replace the live session")
	}

	sm.DeleteSession("shared")
	if _, err := sm.CreateSession("shared"); err != nil {
		t.Fatalf("id must be reusable after the session ends: %v", err)
	}
}

func TestDuplicateConnectionGetsConflict(t *testing.T) {
	sm := newTestManager()
	server := NewServer(sm)
	ts := httptest.NewServer(http.HandlerFunc(server.handleSession))
	defer ts.Close()

	first, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "dup"), nil)
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}
	defer func() { _ = first.Close() }()
	var ready map[string]string
	if err := first.ReadJSON(&ready); err != nil {
		t.Fatalf("read session_ready: %v", err)
	}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "dup"), nil)
	if err == nil {
		t.Fatalf("second connection with the same session id must fail")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 conflict, got %+v", resp)
	}
}

// Drives a live connection's command loop while concurrently scanning
// sessions the way the idle reaper does.
func TestReapScanDuringLiveSession(t *testing.T) {
	sm := newTestManager()
	server := NewServer(sm)
	ts := httptest.NewServer(http.HandlerFunc(server.handleSession))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "busy"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	var ready map[string]string
	if err := conn.ReadJSON(&ready); err != nil {
		t.Fatalf("read session_ready: %v", err)
	}

	stop := make(chan struct{})
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			now := time.Now()
			sm.mu.RLock()
			for _, s := range sm.sessions {
				if now.Sub(s.LastUsed()) > sessionTimeout {
					t.Errorf("fresh session must not look idle")
				}
			}
			sm.mu.RUnlock()
		}
	}()

	for i := 0; i < 200; i++ {
		cmd := command{Type: "pointer_move", X: float64(i), Y: float64(i)}
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatalf("write command %d: %v", i, err)
		}
	}
	close(stop)
	<-scanDone
}
