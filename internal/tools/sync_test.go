package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"euclidcore/internal/engine"
	"euclidcore/internal/gateway"
	"euclidcore/pkg/domain"
)

func TestMirrorFailureLeavesModelIntact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := gateway.New(gateway.Config{BaseURL: srv.URL})
	defer gw.Close()

	space := engine.NewSpace()
	ctrl := NewController(space, Config{SessionID: "test", Gateway: gw})

	// The commit succeeds locally; the failed mirror never surfaces.
	ctrl.PointerDown(domain.Position{X: 20, Y: 20})
	if space.ElementCount() != 1 {
		t.Fatalf("local commit must survive a failed mirror")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !gw.Flush(ctx) {
		t.Fatalf("gateway did not drain")
	}
	if gw.Online() {
		t.Fatalf("failed mirror must flip connectivity offline")
	}
}

func TestCompletingCommitRequestsUnlockCheck(t *testing.T) {
	paths := make(chan string, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := gateway.New(gateway.Config{BaseURL: srv.URL})
	defer gw.Close()

	space := engine.NewSpace()
	space.AddPoint(domain.Position{X: 0, Y: 0}, "")
	space.AddPoint(domain.Position{X: 100, Y: 0}, "")
	ctrl := NewController(space, Config{SessionID: "test", Gateway: gw})

	ctrl.SelectTool(ToolLine)
	ctrl.PointerDown(domain.Position{X: 0, Y: 0})
	ctrl.PointerDown(domain.Position{X: 100, Y: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !gw.Flush(ctx) {
		t.Fatalf("gateway did not drain")
	}
	close(paths)

	var sawMirror, sawUnlock bool
	for p := range paths {
		switch p {
		case "/api/v1/construction/mirror":
			sawMirror = true
		case "/api/v1/collection/unlock-check":
			sawUnlock = true
		}
	}
	if !sawMirror || !sawUnlock {
		t.Fatalf("line commit must mirror and run an unlock check (mirror=%v unlock=%v)", sawMirror, sawUnlock)
	}
}
