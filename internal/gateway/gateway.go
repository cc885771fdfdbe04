// Package gateway mirrors local construction mutations to a remote service
// on a best-effort basis. Failures never touch the model: they only flip the
// connectivity flag the presentation layer displays.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"euclidcore/internal/observability"
	"euclidcore/pkg/domain"
)

const (
	defaultProbeInterval = 30 * time.Second
	defaultQueueSize     = 64

	mirrorPath = "/api/v1/construction/mirror"
	unlockPath = "/api/v1/collection/unlock-check"
	probePath  = "/healthz"
)

// Config holds gateway construction parameters.
type Config struct {
	// BaseURL is the remote service root, without trailing slash.
	BaseURL string
	// HTTPClient defaults to http.DefaultClient; no timeout is imposed beyond
	// what the transport provides.
	HTTPClient *http.Client
	// ProbeInterval is the liveness re-check period (default 30s).
	ProbeInterval time.Duration
	// QueueSize bounds the outbound queue (default 64). When full, calls are
	// dropped and counted rather than blocking the interaction path.
	QueueSize int

	Logger  observability.Logger
	Metrics observability.MetricsRecorder
	Sink    domain.EventSink
}

type outbound struct {
	op        string
	path      string
	body      []byte
	onSuccess func(body []byte)
}

// Gateway is the sync boundary. One worker goroutine drains the outbound
// queue; a ticker goroutine probes liveness. The model never waits on either.
type Gateway struct {
	cfg    Config
	client *http.Client

	queue chan outbound
	done  chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	online bool
	closed bool

	pending   sync.WaitGroup
	closeOnce sync.Once
}

// New constructs and starts a gateway. The gateway begins online; the first
// failed call or probe flips it offline.
func New(cfg Config) *Gateway {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = defaultProbeInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NopMetrics{}
	}
	if cfg.Sink == nil {
		cfg.Sink = domain.NopSink{}
	}

	g := &Gateway{
		cfg:    cfg,
		client: cfg.HTTPClient,
		queue:  make(chan outbound, cfg.QueueSize),
		done:   make(chan struct{}),
		online: true,
	}
	g.cfg.Metrics.SetConnectivity(true)

	g.wg.Add(2)
	go g.drainLoop()
	go g.probeLoop()
	return g
}

// Close stops the worker and probe goroutines. Queued calls that have not
// been sent are discarded; their pending accounting is settled so a later
// Flush cannot hang.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		g.mu.Unlock()
		close(g.done)
	})
	g.wg.Wait()
	for {
		select {
		case <-g.queue:
			g.pending.Done()
		default:
			return
		}
	}
}

// Online reports the current connectivity flag.
func (g *Gateway) Online() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.online
}

// Mirror offers a committed mutation to the remote service, fire-and-forget.
// It never blocks and never returns an error to the caller.
func (g *Gateway) Mirror(env domain.MirrorEnvelope) {
	body, err := json.Marshal(env)
	if err != nil {
		g.cfg.Logger.Error("encode mirror envelope", "err", err)
		return
	}
	g.enqueue(outbound{op: "mirror", path: mirrorPath, body: body})
}

// CheckUnlocks submits the snapshot and its classified tag to the collection
// service. Newly unlocked elements are republished as an UnlocksGranted
// event; failures only affect connectivity.
func (g *Gateway) CheckUnlocks(space domain.ConstructionSpace, tag domain.ConstructionTag) {
	body, err := json.Marshal(domain.UnlockRequest{Space: space, Tag: tag})
	if err != nil {
		g.cfg.Logger.Error("encode unlock request", "err", err)
		return
	}
	g.enqueue(outbound{op: "unlock_check", path: unlockPath, body: body, onSuccess: func(respBody []byte) {
		var resp domain.UnlockResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			g.cfg.Logger.Warn("decode unlock response", "err", err)
			return
		}
		if len(resp.Unlocked) > 0 {
			g.cfg.Sink.Publish(domain.UnlocksGranted{Elements: resp.Unlocked})
		}
	}})
}

// enqueue offers a call to the worker without blocking. The pending counter
// and the channel send happen under the mutex so Close can settle every call
// that was admitted before it set the closed flag.
func (g *Gateway) enqueue(out outbound) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.pending.Add(1)
	select {
	case g.queue <- out:
	default:
		// Queue full: drop rather than block the interaction path.
		g.pending.Done()
		g.cfg.Metrics.ObserveRemote(out.op+"_dropped", false, 0)
		g.cfg.Logger.Warn("outbound queue full, dropping call", "op", out.op)
	}
}

func (g *Gateway) drainLoop() {
	defer g.wg.Done()
	for {
		select {
		case <-g.done:
			return
		case out := <-g.queue:
			g.send(out)
			g.pending.Done()
		}
	}
}

func (g *Gateway) probeLoop() {
	defer g.wg.Done()
	ticker := time.NewTicker(g.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			g.probe()
		}
	}
}

// send performs one remote call and updates connectivity from its outcome.
func (g *Gateway) send(out outbound) {
	start := time.Now()
	respBody, err := g.post(out.path, out.body)
	g.cfg.Metrics.ObserveRemote(out.op, err == nil, time.Since(start))
	if err != nil {
		g.setOnline(false)
		g.cfg.Logger.Warn("remote call failed", "op", out.op, "err",
			domain.RemoteUnavailableError{Op: out.op, Err: err}.Error())
		return
	}
	g.setOnline(true)
	if out.onSuccess != nil {
		out.onSuccess(respBody)
	}
}

func (g *Gateway) post(path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// probe checks whether the channel is usable for future calls. It never
// retries failed mirror calls.
func (g *Gateway) probe() {
	start := time.Now()
	err := g.probeOnce()
	g.cfg.Metrics.ObserveRemote("probe", err == nil, time.Since(start))
	g.setOnline(err == nil)
}

func (g *Gateway) probeOnce() error {
	req, err := http.NewRequest(http.MethodGet, g.cfg.BaseURL+probePath, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (g *Gateway) setOnline(online bool) {
	g.mu.Lock()
	changed := g.online != online
	g.online = online
	g.mu.Unlock()

	if changed {
		g.cfg.Metrics.SetConnectivity(online)
		g.cfg.Sink.Publish(domain.ConnectivityChanged{Online: online})
		if online {
			g.cfg.Logger.Info("sync gateway reconnected")
		} else {
			g.cfg.Logger.Warn("sync gateway offline")
		}
	}
}

// Flush waits until every enqueued call has been sent or dropped, for tests
// and shutdown paths. It returns false if the context expires first.
func (g *Gateway) Flush(ctx context.Context) bool {
	drained := make(chan struct{})
	go func() {
		g.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return true
	case <-ctx.Done():
		return false
	}
}
