// Package observability provides the logging and metrics seams shared by the
// engine, the tool controller, and the sync gateway. Recorders are
// process-local by default; a Prometheus-backed recorder is available for
// scraped deployments.
package observability

import (
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is the minimal structured logging contract. Key/value pairs follow
// the message as alternating keys and values.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// NopLogger discards all log output.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Warn implements Logger.
func (NopLogger) Warn(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, ...any) {}

// JSONLogger writes one JSON object per log call.
type JSONLogger struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLogger constructs a logger writing JSON lines to w.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{enc: json.NewEncoder(w)}
}

func (l *JSONLogger) log(level, msg string, kv []any) {
	entry := map[string]any{
		"level": level,
		"msg":   msg,
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		entry[key] = kv[i+1]
	}
	l.mu.Lock()
	_ = l.enc.Encode(entry)
	l.mu.Unlock()
}

// Debug implements Logger.
func (l *JSONLogger) Debug(msg string, kv ...any) { l.log("debug", msg, kv) }

// Info implements Logger.
func (l *JSONLogger) Info(msg string, kv ...any) { l.log("info", msg, kv) }

// Warn implements Logger.
func (l *JSONLogger) Warn(msg string, kv ...any) { l.log("warn", msg, kv) }

// Error implements Logger.
func (l *JSONLogger) Error(msg string, kv ...any) { l.log("error", msg, kv) }

// MetricsRecorder receives engine and gateway measurements.
type MetricsRecorder interface {
	// ObserveCommit records a successful element commit of the given kind.
	ObserveCommit(kind string, duration time.Duration)
	// ObserveRemote records the outcome of a remote call (mirror, unlock
	// check, liveness probe).
	ObserveRemote(op string, success bool, duration time.Duration)
	// SetConnectivity reports the current gateway connectivity state.
	SetConnectivity(online bool)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

// ObserveCommit implements MetricsRecorder.
func (NopMetrics) ObserveCommit(string, time.Duration) {}

// ObserveRemote implements MetricsRecorder.
func (NopMetrics) ObserveRemote(string, bool, time.Duration) {}

// SetConnectivity implements MetricsRecorder.
func (NopMetrics) SetConnectivity(bool) {}

var expvarSeq uint64

// ExpvarRecorder publishes aggregate counters via expvar for deployments that
// prefer process-local metrics without external dependencies. Durations are
// accumulated in milliseconds per operation.
type ExpvarRecorder struct {
	name      string
	mu        sync.Mutex
	commits   map[string]int64
	durations map[string]float64
	remotes   map[string]map[string]int64
	online    bool
}

// ExpvarSnapshot captures a read-only view of the recorded metrics.
type ExpvarSnapshot struct {
	Commits     map[string]int64            `json:"commits_total"`
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Remotes     map[string]map[string]int64 `json:"remote_results_total"`
	Online      bool                        `json:"online"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarRecorder constructs an expvar-backed recorder published under the
// supplied name. When name is empty, a unique identifier is generated.
func NewExpvarRecorder(name string) *ExpvarRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("euclidcore_metrics_%d", id)
	}
	rec := &ExpvarRecorder{
		name:      name,
		commits:   make(map[string]int64),
		durations: make(map[string]float64),
		remotes:   make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarRecorder) Name() string { return r.name }

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarRecorder) Snapshot() ExpvarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	commits := make(map[string]int64, len(r.commits))
	for k, v := range r.commits {
		commits[k] = v
	}
	durations := make(map[string]float64, len(r.durations))
	for k, v := range r.durations {
		durations[k] = v
	}
	remotes := make(map[string]map[string]int64, len(r.remotes))
	for op, statusCounts := range r.remotes {
		cpy := make(map[string]int64, len(statusCounts))
		for status, count := range statusCounts {
			cpy[status] = count
		}
		remotes[op] = cpy
	}
	return ExpvarSnapshot{
		Commits:     commits,
		DurationsMS: durations,
		Remotes:     remotes,
		Online:      r.online,
		RecordedAt:  time.Now().UTC(),
	}
}

// ObserveCommit implements MetricsRecorder.
func (r *ExpvarRecorder) ObserveCommit(kind string, duration time.Duration) {
	if kind == "" {
		return
	}
	r.mu.Lock()
	r.commits[kind]++
	r.durations["commit_"+kind] += float64(duration) / float64(time.Millisecond)
	r.mu.Unlock()
}

// ObserveRemote implements MetricsRecorder.
func (r *ExpvarRecorder) ObserveRemote(op string, success bool, duration time.Duration) {
	if op == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.mu.Lock()
	if _, ok := r.remotes[op]; !ok {
		r.remotes[op] = make(map[string]int64, 2)
	}
	r.remotes[op][status]++
	r.durations["remote_"+op] += float64(duration) / float64(time.Millisecond)
	r.mu.Unlock()
}

// SetConnectivity implements MetricsRecorder.
func (r *ExpvarRecorder) SetConnectivity(online bool) {
	r.mu.Lock()
	r.online = online
	r.mu.Unlock()
}
