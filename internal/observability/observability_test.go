package observability

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestJSONLoggerWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf)
	logger.Info("session created", "session", "abc", "count", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "info" || entry["msg"] != "session created" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry["session"] != "abc" {
		t.Fatalf("key/value pair lost: %+v", entry)
	}
}

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarRecorder("")

	rec.ObserveCommit("point", 2*time.Millisecond)
	rec.ObserveCommit("point", 3*time.Millisecond)
	rec.ObserveCommit("line", time.Millisecond)
	rec.ObserveRemote("mirror", true, time.Millisecond)
	rec.ObserveRemote("mirror", false, time.Millisecond)
	rec.SetConnectivity(false)

	snap := rec.Snapshot()
	if snap.Commits["point"] != 2 || snap.Commits["line"] != 1 {
		t.Fatalf("unexpected commit counts %+v", snap.Commits)
	}
	if snap.Remotes["mirror"]["success"] != 1 || snap.Remotes["mirror"]["error"] != 1 {
		t.Fatalf("unexpected remote counts %+v", snap.Remotes)
	}
	if snap.Online {
		t.Fatalf("expected offline state")
	}
	if snap.DurationsMS["commit_point"] < 5 {
		t.Fatalf("expected accumulated durations, got %+v", snap.DurationsMS)
	}
}

func TestExpvarRecorderIgnoresEmptyNames(t *testing.T) {
	rec := NewExpvarRecorder("")
	rec.ObserveCommit("", time.Millisecond)
	rec.ObserveRemote("", true, time.Millisecond)
	snap := rec.Snapshot()
	if len(snap.Commits) != 0 || len(snap.Remotes) != 0 {
		t.Fatalf("empty names must be ignored, got %+v", snap)
	}
}
