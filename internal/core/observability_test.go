package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopLogger(t *testing.T) {
	var l Logger = noopLogger{}
	l.Debug("d", "k", "v")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
}

func TestSlogSatisfiesLogger(t *testing.T) {
	var buf bytes.Buffer
	var l Logger = NewLogger(&buf, slog.LevelDebug)
	l.Debug("hello", "compound", "water")
	if !strings.Contains(buf.String(), "compound=water") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}

func TestClockFunc(t *testing.T) {
	if got := ClockFunc(nil).Now(); got.IsZero() || got.Location() != time.UTC {
		t.Fatalf("nil ClockFunc = %v", got)
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	if got := ClockFunc(func() time.Time { return want }).Now(); !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("ClockFunc = %v", got)
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	r := NewExpvarMetricsRecorder("phasecore_test_metrics")
	r.Observe(context.Background(), "curves", true, 2*time.Millisecond)
	r.Observe(context.Background(), "curves", true, 3*time.Millisecond)
	r.Observe(context.Background(), "curves", false, time.Millisecond)
	r.Observe(context.Background(), "", true, time.Second)

	snap := r.Snapshot()
	if snap.Calls["curves"]["success"] != 2 || snap.Calls["curves"]["error"] != 1 {
		t.Fatalf("unexpected calls %+v", snap.Calls)
	}
	if snap.DurationMS["curves"] != 6 {
		t.Fatalf("unexpected duration %v", snap.DurationMS["curves"])
	}
	if _, ok := snap.Calls[""]; ok {
		t.Fatal("empty operation should be ignored")
	}

	published := expvar.Get(r.Name())
	if published == nil {
		t.Fatal("recorder not published")
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal([]byte(published.String()), &decoded); err != nil {
		t.Fatalf("published value is not JSON: %v", err)
	}
	if _, ok := decoded["calls"]["curves"]; !ok {
		t.Fatalf("unexpected published value %s", published.String())
	}

	again := NewExpvarMetricsRecorder("phasecore_test_metrics")
	if again.Name() == r.Name() {
		t.Fatal("a taken name should be replaced")
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	r, err := NewPrometheusMetricsRecorder(nil)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}
	r.Observe(context.Background(), "classify_state", true, 5*time.Millisecond)
	r.Observe(context.Background(), "classify_state", false, time.Millisecond)
	r.Observe(context.Background(), "classify_state", true, time.Millisecond)

	if got := testutil.ToFloat64(r.total.WithLabelValues("classify_state", "success")); got != 2 {
		t.Fatalf("success counter = %v", got)
	}
	if got := testutil.ToFloat64(r.total.WithLabelValues("classify_state", "error")); got != 1 {
		t.Fatalf("error counter = %v", got)
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `phasecore_operations_total{operation="classify_state",status="success"} 2`) {
		t.Fatalf("unexpected exposition:\n%s", body)
	}

	if _, err := NewPrometheusMetricsRecorder(r.Registry()); err == nil {
		t.Fatal("registering twice on one registry should fail")
	}
}

func TestTeeMetrics(t *testing.T) {
	a, b := &captureMetricsRecorder{}, &captureMetricsRecorder{}
	tee := TeeMetrics(a, nil, b)
	tee.Observe(context.Background(), "op", true, time.Millisecond)
	if !a.has("op", true) || !b.has("op", true) {
		t.Fatal("expected both recorders to observe")
	}
}

func TestJSONTracer(t *testing.T) {
	var buf bytes.Buffer
	tr := NewJSONTracer(&buf, 2)
	for i, err := range []error{nil, errors.New("boom"), nil} {
		_, span := tr.Start(context.Background(), []string{"a", "b", "c"}[i])
		span.End(err)
		span.End(errors.New("ignored second end"))
	}
	entries := tr.Entries()
	if len(entries) != 2 || entries[0].Operation != "b" || entries[1].Operation != "c" {
		t.Fatalf("unexpected retained spans %+v", entries)
	}
	if entries[0].Status != "error" || entries[0].Error != "boom" || entries[0].SpanID == "" {
		t.Fatalf("unexpected error span %+v", entries[0])
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 JSON lines, got %d: %q", len(lines), buf.String())
	}
	var first JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Operation != "a" || first.Status != "success" {
		t.Fatalf("first line %q: %+v %v", lines[0], first, err)
	}

	silent := NewJSONTracer(nil, 0)
	_, span := silent.Start(context.Background(), "x")
	span.End(nil)
	if len(silent.Entries()) != 1 {
		t.Fatal("nil writer tracer should still retain spans")
	}
}

func TestLogAuditRecorder(t *testing.T) {
	var buf bytes.Buffer
	rec := LogAuditRecorder{Logger: NewLogger(&buf, slog.LevelInfo)}
	rec.Record(context.Background(), AuditEntry{
		Operation: "get_phase_data",
		Compound:  "water",
		Status:    AuditStatusError,
		Error:     "missing value",
		Duration:  1500 * time.Microsecond,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	out := buf.String()
	for _, want := range []string{"msg=audit", "operation=get_phase_data", "status=error", "duration_ms=1.500", `error="missing value"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("audit log %q missing %q", out, want)
		}
	}
	LogAuditRecorder{}.Record(context.Background(), AuditEntry{})
}
