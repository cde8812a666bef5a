package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes per-operation call counts and cumulative
// latency under one expvar name:
//
//	{"calls": {"<op>": {"success": n, "error": n}}, "duration_ms": {"<op>": ms}}
type ExpvarMetricsRecorder struct {
	name     string
	mu       sync.Mutex
	calls    *expvar.Map
	duration *expvar.Map
}

// ExpvarMetricsSnapshot is a point-in-time copy of an ExpvarMetricsRecorder.
type ExpvarMetricsSnapshot struct {
	Calls      map[string]map[string]int64 `json:"calls"`
	DurationMS map[string]float64          `json:"duration_ms"`
}

// NewExpvarMetricsRecorder publishes a recorder under name. An empty or
// already published name is replaced by a generated one.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" || expvar.Get(name) != nil {
		name = fmt.Sprintf("phasecore_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	r := &ExpvarMetricsRecorder{
		name:     name,
		calls:    new(expvar.Map).Init(),
		duration: new(expvar.Map).Init(),
	}
	root := new(expvar.Map).Init()
	root.Set("calls", r.calls)
	root.Set("duration_ms", r.duration)
	expvar.Publish(name, root)
	return r
}

// Name returns the expvar name the recorder is published under.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := string(AuditStatusError)
	if success {
		status = string(AuditStatusSuccess)
	}
	r.mu.Lock()
	counts, ok := r.calls.Get(operation).(*expvar.Map)
	if !ok {
		counts = new(expvar.Map).Init()
		r.calls.Set(operation, counts)
	}
	r.mu.Unlock()
	counts.Add(status, 1)
	r.duration.AddFloat(operation, float64(duration)/float64(time.Millisecond))
}

// Snapshot copies the published values.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	snap := ExpvarMetricsSnapshot{
		Calls:      make(map[string]map[string]int64),
		DurationMS: make(map[string]float64),
	}
	r.calls.Do(func(kv expvar.KeyValue) {
		counts := make(map[string]int64)
		if m, ok := kv.Value.(*expvar.Map); ok {
			m.Do(func(c expvar.KeyValue) {
				if n, ok := c.Value.(*expvar.Int); ok {
					counts[c.Key] = n.Value()
				}
			})
		}
		snap.Calls[kv.Key] = counts
	})
	r.duration.Do(func(kv expvar.KeyValue) {
		if f, ok := kv.Value.(*expvar.Float); ok {
			snap.DurationMS[kv.Key] = f.Value()
		}
	})
	return snap
}

// PrometheusMetricsRecorder exports operation counters and a latency
// histogram to a Prometheus registry.
type PrometheusMetricsRecorder struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers its collectors with reg, or with a
// fresh registry when reg is nil.
func NewPrometheusMetricsRecorder(reg *prometheus.Registry) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &PrometheusMetricsRecorder{
		registry: reg,
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phasecore",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "phasecore",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.total, r.latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register prometheus collector: %w", err)
		}
	}
	return r, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := string(AuditStatusError)
	if success {
		status = string(AuditStatusSuccess)
	}
	r.total.WithLabelValues(operation, status).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry returns the registry the collectors live in.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusMetricsRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

type teeRecorder []MetricsRecorder

func (t teeRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range t {
		r.Observe(ctx, operation, success, duration)
	}
}

// TeeMetrics fans observations out to every non-nil recorder.
func TeeMetrics(recorders ...MetricsRecorder) MetricsRecorder {
	out := make(teeRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// JSONTraceEntry is one finished span.
type JSONTraceEntry struct {
	SpanID     string    `json:"span_id"`
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and keeps the most
// recent ones in memory.
type JSONTraceTracer struct {
	mu      sync.Mutex
	enc     *json.Encoder
	limit   int
	entries []JSONTraceEntry
}

// NewJSONTracer writes spans to w (nil keeps them in memory only). At most
// limit spans are retained; limit <= 0 retains 1024.
func NewJSONTracer(w io.Writer, limit int) *JSONTraceTracer {
	if limit <= 0 {
		limit = 1024
	}
	t := &JSONTraceTracer{limit: limit}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns the retained spans, oldest first.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, id: uuid.NewString(), op: operation, started: time.Now().UTC()}
}

type jsonSpan struct {
	tracer  *JSONTraceTracer
	id      string
	op      string
	started time.Time
	ended   atomic.Bool
}

func (s *jsonSpan) End(err error) {
	if s.ended.Swap(true) {
		return
	}
	entry := JSONTraceEntry{
		SpanID:     s.id,
		Operation:  s.op,
		Status:     string(AuditStatusSuccess),
		DurationMS: float64(time.Since(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
	}
	if err != nil {
		entry.Status = string(AuditStatusError)
		entry.Error = err.Error()
	}
	t := s.tracer
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) == t.limit {
		t.entries = t.entries[1:]
	}
	t.entries = append(t.entries, entry)
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
}

// LogAuditRecorder writes audit entries to a Logger at info level.
type LogAuditRecorder struct {
	Logger Logger
}

// Record implements AuditRecorder.
func (r LogAuditRecorder) Record(_ context.Context, e AuditEntry) {
	if r.Logger == nil {
		return
	}
	args := []any{
		"operation", e.Operation,
		"compound", e.Compound,
		"status", string(e.Status),
		"duration_ms", strconv.FormatFloat(float64(e.Duration)/float64(time.Millisecond), 'f', 3, 64),
		"at", e.Timestamp.Format(time.RFC3339Nano),
	}
	if e.Error != "" {
		args = append(args, "error", e.Error)
	}
	r.Logger.Info("audit", args...)
}
