// Package diagrams renders phase diagrams and curve exports in the
// background and stores the results in the artifact store.
package diagrams

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"phasecore/internal/blob"
	"phasecore/internal/core"
	"phasecore/internal/render"
	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// Terminal reports whether the export has finished.
func (s ExportStatus) Terminal() bool {
	return s == ExportStatusSucceeded || s == ExportStatusFailed
}

// ExportFormat is one artifact kind an export can produce.
type ExportFormat string

const (
	FormatPNG  ExportFormat = "png"
	FormatSVG  ExportFormat = "svg"
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

var contentTypes = map[ExportFormat]string{
	FormatPNG:  "image/png",
	FormatSVG:  "image/svg+xml",
	FormatCSV:  "text/csv",
	FormatJSON: "application/json",
}

var (
	ErrCompoundRequired = errors.New("diagrams: compound required")
	ErrUnknownFormat    = errors.New("diagrams: unknown export format")
	ErrQueueFull        = errors.New("diagrams: export queue full")
	ErrWorkerStopped    = errors.New("diagrams: worker stopped")
)

// ParseFormats splits a comma separated list; empty input yields nil.
func ParseFormats(s string) ([]ExportFormat, error) {
	var out []ExportFormat
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		f := ExportFormat(part)
		if _, ok := contentTypes[f]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, part)
		}
		out = append(out, f)
	}
	return out, nil
}

// ExportArtifact is one stored output of an export.
type ExportArtifact struct {
	Key         string       `json:"key"`
	Format      ExportFormat `json:"format"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	URL         string       `json:"url,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ExportRecord tracks an export request and its artifacts.
type ExportRecord struct {
	ID          string                `json:"id"`
	Compound    domain.CompoundRecord `json:"compound"`
	Formats     []ExportFormat        `json:"formats"`
	Status      ExportStatus          `json:"status"`
	Error       string                `json:"error,omitempty"`
	Artifacts   []ExportArtifact      `json:"artifacts,omitempty"`
	RequestedBy string                `json:"requested_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

func (r ExportRecord) copy() ExportRecord {
	cpy := r
	cpy.Formats = append([]ExportFormat(nil), r.Formats...)
	cpy.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		cpy.CompletedAt = &at
	}
	return cpy
}

// ExportInput is an enqueue request. Formats default to png and csv.
type ExportInput struct {
	Compound    string
	Formats     []ExportFormat
	Data        core.PhaseDataOptions
	Render      render.Options
	RequestedBy string
}

// PhaseSource resolves compounds and builds diagrams; *core.Service
// satisfies it.
type PhaseSource interface {
	ResolveCompound(ctx context.Context, identifier string) (domain.CompoundRecord, error)
	Diagram(ctx context.Context, identifier string, opts core.PhaseDataOptions) (*phase.Diagram, error)
}

// Scheduler queues exports and reports their status.
type Scheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// WorkerOption customises a Worker.
type WorkerOption func(*Worker)

// WithQueueSize bounds the number of pending exports (default 32).
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(l core.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithAuditRecorder records one entry per status change.
func WithAuditRecorder(a core.AuditRecorder) WorkerOption {
	return func(w *Worker) { w.audit = a }
}

// Worker renders exports on a single background goroutine.
type Worker struct {
	source PhaseSource
	store  blob.Store
	logger core.Logger
	audit  core.AuditRecorder

	queueSize int
	queue     chan exportTask
	mu        sync.RWMutex
	jobs      map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

// NewWorker constructs a worker; call Start to begin processing.
func NewWorker(source PhaseSource, store blob.Store, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		source:    source,
		store:     store,
		logger:    discardLogger{},
		queueSize: 32,
		jobs:      make(map[string]*ExportRecord),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.queue = make(chan exportTask, w.queueSize)
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop halts the worker and waits for the in-flight export to finish.
// Queued exports that never started stay queued.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport validates the request, resolves the compound and queues the
// export.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.ctx.Err() != nil {
		return ExportRecord{}, ErrWorkerStopped
	}
	if strings.TrimSpace(input.Compound) == "" {
		return ExportRecord{}, ErrCompoundRequired
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []ExportFormat{FormatPNG, FormatCSV}
	}
	uniq := make([]ExportFormat, 0, len(formats))
	seen := make(map[ExportFormat]bool, len(formats))
	for _, f := range formats {
		if _, ok := contentTypes[f]; !ok {
			return ExportRecord{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
		if !seen[f] {
			seen[f] = true
			uniq = append(uniq, f)
		}
	}
	compound, err := w.source.ResolveCompound(ctx, input.Compound)
	if err != nil {
		return ExportRecord{}, err
	}

	now := time.Now().UTC()
	record := ExportRecord{
		ID:          uuid.NewString(),
		Compound:    compound,
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	input.Formats = uniq

	w.mu.Lock()
	select {
	case w.queue <- exportTask{id: record.ID, input: input}:
		w.jobs[record.ID] = &record
	default:
		w.mu.Unlock()
		return ExportRecord{}, ErrQueueFull
	}
	snapshot := record.copy()
	w.mu.Unlock()

	w.record(ctx, snapshot, 0)
	return snapshot, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(task exportTask) {
	started := time.Now()
	w.transition(task.id, func(r *ExportRecord) { r.Status = ExportStatusRunning })

	artifacts, err := w.run(task)
	w.transition(task.id, func(r *ExportRecord) {
		now := time.Now().UTC()
		r.CompletedAt = &now
		if err != nil {
			r.Status = ExportStatusFailed
			r.Error = err.Error()
			return
		}
		r.Status = ExportStatusSucceeded
		r.Artifacts = artifacts
	})
	if rec, ok := w.GetExport(task.id); ok {
		w.record(w.ctx, rec, time.Since(started))
		if err != nil {
			w.logger.Warn("diagram export failed", "export_id", task.id, "compound", rec.Compound.Formula, "error", err)
		} else {
			w.logger.Info("diagram export stored", "export_id", task.id, "compound", rec.Compound.Formula, "artifacts", len(artifacts))
		}
	}
}

func (w *Worker) run(task exportTask) ([]ExportArtifact, error) {
	d, err := w.source.Diagram(w.ctx, task.input.Compound, task.input.Data)
	if err != nil {
		return nil, err
	}
	base := d.Constants().Compound.Formula
	if base == "" {
		base = "compound"
	}
	artifacts := make([]ExportArtifact, 0, len(task.input.Formats))
	for _, f := range task.input.Formats {
		payload, err := materialize(d, f, task.input.Render)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		key := fmt.Sprintf("exports/%s/%s.%s", task.id, base, f)
		info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentTypes[f],
			Metadata:    map[string]string{"export-id": task.id, "compound": base, "format": string(f)},
		})
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", key, err)
		}
		artifacts = append(artifacts, ExportArtifact{
			Key:         info.Key,
			Format:      f,
			ContentType: contentTypes[f],
			SizeBytes:   int64(len(payload)),
			URL:         info.URL,
			CreatedAt:   time.Now().UTC(),
		})
	}
	return artifacts, nil
}

func materialize(d *phase.Diagram, f ExportFormat, opts render.Options) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatPNG, FormatSVG:
		opts.Format = render.Format(f)
		if err := render.PhaseDiagram(&buf, d, opts); err != nil {
			return nil, err
		}
	case FormatCSV, FormatJSON:
		curves, err := d.Curves()
		if err != nil {
			return nil, err
		}
		if f == FormatCSV {
			err = render.CurveCSV(&buf, curves...)
		} else {
			err = render.CurveJSON(&buf, curves...)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return buf.Bytes(), nil
}

func (w *Worker) transition(id string, mutate func(*ExportRecord)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := w.jobs[id]; ok {
		mutate(r)
		r.UpdatedAt = time.Now().UTC()
	}
}

func (w *Worker) record(ctx context.Context, r ExportRecord, elapsed time.Duration) {
	if w.audit == nil {
		return
	}
	status := core.AuditStatusSuccess
	if r.Status == ExportStatusFailed {
		status = core.AuditStatusError
	}
	w.audit.Record(ctx, core.AuditEntry{
		Operation: "export_" + string(r.Status),
		Compound:  r.Compound.Formula,
		Status:    status,
		Error:     r.Error,
		Duration:  elapsed,
		Timestamp: r.UpdatedAt,
	})
}
