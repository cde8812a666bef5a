// Package httpapi exposes the phase engine, the diagram renderer and the
// export worker over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"phasecore/docs/schema/openapi"
	"phasecore/internal/adapters/diagrams"
	"phasecore/internal/core"
	"phasecore/internal/render"
	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

// Engine is the subset of *core.Service the handler serves.
type Engine interface {
	ListCompounds(ctx context.Context) ([]domain.CompoundRecord, error)
	GetPhaseData(ctx context.Context, identifier string, opts core.PhaseDataOptions) (domain.PhaseConstants, error)
	Diagram(ctx context.Context, identifier string, opts core.PhaseDataOptions) (*phase.Diagram, error)
	Curves(ctx context.Context, identifier string, opts core.PhaseDataOptions, kinds ...phase.CurveKind) ([]phase.BoundaryCurve, error)
	ClassifyState(ctx context.Context, identifier string, point domain.StatePoint, opts core.PhaseDataOptions) (phase.StateLabel, error)
}

// Handler routes /api/v1 requests. Exports and Metrics are optional; the
// corresponding routes answer 404 when they are nil.
type Handler struct {
	Engine  Engine
	Exports diagrams.Scheduler
	Metrics http.Handler
	Logger  core.Logger

	mux *http.ServeMux
}

// NewHandler constructs a handler for engine.
func NewHandler(engine Engine, exports diagrams.Scheduler, metrics http.Handler, logger core.Logger) *Handler {
	h := &Handler{Engine: engine, Exports: exports, Metrics: metrics, Logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/compounds", h.handleListCompounds)
	mux.HandleFunc("GET /api/v1/compounds/{id}", h.handleCompound)
	mux.HandleFunc("GET /api/v1/compounds/{id}/curves", h.handleCurves)
	mux.HandleFunc("GET /api/v1/compounds/{id}/state", h.handleState)
	mux.HandleFunc("GET /api/v1/compounds/{id}/{file}", h.handleDiagram)
	mux.HandleFunc("POST /api/v1/exports", h.handleExportCreate)
	mux.HandleFunc("GET /api/v1/exports/{id}", h.handleExportGet)
	mux.HandleFunc("GET /api/v1/openapi.json", h.handleOpenAPI)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		writeError(w, http.StatusInternalServerError, "phase engine not configured")
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleListCompounds(w http.ResponseWriter, r *http.Request) {
	records, err := h.Engine.ListCompounds(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"compounds": records})
}

func (h *Handler) handleCompound(w http.ResponseWriter, r *http.Request) {
	opts, err := dataOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pc, err := h.Engine.GetPhaseData(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"compound":  pc.Compound,
		"formula":   domain.FormatFormula(pc.Compound.Formula),
		"constants": pc,
	})
}

func (h *Handler) handleCurves(w http.ResponseWriter, r *http.Request) {
	opts, err := dataOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var kinds []phase.CurveKind
	for _, raw := range r.URL.Query()["kind"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			kind, err := phase.ParseCurveKind(part)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			kinds = append(kinds, kind)
		}
	}
	tu, pu, err := displayUnits(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	curves, err := h.Engine.Curves(r.Context(), r.PathValue("id"), opts, kinds...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	for i, c := range curves {
		if curves[i], err = c.To(tu, pu); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		h.logWrite(r, render.CurveJSON(w, curves...))
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", r.PathValue("id")+"-curves.csv"))
		h.logWrite(r, render.CurveCSV(w, curves...))
	default:
		writeError(w, http.StatusNotAcceptable, "requested format not supported")
	}
}

type stateResponse struct {
	Compound    string           `json:"compound"`
	Temperature units.Quantity   `json:"temperature"`
	Pressure    units.Quantity   `json:"pressure"`
	State       phase.StateLabel `json:"state"`
	OnCurve     bool             `json:"on_curve"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	opts, err := dataOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	temperature, err := parseQuantity(q.Get("temperature"), units.Kelvin)
	if err != nil {
		writeError(w, http.StatusBadRequest, "temperature: "+err.Error())
		return
	}
	pressure, err := parseQuantity(q.Get("pressure"), units.Pascal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pressure: "+err.Error())
		return
	}
	id := r.PathValue("id")
	label, err := h.Engine.ClassifyState(r.Context(), id, domain.StatePoint{Temperature: temperature, Pressure: pressure}, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		Compound:    id,
		Temperature: temperature,
		Pressure:    pressure,
		State:       label,
		OnCurve:     label.OnCurve(),
	})
}

func (h *Handler) handleDiagram(w http.ResponseWriter, r *http.Request) {
	name, ext, ok := strings.Cut(r.PathValue("file"), ".")
	if !ok || name != "diagram" {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	format, err := render.ParseFormat(ext)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	opts, err := dataOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ropts, err := renderOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ropts.Format = format

	d, err := h.Engine.Diagram(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// render into memory so a failure still yields a clean error response
	var buf bytes.Buffer
	if err := render.PhaseDiagram(&buf, d, ropts); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, err = buf.WriteTo(w)
	h.logWrite(r, err)
}

type exportRequest struct {
	Compound    string   `json:"compound"`
	Formats     []string `json:"formats"`
	RequestedBy string   `json:"requested_by"`
	Data        struct {
		SolidDensityIndex  int    `json:"solid_density_index"`
		LiquidDensityIndex int    `json:"liquid_density_index"`
		AntoineIndex       int    `json:"antoine_index"`
		PointIndex         int    `json:"point_index"`
		EnthalpyIndex      int    `json:"enthalpy_index"`
		VolumeChange       string `json:"volume_change"`
		VolumeChangeIndex  int    `json:"volume_change_index"`
	} `json:"data"`
	Render struct {
		Width           int    `json:"width"`
		Height          int    `json:"height"`
		Title           string `json:"title"`
		TemperatureUnit string `json:"temperature_unit"`
		PressureUnit    string `json:"pressure_unit"`
		LinearPressure  bool   `json:"linear_pressure"`
		ClapeyronLV     bool   `json:"clapeyron_lv"`
	} `json:"render"`
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		http.NotFound(w, r)
		return
	}
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid export request payload")
		return
	}
	formats, err := diagrams.ParseFormats(strings.Join(req.Formats, ","))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source, err := core.ParseVolumeChangeSource(req.Data.VolumeChange)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ropts := render.Options{
		Width:          req.Render.Width,
		Height:         req.Render.Height,
		Title:          req.Render.Title,
		LinearPressure: req.Render.LinearPressure,
		ClapeyronLV:    req.Render.ClapeyronLV,
	}
	if ropts.TemperatureUnit, err = lookupUnit(req.Render.TemperatureUnit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ropts.PressureUnit, err = lookupUnit(req.Render.PressureUnit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.Exports.EnqueueExport(r.Context(), diagrams.ExportInput{
		Compound: req.Compound,
		Formats:  formats,
		Data: core.PhaseDataOptions{
			SolidDensityIndex:  req.Data.SolidDensityIndex,
			LiquidDensityIndex: req.Data.LiquidDensityIndex,
			AntoineIndex:       req.Data.AntoineIndex,
			PointIndex:         req.Data.PointIndex,
			EnthalpyIndex:      req.Data.EnthalpyIndex,
			VolumeChange:       source,
			VolumeChangeIndex:  req.Data.VolumeChangeIndex,
		},
		Render:      ropts,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleExportGet(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		http.NotFound(w, r)
		return
	}
	record, ok := h.Exports.GetExport(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write(openapi.Spec())
	h.logWrite(r, err)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	h.Metrics.ServeHTTP(w, r)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

// logWrite reports a body write that failed after the status was sent.
func (h *Handler) logWrite(r *http.Request, err error) {
	if err != nil && h.Logger != nil {
		h.Logger.Warn("response write failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCompoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, diagrams.ErrQueueFull), errors.Is(err, diagrams.ErrWorkerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMissingValue),
		errors.Is(err, domain.ErrIncompleteConstants),
		errors.Is(err, phase.ErrInvalidPoint),
		errors.Is(err, phase.ErrInvalidConstants),
		errors.Is(err, phase.ErrUnknownCurve),
		errors.Is(err, units.ErrUnitMismatch),
		errors.Is(err, units.ErrUnknownUnit),
		errors.Is(err, core.ErrInvalidVolumeChangeSource),
		errors.Is(err, diagrams.ErrCompoundRequired),
		errors.Is(err, diagrams.ErrUnknownFormat),
		errors.Is(err, render.ErrNothingToPlot):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func dataOptions(r *http.Request) (core.PhaseDataOptions, error) {
	q := r.URL.Query()
	var opts core.PhaseDataOptions
	indexes := []struct {
		name string
		dst  *int
	}{
		{"solid_density", &opts.SolidDensityIndex},
		{"liquid_density", &opts.LiquidDensityIndex},
		{"antoine", &opts.AntoineIndex},
		{"point", &opts.PointIndex},
		{"enthalpy", &opts.EnthalpyIndex},
		{"volume_change_index", &opts.VolumeChangeIndex},
	}
	for _, idx := range indexes {
		raw := q.Get(idx.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return core.PhaseDataOptions{}, fmt.Errorf("%s must be a non-negative integer", idx.name)
		}
		*idx.dst = v
	}
	source, err := core.ParseVolumeChangeSource(q.Get("volume_change"))
	if err != nil {
		return core.PhaseDataOptions{}, err
	}
	opts.VolumeChange = source
	return opts, nil
}

func renderOptions(r *http.Request) (render.Options, error) {
	q := r.URL.Query()
	var opts render.Options
	var err error
	if opts.TemperatureUnit, opts.PressureUnit, err = displayUnits(r); err != nil {
		return render.Options{}, err
	}
	for name, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 8192 {
			return render.Options{}, fmt.Errorf("%s must be between 1 and 8192", name)
		}
		*dst = v
	}
	opts.Title = q.Get("title")
	opts.LinearPressure = q.Get("scale") == "linear"
	opts.ClapeyronLV, _ = strconv.ParseBool(q.Get("clapeyron_lv"))
	return opts, nil
}

func displayUnits(r *http.Request) (units.Unit, units.Unit, error) {
	q := r.URL.Query()
	tu, err := lookupUnit(q.Get("temperature_unit"))
	if err != nil {
		return units.Unit{}, units.Unit{}, err
	}
	if tu.IsZero() {
		tu = units.Kelvin
	}
	pu, err := lookupUnit(q.Get("pressure_unit"))
	if err != nil {
		return units.Unit{}, units.Unit{}, err
	}
	if pu.IsZero() {
		pu = units.Pascal
	}
	return tu, pu, nil
}

func lookupUnit(symbol string) (units.Unit, error) {
	if strings.TrimSpace(symbol) == "" {
		return units.Unit{}, nil
	}
	return units.Lookup(strings.TrimSpace(symbol))
}

// parseQuantity accepts "<value> <unit>" or a bare number in def.
func parseQuantity(raw string, def units.Unit) (units.Quantity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return units.Quantity{}, errors.New("required")
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return units.New(v, def), nil
	}
	return units.Parse(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
