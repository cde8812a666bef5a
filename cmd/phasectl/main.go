// Command phasectl queries the compound reference data, samples phase
// boundary curves, classifies states, renders phase diagrams and serves the
// HTTP API.
//
// Usage:
//
//	phasectl compounds [-json]
//	phasectl lookup <compound>
//	phasectl curve <compound> [kind...] [-format csv|json]
//	phasectl classify <compound> <temperature> <pressure>
//	phasectl plot <compound> -out diagram.svg
//	phasectl serve [-addr :8080]
//
// Every command reads PHASECORE_* environment variables; flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"phasecore/internal/adapters/diagrams"
	"phasecore/internal/adapters/httpapi"
	"phasecore/internal/blob"
	"phasecore/internal/core"
	"phasecore/internal/reference"
	"phasecore/internal/render"
	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

var (
	exitFunc = os.Exit
	getenv   = os.Getenv
)

const usage = `usage: phasectl <command> [flags] [args]

commands:
  compounds                          list the reference compounds
  lookup <compound>                  print the phase constants of a compound
  curve <compound> [kind...]         sample boundary curves (sl, sv, lv, antoine)
  classify <compound> <T> <P>        classify a state, e.g. "300 K" "1 atm"
  plot <compound> -out <file>        render a phase diagram (.png or .svg)
  serve                              run the HTTP API
`

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	commands := map[string]func(context.Context, []string, io.Writer, io.Writer) error{
		"compounds": runCompounds,
		"lookup":    runLookup,
		"curve":     runCurve,
		"classify":  runClassify,
		"plot":      runPlot,
		"serve":     runServe,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			fmt.Fprint(stdout, usage)
			return 0
		}
		fmt.Fprintf(stderr, "phasectl: unknown command %q\n%s", args[0], usage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd(ctx, args[1:], stdout, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "phasectl %s: %v\n", args[0], err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// settings are the flags every command shares. Defaults come from the
// environment.
type settings struct {
	cfg          core.Config
	logLevel     string
	trace        bool
	volumeChange string
	data         core.PhaseDataOptions
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *settings, error) {
	cfg, err := core.LoadConfig(getenv)
	if err != nil {
		return nil, nil, err
	}
	s := &settings{cfg: cfg}
	fs := flag.NewFlagSet("phasectl "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Func("driver", "reference backend: memory, sqlite or postgres (default "+string(cfg.Reference.Driver)+")", func(v string) error {
		s.cfg.Reference.Driver = reference.Driver(strings.ToLower(v))
		return nil
	})
	fs.StringVar(&s.cfg.Reference.SQLitePath, "sqlite", cfg.Reference.SQLitePath, "sqlite reference database path")
	fs.StringVar(&s.cfg.Reference.PostgresDSN, "postgres-dsn", cfg.Reference.PostgresDSN, "postgres reference DSN")
	fs.IntVar(&s.cfg.Samples, "samples", cfg.Samples, "samples per curve (0 uses the engine default)")
	fs.Float64Var(&s.cfg.TolerancePa, "tolerance", cfg.TolerancePa, "on-curve tolerance in Pa (0 uses the engine default)")
	fs.StringVar(&s.logLevel, "log-level", cfg.LogLevel.String(), "log level: debug, info, warn or error")
	fs.BoolVar(&s.trace, "trace", false, "write operation spans to stderr as JSON lines")
	fs.StringVar(&s.volumeChange, "volume-change", string(core.VolumeChangeComputed), "ΔV_fus source: computed or tabulated")
	fs.IntVar(&s.data.SolidDensityIndex, "solid-density", 0, "solid density row")
	fs.IntVar(&s.data.LiquidDensityIndex, "liquid-density", 0, "liquid density row")
	fs.IntVar(&s.data.AntoineIndex, "antoine", 0, "Antoine coefficient row")
	fs.IntVar(&s.data.PointIndex, "point", 0, "triple, critical, boiling and melting point row")
	fs.IntVar(&s.data.EnthalpyIndex, "enthalpy", 0, "enthalpy row")
	fs.IntVar(&s.data.VolumeChangeIndex, "volume-change-index", 0, "tabulated ΔV_fus row")
	return fs, s, nil
}

// parse accepts flags before, between and after positional arguments.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func (s *settings) finish() error {
	if err := s.cfg.LogLevel.UnmarshalText([]byte(s.logLevel)); err != nil {
		return usageError{msg: fmt.Sprintf("-log-level: %v", err)}
	}
	if s.cfg.Samples != 0 && s.cfg.Samples < 2 {
		return usageError{msg: "-samples must be at least 2"}
	}
	if s.cfg.TolerancePa < 0 {
		return usageError{msg: "-tolerance must not be negative"}
	}
	source, err := core.ParseVolumeChangeSource(s.volumeChange)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	s.data.VolumeChange = source
	return nil
}

func (s *settings) logger(stderr io.Writer) *slog.Logger {
	return core.NewLogger(stderr, s.cfg.LogLevel)
}

func (s *settings) service(stderr io.Writer, extra ...core.Option) (*core.Service, error) {
	store, err := reference.Open(s.cfg.Reference)
	if err != nil {
		return nil, fmt.Errorf("open reference store: %w", err)
	}
	opts := []core.Option{
		core.WithLogger(s.logger(stderr)),
		core.WithPhaseOptions(s.cfg.PhaseOptions()),
	}
	if s.trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(stderr, 0)))
	}
	return core.NewService(store, append(opts, extra...)...), nil
}

func runCompounds(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, s, err := newFlagSet("compounds", stderr)
	if err != nil {
		return err
	}
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	if err := s.finish(); err != nil {
		return err
	}
	svc, err := s.service(stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	records, err := svc.ListCompounds(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, records)
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFORMULA\tNAME\tCAS\tMOLAR MASS\tALSO KNOWN AS")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Formula, r.Name, r.CAS, r.MolarMass, strings.Join(r.AlternativeNames, ", "))
	}
	return tw.Flush()
}

func runLookup(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, s, err := newFlagSet("lookup", stderr)
	if err != nil {
		return err
	}
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usageError{msg: "want exactly one compound identifier"}
	}
	if err := s.finish(); err != nil {
		return err
	}
	svc, err := s.service(stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	pc, err := svc.GetPhaseData(ctx, pos[0], s.data)
	if err != nil {
		return err
	}
	return writeJSON(stdout, pc)
}

func runCurve(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, s, err := newFlagSet("curve", stderr)
	if err != nil {
		return err
	}
	format := fs.String("format", "csv", "output format: csv or json")
	tunit := fs.String("temperature-unit", "K", "temperature unit of the output")
	punit := fs.String("pressure-unit", "Pa", "pressure unit of the output")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return usageError{msg: "want a compound identifier"}
	}
	if err := s.finish(); err != nil {
		return err
	}
	kinds := make([]phase.CurveKind, 0, len(pos)-1)
	for _, raw := range pos[1:] {
		kind, err := phase.ParseCurveKind(raw)
		if err != nil {
			return usageError{msg: err.Error()}
		}
		kinds = append(kinds, kind)
	}
	tu, err := units.Lookup(*tunit)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	pu, err := units.Lookup(*punit)
	if err != nil {
		return usageError{msg: err.Error()}
	}

	svc, err := s.service(stderr)
	if err != nil {
		return err
	}
	defer svc.Close()
	curves, err := svc.Curves(ctx, pos[0], s.data, kinds...)
	if err != nil {
		return err
	}
	for i, c := range curves {
		if curves[i], err = c.To(tu, pu); err != nil {
			return err
		}
	}
	switch *format {
	case "csv":
		return render.CurveCSV(stdout, curves...)
	case "json":
		return render.CurveJSON(stdout, curves...)
	default:
		return usageError{msg: fmt.Sprintf("unknown format %q", *format)}
	}
}

func runClassify(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, s, err := newFlagSet("classify", stderr)
	if err != nil {
		return err
	}
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 3 {
		return usageError{msg: "want <compound> <temperature> <pressure>"}
	}
	if err := s.finish(); err != nil {
		return err
	}
	temperature, err := quantityArg(pos[1], units.Kelvin)
	if err != nil {
		return usageError{msg: fmt.Sprintf("temperature: %v", err)}
	}
	pressure, err := quantityArg(pos[2], units.Pascal)
	if err != nil {
		return usageError{msg: fmt.Sprintf("pressure: %v", err)}
	}

	svc, err := s.service(stderr)
	if err != nil {
		return err
	}
	defer svc.Close()
	label, err := svc.ClassifyState(ctx, pos[0], domain.StatePoint{Temperature: temperature, Pressure: pressure}, s.data)
	if err != nil {
		return err
	}
	if label == phase.StateUnknown {
		fmt.Fprintln(stdout, "unknown")
		return nil
	}
	fmt.Fprintln(stdout, label)
	return nil
}

// quantityArg reads "<value> <unit>"; a bare number is taken in def.
func quantityArg(raw string, def units.Unit) (units.Quantity, error) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return units.New(v, def), nil
	}
	return units.Parse(raw)
}

func runPlot(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, s, err := newFlagSet("plot", stderr)
	if err != nil {
		return err
	}
	out := fs.String("out", "", "output file; the extension selects png or svg")
	width := fs.Int("width", 0, "image width in pixels")
	height := fs.Int("height", 0, "image height in pixels")
	title := fs.String("title", "", "chart title")
	linear := fs.Bool("linear", false, "linear pressure axis")
	clapeyronLV := fs.Bool("clapeyron-lv", false, "overlay the Clausius-Clapeyron liquid-vapour line")
	tunit := fs.String("temperature-unit", "K", "temperature axis unit")
	punit := fs.String("pressure-unit", "Pa", "pressure axis unit")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usageError{msg: "want exactly one compound identifier"}
	}
	if *out == "" {
		return usageError{msg: "-out is required"}
	}
	if err := s.finish(); err != nil {
		return err
	}
	format, err := render.ParseFormat(strings.TrimPrefix(filepath.Ext(*out), "."))
	if err != nil {
		return usageError{msg: err.Error()}
	}
	opts := render.Options{Format: format, Width: *width, Height: *height, Title: *title, LinearPressure: *linear, ClapeyronLV: *clapeyronLV}
	if opts.TemperatureUnit, err = units.Lookup(*tunit); err != nil {
		return usageError{msg: err.Error()}
	}
	if opts.PressureUnit, err = units.Lookup(*punit); err != nil {
		return usageError{msg: err.Error()}
	}

	svc, err := s.service(stderr)
	if err != nil {
		return err
	}
	defer svc.Close()
	d, err := svc.Diagram(ctx, pos[0], s.data)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := render.PhaseDiagram(f, d, opts); err != nil {
		_ = f.Close()
		_ = os.Remove(*out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}

func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, s, err := newFlagSet("serve", stderr)
	if err != nil {
		return err
	}
	addr := fs.String("addr", ":8080", "listen address")
	blobDriver := fs.String("blob-driver", string(s.cfg.Blob.Driver), "export artifact store: fs, memory or s3")
	blobRoot := fs.String("blob-root", s.cfg.Blob.FSRoot, "filesystem artifact root")
	queue := fs.Int("queue", 32, "export queue size")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 0 {
		return usageError{msg: "serve takes no arguments"}
	}
	if err := s.finish(); err != nil {
		return err
	}
	s.cfg.Blob.Driver = blob.Driver(*blobDriver)
	s.cfg.Blob.FSRoot = *blobRoot

	logger := s.logger(stderr)
	prom, err := core.NewPrometheusMetricsRecorder(nil)
	if err != nil {
		return err
	}
	metrics := core.TeeMetrics(prom, core.NewExpvarMetricsRecorder("phasecore"))
	audit := core.LogAuditRecorder{Logger: logger}
	svc, err := s.service(stderr, core.WithMetricsRecorder(metrics), core.WithAuditRecorder(audit))
	if err != nil {
		return err
	}
	defer svc.Close()

	artifacts, err := blob.Open(ctx, s.cfg.Blob)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	worker := diagrams.NewWorker(svc, artifacts,
		diagrams.WithQueueSize(*queue),
		diagrams.WithLogger(logger),
		diagrams.WithAuditRecorder(audit),
	)
	worker.Start()

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewHandler(svc, worker, prom.Handler(), logger))
	mux.Handle("GET /debug/vars", expvar.Handler())
	server := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	logger.Info("serving", "addr", *addr, "reference", s.cfg.Reference.Driver, "artifacts", artifacts.Driver())
	fmt.Fprintf(stdout, "listening on %s\n", *addr)

	select {
	case err := <-errCh:
		_ = worker.Stop(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return worker.Stop(shutdownCtx)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
