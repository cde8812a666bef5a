package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"image/png"
	"strings"
	"testing"

	"phasecore/pkg/domain"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

func waterDiagram(t *testing.T) *phase.Diagram {
	t.Helper()
	d, err := phase.NewDiagram(domain.PhaseConstants{
		Compound: domain.CompoundRecord{Name: "water", Formula: "H2O"},
		Antoine: domain.AntoineCoefficients{
			TMin: units.New(0.01, units.Celsius), TMax: units.New(373.98, units.Celsius),
			A: 8.05573, B: 1723.6425, C: 233.08, PressureUnit: units.MillimetreMercury,
		},
		TriplePoint:          domain.NewStatePoint(273.16, 611.657),
		CriticalPoint:        domain.NewStatePoint(647.1, 2.206e7),
		EnthalpyFusion:       units.New(6.009, units.KilojoulePerMole),
		EnthalpySublimation:  units.New(44.0, units.KilojoulePerMole),
		EnthalpyVaporization: units.New(40.66, units.KilojoulePerMole),
		VolumeChangeFusion:   units.New(-1.634, units.CubicCentimetrePerMole),
	}, &phase.Options{Samples: 20})
	if err != nil {
		t.Fatalf("NewDiagram: %v", err)
	}
	return d
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": FormatPNG, "SVG": FormatSVG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if FormatSVG.ContentType() != "image/svg+xml" || FormatPNG.ContentType() != "image/png" {
		t.Fatal("unexpected content types")
	}
}

func TestPhaseDiagramPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := PhaseDiagram(&buf, waterDiagram(t), Options{Width: 640, Height: 480, ClapeyronLV: true}); err != nil {
		t.Fatalf("PhaseDiagram: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Fatalf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPhaseDiagramSVG(t *testing.T) {
	var buf bytes.Buffer
	err := PhaseDiagram(&buf, waterDiagram(t), Options{
		Format:          FormatSVG,
		TemperatureUnit: units.Celsius,
		PressureUnit:    units.Bar,
	})
	if err != nil {
		t.Fatalf("PhaseDiagram: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", "Phase diagram of water (H₂O)", "Triple point", "Antoine L-V"} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q", want)
		}
	}
}

func TestDiagramLinearAxisAndErrors(t *testing.T) {
	d := waterDiagram(t)
	var buf bytes.Buffer
	if err := Diagram(&buf, []phase.BoundaryCurve{d.AntoineLV()}, nil, Options{Format: FormatSVG, LinearPressure: true, Title: "Antoine"}); err != nil {
		t.Fatalf("linear Diagram: %v", err)
	}
	if strings.Contains(buf.String(), "log scale") {
		t.Fatal("linear axis should not be labelled log scale")
	}
	if err := Diagram(&buf, nil, nil, Options{}); !errors.Is(err, ErrNothingToPlot) {
		t.Fatalf("expected ErrNothingToPlot, got %v", err)
	}
	if err := Diagram(&buf, []phase.BoundaryCurve{d.AntoineLV()}, nil, Options{Format: "bmp"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if err := Diagram(&buf, []phase.BoundaryCurve{d.AntoineLV()}, nil, Options{PressureUnit: units.Kelvin}); !errors.Is(err, units.ErrUnitMismatch) {
		t.Fatalf("expected ErrUnitMismatch, got %v", err)
	}
}

func TestTruncateAbove(t *testing.T) {
	d := waterDiagram(t)
	sl, err := d.ClapeyronSL(units.Quantity{})
	if err != nil {
		t.Fatalf("ClapeyronSL: %v", err)
	}
	cut, err := TruncateAbove(sl, units.New(220, units.Bar))
	if err != nil {
		t.Fatalf("TruncateAbove: %v", err)
	}
	if cut.Len() == 0 || cut.Len() >= sl.Len() {
		t.Fatalf("expected a partial curve, got %d of %d", cut.Len(), sl.Len())
	}
	for _, p := range cut.Pressure.Values() {
		if p > 2.2e7 {
			t.Fatalf("sample %v above the limit", p)
		}
	}
	if _, err := TruncateAbove(sl, units.New(1, units.Kelvin)); !errors.Is(err, units.ErrUnitMismatch) {
		t.Fatalf("expected ErrUnitMismatch, got %v", err)
	}
}

func TestDecadeTicks(t *testing.T) {
	r, ticks := decadeTicks(2.7, 7.3)
	if r.Min != 2 || r.Max != 8 || len(ticks) != 7 || ticks[0].Label != "1e+2" {
		t.Fatalf("unexpected ticks %+v %+v", r, ticks)
	}
	r, ticks = decadeTicks(-30, 10)
	if len(ticks) > 14 || r.Min != -30 {
		t.Fatalf("too many ticks: %d", len(ticks))
	}
	r, _ = decadeTicks(3, 3)
	if r.Max != 4 {
		t.Fatalf("degenerate range should widen, got %+v", r)
	}
}

func TestCurveCSV(t *testing.T) {
	a := phase.BoundaryCurve{
		Kind:        phase.CurveAntoine,
		Temperature: units.NewSeries([]float64{300, 310}, units.Kelvin),
		Pressure:    units.NewSeries([]float64{3500, 6200}, units.Pascal),
	}
	b := phase.BoundaryCurve{
		Kind:        phase.CurveSolidVapour,
		Temperature: units.NewSeries([]float64{0}, units.Celsius),
		Pressure:    units.NewSeries([]float64{0.5}, units.Kilopascal),
	}
	var buf bytes.Buffer
	if err := CurveCSV(&buf, a, b); err != nil {
		t.Fatalf("CurveCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "curve,temperature_K,pressure_Pa" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if strings.Join(rows[3], ",") != "clapeyron-sv,273.15,500" {
		t.Fatalf("unexpected converted row %v", rows[3])
	}

	buf.Reset()
	if err := CurveCSV(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("empty export: %q %v", buf.String(), err)
	}
	bad := phase.BoundaryCurve{Kind: "bad", Temperature: units.NewSeries([]float64{1}, units.Pascal), Pressure: units.NewSeries([]float64{1}, units.Pascal)}
	if err := CurveCSV(&buf, a, bad); !errors.Is(err, units.ErrUnitMismatch) {
		t.Fatalf("expected ErrUnitMismatch, got %v", err)
	}
}

func TestCurveJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := CurveJSON(&buf, waterDiagram(t).AntoineLV()); err != nil {
		t.Fatalf("CurveJSON: %v", err)
	}
	var decoded []struct {
		Kind        string `json:"kind"`
		Temperature struct {
			Unit   string    `json:"unit"`
			Values []float64 `json:"values"`
		} `json:"temperature"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Kind != "antoine-lv" || decoded[0].Temperature.Unit != "K" || len(decoded[0].Temperature.Values) != 20 {
		t.Fatalf("unexpected json %+v", decoded)
	}
	buf.Reset()
	_ = CurveJSON(&buf)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty export = %q", buf.String())
	}
}
