package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"phasecore/pkg/phase"
)

// CurveCSV writes one row per sample: curve kind, temperature and pressure,
// with the units named in the header.
func CurveCSV(w io.Writer, curves ...phase.BoundaryCurve) error {
	cw := csv.NewWriter(w)
	if len(curves) > 0 {
		header := []string{
			"curve",
			fmt.Sprintf("temperature_%s", curves[0].Temperature.Unit().Symbol()),
			fmt.Sprintf("pressure_%s", curves[0].Pressure.Unit().Symbol()),
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	for i, c := range curves {
		if i > 0 {
			converted, err := c.To(curves[0].Temperature.Unit(), curves[0].Pressure.Unit())
			if err != nil {
				return fmt.Errorf("%s: %w", c.Kind, err)
			}
			c = converted
		}
		ts, ps := c.Temperature.Values(), c.Pressure.Values()
		for j := range ts {
			row := []string{
				string(c.Kind),
				strconv.FormatFloat(ts[j], 'g', -1, 64),
				strconv.FormatFloat(ps[j], 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// CurveJSON writes the curves as a JSON array.
func CurveJSON(w io.Writer, curves ...phase.BoundaryCurve) error {
	if curves == nil {
		curves = []phase.BoundaryCurve{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(curves)
}
