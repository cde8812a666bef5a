package phase

import (
	"phasecore/pkg/domain"
	"phasecore/pkg/units"
)

// ClapeyronSL builds a default Diagram and samples its solid–liquid line.
func ClapeyronSL(pc domain.PhaseConstants, span units.Quantity) (BoundaryCurve, error) {
	d, err := NewDiagram(pc, nil)
	if err != nil {
		return BoundaryCurve{}, err
	}
	return d.ClapeyronSL(span)
}

// ClapeyronSV builds a default Diagram and samples its solid–vapour line.
func ClapeyronSV(pc domain.PhaseConstants, span units.Quantity) (BoundaryCurve, error) {
	d, err := NewDiagram(pc, nil)
	if err != nil {
		return BoundaryCurve{}, err
	}
	return d.ClapeyronSV(span)
}

// ClapeyronLV builds a default Diagram and samples its Clapeyron liquid–vapour line.
func ClapeyronLV(pc domain.PhaseConstants) (BoundaryCurve, error) {
	d, err := NewDiagram(pc, nil)
	if err != nil {
		return BoundaryCurve{}, err
	}
	return d.ClapeyronLV(), nil
}

// AntoineLV builds a default Diagram and samples its Antoine curve.
func AntoineLV(pc domain.PhaseConstants) (BoundaryCurve, error) {
	d, err := NewDiagram(pc, nil)
	if err != nil {
		return BoundaryCurve{}, err
	}
	return d.AntoineLV(), nil
}

// ClassifyState builds a default Diagram and classifies point.
func ClassifyState(pc domain.PhaseConstants, point domain.StatePoint) (StateLabel, error) {
	d, err := NewDiagram(pc, nil)
	if err != nil {
		return StateUnknown, err
	}
	return d.Classify(point)
}
