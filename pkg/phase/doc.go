// Package phase computes phase-boundary curves for a pure compound and
// classifies (temperature, pressure) points against them.
//
// Curves:
//
//   - ClapeyronSL: integrated Clausius–Clapeyron solid–liquid line
//     P(T) = P_t + (ΔH_fus/ΔV_fus)·ln(T/T_t), sampled from T_t towards
//     higher temperature when ΔV_fus > 0 and towards lower temperature
//     when ΔV_fus < 0 (default range 5 K, never below
//     MinSolidLiquidTemperature).
//   - ClapeyronSV: P(T) = P_t·exp[(ΔH_sub/R)(1/T_t − 1/T)] over
//     [T_t − r, T_t] (default r = 60 K, lower bound clamped to 0 K).
//   - ClapeyronLV: the same form with ΔH_vap over [T_t, T_c].
//   - AntoineLV: log10 P = A − B/(C + T) with coefficients converted to
//     kelvin and pascal, sampled over [T_t, T_c]. Values outside the
//     tabulated [Tmin, Tmax] are extrapolated.
//
// Every curve is a BoundaryCurve of Options.Samples evenly spaced
// temperatures (100 by default) with a unit attached to each axis.
//
// Classification (Classify) applies, first match wins:
//
//  1. T == T_t: vapour below P_t, otherwise liquid when ΔV_fus < 0 and
//     solid when it is not.
//  2. T == T_c: vapour below P_c, otherwise liquid.
//  3. Within Options.Tolerance of the Antoine, solid–liquid or solid–vapour
//     curve: the matching "*-curve" label, in that order.
//  4. Regions: above T_c supercritical fluid or gas; vapour below the
//     Antoine curve (T > T_t) or below the solid–vapour curve (T < T_t);
//     otherwise solid when T < T_t and above the solid–vapour curve, else
//     liquid. The last rule ignores the sign of ΔV_fus, so some points above
//     the solid–liquid line are reported on the wrong side of it. A zero
//     ΔV_fus yields the empty label.
//
// A Diagram converts its PhaseConstants to SI once; all methods are pure and
// safe for concurrent use.
//
// Errors (sentinel):
//
//   - ErrInvalidConstants when constants are incomplete, dimensionally wrong
//     or break T_t < T_c.
//   - ErrInvalidPoint when a point carries non-finite or non-convertible
//     magnitudes.
//   - ErrInvalidOptions for sample counts below 2 or negative ranges.
//   - ErrUnknownCurve for a CurveKind outside the four curves.
package phase
