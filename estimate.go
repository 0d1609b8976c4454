package compfit

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fallback densities used when the two-point solve is singular or lands
// outside a physically plausible range.
const (
	FallbackFiberDensity  = 2.1
	FallbackMatrixDensity = 1.0
)

// Estimates maps parameter names to starting values for the fitter.
type Estimates map[ParamName]float64

// EstimateInitialParameters derives starting values from measurements.
//
//   - v_f_max: the plateau value, only when sat is non-nil.
//   - fiber_density, matrix_density: two-point solve of Vf·ρf + Vm·ρm = ρc
//     on the two lowest-W_f unsaturated points carrying Vf, Vm and ρc,
//     falling back to 2.1 / 1.0.
//   - fiber_porosity: mean Vp/Vf over unsaturated points with Vf > 0.1, else 0.
//   - matrix_porosity: always 0.
func EstimateInitialParameters(points []ExperimentalPoint, sat *Saturation) Estimates {
	est := Estimates{}

	unsaturated := points
	if sat != nil {
		est[VfMax] = sat.VfSat
		unsaturated = sat.Unsaturated
	}

	rhoF, rhoM := FallbackFiberDensity, FallbackMatrixDensity
	if p1, p2, ok := lowestDensityPair(unsaturated); ok {
		f, m, err := SolveDensities(p1, p2)
		if err == nil && m > 0.5 && m < 2.5 && f > 1.0 && f < 4.0 {
			rhoF, rhoM = f, m
		}
	}
	est[FiberDensity] = rhoF
	est[MatrixDensity] = rhoM

	var ratios []float64
	for _, pt := range unsaturated {
		if pt.Vf != nil && pt.Vp != nil && *pt.Vf > 0.1 {
			ratios = append(ratios, *pt.Vp / *pt.Vf)
		}
	}
	est[FiberPorosity] = 0
	if len(ratios) > 0 {
		est[FiberPorosity] = stat.Mean(ratios, nil)
	}

	est[MatrixPorosity] = 0

	return est
}

func lowestDensityPair(points []ExperimentalPoint) (ExperimentalPoint, ExperimentalPoint, bool) {
	var usable []ExperimentalPoint
	for _, pt := range points {
		if pt.Vf != nil && pt.Vm != nil && pt.RhoC != nil {
			usable = append(usable, pt)
		}
	}
	if len(usable) < 2 {
		return ExperimentalPoint{}, ExperimentalPoint{}, false
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Wf < usable[j].Wf
	})
	return usable[0], usable[1], true
}

// SolveDensities solves the 2×2 system
//
//	Vf₁·ρf + Vm₁·ρm = ρc₁
//	Vf₂·ρf + Vm₂·ρm = ρc₂
//
// for the fiber and matrix densities. Both points must carry Vf, Vm and ρc.
func SolveDensities(p1, p2 ExperimentalPoint) (rhoF, rhoM float64, err error) {
	const op = "density solve"
	for _, pt := range []ExperimentalPoint{p1, p2} {
		switch {
		case pt.Vf == nil:
			return 0, 0, &MissingInputError{Op: op, Input: "V_f"}
		case pt.Vm == nil:
			return 0, 0, &MissingInputError{Op: op, Input: "V_m"}
		case pt.RhoC == nil:
			return 0, 0, &MissingInputError{Op: op, Input: "rho_c"}
		}
	}

	a := mat.NewDense(2, 2, []float64{
		*p1.Vf, *p1.Vm,
		*p2.Vf, *p2.Vm,
	})
	if det := mat.Det(a); math.Abs(det) < 1e-12 {
		return 0, 0, domainErr(op, "det", det, "singular system")
	}

	b := mat.NewVecDense(2, []float64{*p1.RhoC, *p2.RhoC})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return 0, 0, domainErr(op, "det", mat.Det(a), err.Error())
	}
	return x.AtVec(0), x.AtVec(1), nil
}
