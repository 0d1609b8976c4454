package compfit

import (
	"math"
)

// Kappa is the fiber packing constant κ = π/(2√3) ≈ 0.907 used by the
// shear-lag length efficiency law.
var Kappa = math.Pi / (2 * math.Sqrt(3))

func isNonFinite(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}

// Matrix is the continuous phase of the composite.
type Matrix struct {
	Density   float64 // ρm (g/cm³)
	Porosity  float64 // α_pm ∈ [0,1]
	Stiffness float64 // E_m (GPa)
	Poisson   float64 // ν_m
}

// NewMatrix validates and returns a matrix.
func NewMatrix(density, porosity, stiffness, poisson float64) (Matrix, error) {
	const op = "matrix"
	if !(density > 0) {
		return Matrix{}, domainErr(op, "density", density, "must be positive")
	}
	if porosity < 0 || porosity > 1 || isNonFinite(porosity) {
		return Matrix{}, domainErr(op, "porosity", porosity, "must be in [0,1]")
	}
	if poisson <= -1 || isNonFinite(poisson) {
		return Matrix{}, domainErr(op, "poisson", poisson, "must be greater than -1")
	}
	return Matrix{Density: density, Porosity: porosity, Stiffness: stiffness, Poisson: poisson}, nil
}

// ShearStiffness returns G_m = E_m / (2(1+ν_m)).
func (m Matrix) ShearStiffness() float64 {
	return m.Stiffness / (2 * (1 + m.Poisson))
}

// Fiber is the reinforcing phase.
type Fiber struct {
	Density     float64 // ρf (g/cm³)
	Porosity    float64 // α_pf ∈ [0,1]
	Stiffness   float64 // E_f (GPa)
	Orientation float64 // η₀ ∈ [0,1]
	Length      float64 // L
	Diameter    float64 // D, same unit as L
}

// NewFiber validates and returns a fiber.
//
// The aspect ratio L/D must exceed κ: the length efficiency law takes
// ln(κ/(L/D)), which is singular at L/D = κ and changes sign below it.
func NewFiber(density, porosity, stiffness, eta0, length, diameter float64) (Fiber, error) {
	const op = "fiber"
	if !(density > 0) {
		return Fiber{}, domainErr(op, "density", density, "must be positive")
	}
	if porosity < 0 || porosity > 1 || isNonFinite(porosity) {
		return Fiber{}, domainErr(op, "porosity", porosity, "must be in [0,1]")
	}
	if eta0 < 0 || eta0 > 1 || isNonFinite(eta0) {
		return Fiber{}, domainErr(op, "eta0", eta0, "must be in [0,1]")
	}
	if !(diameter > 0) {
		return Fiber{}, domainErr(op, "diameter", diameter, "must be positive")
	}
	if !(length > 0) {
		return Fiber{}, domainErr(op, "length", length, "must be positive")
	}
	if ar := length / diameter; ar <= Kappa || isNonFinite(ar) {
		return Fiber{}, domainErr(op, "aspect_ratio", ar, "must exceed κ≈0.907")
	}
	return Fiber{
		Density:     density,
		Porosity:    porosity,
		Stiffness:   stiffness,
		Orientation: eta0,
		Length:      length,
		Diameter:    diameter,
	}, nil
}

// AspectRatio returns L/D.
func (f Fiber) AspectRatio() float64 {
	return f.Length / f.Diameter
}

// LengthEfficiency computes η₁ for a matrix of shear stiffness gm:
//
//	β  = 2·G_m / (E_f · ln(κ/(L/D)))
//	η₁ = 1 − tanh(βL/2) / (βL/2)
//
// A zero βL/2 (G_m = 0) gives η₁ = 0, the limit of the expression.
func (f Fiber) LengthEfficiency(gm float64) (float64, error) {
	const op = "length efficiency"
	logArg := math.Log(Kappa / f.AspectRatio())
	d := f.Stiffness * logArg
	if err := checkDenominator(op, "E_f·ln(κ/ar)", d); err != nil {
		return 0, err
	}
	beta := 2 * gm / d
	x := beta * f.Length / 2
	if isNonFinite(x) {
		return 0, domainErr(op, "βL/2", x, "not finite")
	}
	if x == 0 {
		return 0, nil
	}
	return 1 - math.Tanh(x)/x, nil
}

// Mix pairs a fiber with a matrix. The length efficiency η₁ depends on
// the matrix shear stiffness and is computed once at construction, so a
// Mix can never carry a stale value.
type Mix struct {
	fiber  Fiber
	matrix Matrix
	eta1   float64
}

// NewMix builds a mix and derives η₁ from the matrix shear stiffness.
func NewMix(f Fiber, m Matrix) (Mix, error) {
	eta1, err := f.LengthEfficiency(m.ShearStiffness())
	if err != nil {
		return Mix{}, err
	}
	return Mix{fiber: f, matrix: m, eta1: eta1}, nil
}

// Fiber returns the fiber phase.
func (x Mix) Fiber() Fiber { return x.fiber }

// Matrix returns the matrix phase.
func (x Mix) Matrix() Matrix { return x.matrix }

// LengthEfficiency returns the cached η₁.
func (x Mix) LengthEfficiency() float64 { return x.eta1 }

// Porosity returns Vp = 1 − Vf − Vm.
func (x Mix) Porosity(vf, vm float64) float64 {
	return 1 - vf - vm
}

// Density returns ρc = Vf·ρf + Vm·ρm.
func (x Mix) Density(vf, vm float64) float64 {
	return vf*x.fiber.Density + vm*x.matrix.Density
}

// Stiffness returns the rule-of-mixtures stiffness knocked down by porosity:
//
//	Ec = (η₀·η₁·Vf·E_f + Vm·E_m) · (1−Vp)ⁿ
func (x Mix) Stiffness(vf, vm, n float64) float64 {
	vp := x.Porosity(vf, vm)
	reinforced := x.fiber.Orientation*x.eta1*vf*x.fiber.Stiffness + vm*x.matrix.Stiffness
	return reinforced * math.Pow(1-vp, n)
}
