package compfit

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Params is the flat material record the forward model and the fitter
// operate on. Densities are in g/cm³, stiffnesses in GPa.
type Params struct {
	MatrixDensity   float64 `json:"matrix_density" validate:"gt=0"`
	MatrixPorosity  float64 `json:"matrix_porosity" validate:"gte=0,lte=1"`
	MatrixStiffness float64 `json:"matrix_stiffness" validate:"gte=0"`
	MatrixPoisson   float64 `json:"matrix_poisson" validate:"gt=-1,lte=0.5"`

	FiberDensity   float64 `json:"fiber_density" validate:"gt=0"`
	FiberPorosity  float64 `json:"fiber_porosity" validate:"gte=0,lte=1"`
	FiberStiffness float64 `json:"fiber_stiffness" validate:"gte=0"`
	FiberEta0      float64 `json:"fiber_eta0" validate:"gte=0,lte=1"`
	FiberLength    float64 `json:"fiber_length" validate:"gt=0"`
	FiberDiameter  float64 `json:"fiber_diameter" validate:"gt=0"`

	VfMax       float64 `json:"v_f_max" validate:"gt=0,lte=1"`
	PorosityExp float64 `json:"porosity_exp" validate:"gte=0"`
}

// DefaultParams returns a glass fiber / epoxy-like starting material.
func DefaultParams() Params {
	return Params{
		MatrixDensity:   1.16,
		MatrixPorosity:  0.0,
		MatrixStiffness: 3.5,
		MatrixPoisson:   0.40,
		FiberDensity:    2.60,
		FiberPorosity:   0.0,
		FiberStiffness:  80,
		FiberEta0:       1.0,
		FiberLength:     10000,
		FiberDiameter:   0.016,
		VfMax:           0.60,
		PorosityExp:     DefaultPorosityExponent,
	}
}

// Validate checks every field against its physical range.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid material parameters: %w", err)
	}
	return nil
}

// Mix constructs the fiber, matrix and mix for these parameters.
func (p Params) Mix() (Mix, error) {
	m, err := NewMatrix(p.MatrixDensity, p.MatrixPorosity, p.MatrixStiffness, p.MatrixPoisson)
	if err != nil {
		return Mix{}, err
	}
	f, err := NewFiber(p.FiberDensity, p.FiberPorosity, p.FiberStiffness, p.FiberEta0, p.FiberLength, p.FiberDiameter)
	if err != nil {
		return Mix{}, err
	}
	return NewMix(f, m)
}

// ParamName names one field of Params.
type ParamName string

const (
	FiberDensity    ParamName = "fiber_density"
	MatrixDensity   ParamName = "matrix_density"
	FiberPorosity   ParamName = "fiber_porosity"
	MatrixPorosity  ParamName = "matrix_porosity"
	VfMax           ParamName = "v_f_max"
	FiberStiffness  ParamName = "fiber_stiffness"
	MatrixStiffness ParamName = "matrix_stiffness"
	MatrixPoisson   ParamName = "matrix_poisson"
	FiberEta0       ParamName = "fiber_eta0"
	PorosityExp     ParamName = "porosity_exp"
	FiberLength     ParamName = "fiber_length"
	FiberDiameter   ParamName = "fiber_diameter"
)

// Bounds is a closed box constraint [Lower, Upper].
type Bounds struct {
	Lower float64
	Upper float64
}

// Contains reports whether x lies in the box.
func (b Bounds) Contains(x float64) bool {
	return x >= b.Lower && x <= b.Upper
}

// Clamp moves x into the box.
func (b Bounds) Clamp(x float64) float64 {
	if x < b.Lower {
		return b.Lower
	}
	if x > b.Upper {
		return b.Upper
	}
	return x
}

func (b Bounds) valid() bool {
	return !isNonFinite(b.Lower) && !isNonFinite(b.Upper) && b.Lower <= b.Upper
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g, %g]", b.Lower, b.Upper)
}

// paramSpec is one row of the parameter table. Adding a fittable
// parameter means adding a row here; the fitter reads nothing else.
type paramSpec struct {
	name  ParamName
	field func(*Params) *float64

	fittable bool
	bounds   Bounds

	// estimated parameters start from EstimateInitialParameters when it
	// produced a value, otherwise from the caller's record.
	estimated bool

	// narrow tightens the bounds once saturation is known.
	narrow func(Bounds, Saturation) Bounds
}

var paramTable = []paramSpec{
	{
		name:      FiberDensity,
		field:     func(p *Params) *float64 { return &p.FiberDensity },
		fittable:  true,
		bounds:    Bounds{1.5, 3.5},
		estimated: true,
	},
	{
		name:      MatrixDensity,
		field:     func(p *Params) *float64 { return &p.MatrixDensity },
		fittable:  true,
		bounds:    Bounds{0.8, 1.5},
		estimated: true,
	},
	{
		name:      FiberPorosity,
		field:     func(p *Params) *float64 { return &p.FiberPorosity },
		fittable:  true,
		bounds:    Bounds{0, 0.5},
		estimated: true,
	},
	{
		// Matrix is assumed close to non-porous.
		name:      MatrixPorosity,
		field:     func(p *Params) *float64 { return &p.MatrixPorosity },
		fittable:  true,
		bounds:    Bounds{0, 0.05},
		estimated: true,
	},
	{
		name:      VfMax,
		field:     func(p *Params) *float64 { return &p.VfMax },
		fittable:  true,
		bounds:    Bounds{0.15, 0.80},
		estimated: true,
		narrow: func(_ Bounds, s Saturation) Bounds {
			return Bounds{s.VfSat * 0.95, s.VfSat * 1.05}
		},
	},
	{
		name:     FiberStiffness,
		field:    func(p *Params) *float64 { return &p.FiberStiffness },
		fittable: true,
		bounds:   Bounds{10, 500},
	},
	{
		name:     MatrixStiffness,
		field:    func(p *Params) *float64 { return &p.MatrixStiffness },
		fittable: true,
		bounds:   Bounds{0.5, 10},
	},
	{
		name:     MatrixPoisson,
		field:    func(p *Params) *float64 { return &p.MatrixPoisson },
		fittable: true,
		bounds:   Bounds{0.2, 0.5},
	},
	{
		name:     FiberEta0,
		field:    func(p *Params) *float64 { return &p.FiberEta0 },
		fittable: true,
		bounds:   Bounds{0.1, 1.0},
	},
	{
		name:     PorosityExp,
		field:    func(p *Params) *float64 { return &p.PorosityExp },
		fittable: true,
		bounds:   Bounds{1, 5},
	},
	{
		name:  FiberLength,
		field: func(p *Params) *float64 { return &p.FiberLength },
	},
	{
		name:  FiberDiameter,
		field: func(p *Params) *float64 { return &p.FiberDiameter },
	},
}

func lookupParam(name ParamName) (paramSpec, bool) {
	for _, s := range paramTable {
		if s.name == name {
			return s, true
		}
	}
	return paramSpec{}, false
}

// Fittable lists the parameter names the fitter accepts, in table order.
func Fittable() []ParamName {
	names := make([]ParamName, 0, len(paramTable))
	for _, s := range paramTable {
		if s.fittable {
			names = append(names, s.name)
		}
	}
	return names
}

// DefaultBounds returns the configured box for a fittable parameter.
func DefaultBounds(name ParamName) (Bounds, bool) {
	s, ok := lookupParam(name)
	if !ok || !s.fittable {
		return Bounds{}, false
	}
	return s.bounds, true
}

// ParseParamName validates a parameter name.
func ParseParamName(s string) (ParamName, error) {
	if _, ok := lookupParam(ParamName(s)); !ok {
		return "", fmt.Errorf("unknown parameter %q", s)
	}
	return ParamName(s), nil
}

// Get returns the value of a named parameter.
func (p Params) Get(name ParamName) (float64, error) {
	s, ok := lookupParam(name)
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	return *s.field(&p), nil
}

// Set assigns a named parameter in place.
func (p *Params) Set(name ParamName, v float64) error {
	s, ok := lookupParam(name)
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	*s.field(p) = v
	return nil
}

// With returns a copy of p with the given values applied.
func (p Params) With(values map[ParamName]float64) (Params, error) {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, string(n))
	}
	sort.Strings(names)
	for _, n := range names {
		if err := p.Set(ParamName(n), values[ParamName(n)]); err != nil {
			return Params{}, err
		}
	}
	return p, nil
}
