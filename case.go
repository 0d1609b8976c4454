package compfit

import "fmt"

// CaseType identifies the packing regime at a given weight fraction.
type CaseType int

const (
	CaseUnknown CaseType = iota
	CaseA                // Unsaturated: fiber below the packing limit
	CaseB                // Saturated: fiber pinned at V_f_max, matrix deficit becomes porosity
)

func (c CaseType) String() string {
	switch c {
	case CaseA:
		return "Case A"
	case CaseB:
		return "Case B"
	default:
		return "Unknown"
	}
}

// DefaultPorosityExponent is the exponent n in (1−Vp)ⁿ when none is given.
const DefaultPorosityExponent = 2.0

// Fractions holds the three volume fractions of a composite.
// For every valid evaluation Vf + Vm + Vp = 1.
type Fractions struct {
	Vf float64
	Vm float64
	Vp float64
}

// Sum returns Vf + Vm + Vp.
func (f Fractions) Sum() float64 { return f.Vf + f.Vm + f.Vp }

// Case is one forward-model evaluation of a Mix at a fiber weight fraction.
//
// Case A (W_f ≤ W_f_trans):
//
//	Vf = W_f·ρm / (W_f·ρm·(1+α_pf) + (1−W_f)·ρf·(1+α_pm))
//	Vm = (1−W_f)·ρf / (same)
//	Vp = (W_f·ρm·α_pf + (1−W_f)·ρf·α_pm) / (same)
//
// Case B (W_f > W_f_trans):
//
//	Vf = V_f_max
//	Vm = V_f_max·(1−W_f)·ρf / (W_f·ρm)
//	Vp = 1 − Vf − Vm
type Case struct {
	mix Mix

	wf    float64
	hasWf bool

	vfMax    float64
	hasVfMax bool

	n float64
}

// CaseOption configures a Case.
type CaseOption func(*Case)

// WithWeightFraction sets the fiber weight fraction W_f.
func WithWeightFraction(wf float64) CaseOption {
	return func(c *Case) {
		c.wf = wf
		c.hasWf = true
	}
}

// WithMaxFiberVolume sets the packing limit V_f_max.
func WithMaxFiberVolume(vfMax float64) CaseOption {
	return func(c *Case) {
		c.vfMax = vfMax
		c.hasVfMax = true
	}
}

// WithPorosityExponent sets n in the stiffness porosity knock-down.
func WithPorosityExponent(n float64) CaseOption {
	return func(c *Case) { c.n = n }
}

// NewCase binds a mix to the given inputs. Missing inputs are only
// reported when a computation that needs them is requested.
func NewCase(mix Mix, opts ...CaseOption) *Case {
	c := &Case{mix: mix, n: DefaultPorosityExponent}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Case) weightFraction(op string) (float64, error) {
	if !c.hasWf {
		return 0, &MissingInputError{Op: op, Input: "W_f"}
	}
	if !(c.wf > 0 && c.wf < 1) {
		return 0, domainErr(op, "W_f", c.wf, "must be in the open interval (0,1)")
	}
	return c.wf, nil
}

func (c *Case) maxFiberVolume(op string) (float64, error) {
	if !c.hasVfMax {
		return 0, &MissingInputError{Op: op, Input: "V_f_max"}
	}
	return c.vfMax, nil
}

// TransitionWeightFraction returns the W_f at which Case A reaches V_f_max:
//
//	W_f_trans = V·ρf·(1+α_pm) / (V·ρf·(1+α_pm) − V·ρm·(1+α_pf) + ρm)
//
// with V = V_f_max. This is Vf_A(W_f) = V_f_max solved for W_f, so both
// branches meet at the boundary for any α_pm.
func (c *Case) TransitionWeightFraction() (float64, error) {
	const op = "transition weight fraction"
	v, err := c.maxFiberVolume(op)
	if err != nil {
		return 0, err
	}
	f, m := c.mix.fiber, c.mix.matrix
	num := v * f.Density * (1 + m.Porosity)
	den := num - v*m.Density*(1+f.Porosity) + m.Density
	if err := checkDenominator(op, "denominator", den); err != nil {
		return 0, err
	}
	return num / den, nil
}

// Classify selects Case A when W_f ≤ W_f_trans and Case B otherwise.
func (c *Case) Classify() (CaseType, error) {
	wf, err := c.weightFraction("classify")
	if err != nil {
		return CaseUnknown, err
	}
	trans, err := c.TransitionWeightFraction()
	if err != nil {
		return CaseUnknown, err
	}
	if wf <= trans {
		return CaseA, nil
	}
	return CaseB, nil
}

// VolumeFractionsA evaluates the unsaturated branch.
func (c *Case) VolumeFractionsA() (Fractions, error) {
	const op = "case A"
	wf, err := c.weightFraction(op)
	if err != nil {
		return Fractions{}, err
	}
	f, m := c.mix.fiber, c.mix.matrix
	fib := wf * m.Density
	mat := (1 - wf) * f.Density
	den := fib*(1+f.Porosity) + mat*(1+m.Porosity)
	if err := checkDenominator(op, "denominator", den); err != nil {
		return Fractions{}, err
	}
	return Fractions{
		Vf: fib / den,
		Vm: mat / den,
		Vp: (fib*f.Porosity + mat*m.Porosity) / den,
	}, nil
}

// VolumeFractionsB evaluates the saturated branch.
func (c *Case) VolumeFractionsB() (Fractions, error) {
	const op = "case B"
	v, err := c.maxFiberVolume(op)
	if err != nil {
		return Fractions{}, err
	}
	wf, err := c.weightFraction(op)
	if err != nil {
		return Fractions{}, err
	}
	f, m := c.mix.fiber, c.mix.matrix
	den := wf * m.Density
	if err := checkDenominator(op, "W_f·ρm", den); err != nil {
		return Fractions{}, err
	}
	vm := v * (1 - wf) * f.Density / den
	return Fractions{Vf: v, Vm: vm, Vp: 1 - v - vm}, nil
}

// Evaluation is the full forward-model output at one weight fraction.
type Evaluation struct {
	WeightFraction           float64
	Case                     CaseType
	Fractions                Fractions
	Density                  float64 // ρc
	Stiffness                float64 // Ec
	TransitionWeightFraction float64
}

// Solve classifies the case and evaluates fractions, density and stiffness.
func (c *Case) Solve() (Evaluation, error) {
	ct, err := c.Classify()
	if err != nil {
		return Evaluation{}, err
	}
	trans, err := c.TransitionWeightFraction()
	if err != nil {
		return Evaluation{}, err
	}

	var fr Fractions
	if ct == CaseA {
		fr, err = c.VolumeFractionsA()
	} else {
		fr, err = c.VolumeFractionsB()
	}
	if err != nil {
		return Evaluation{}, err
	}

	ec := c.mix.Stiffness(fr.Vf, fr.Vm, c.n)
	if isNonFinite(ec) {
		return Evaluation{}, domainErr("stiffness", "E_c", ec, "not finite")
	}

	return Evaluation{
		WeightFraction:           c.wf,
		Case:                     ct,
		Fractions:                fr,
		Density:                  c.mix.Density(fr.Vf, fr.Vm),
		Stiffness:                ec,
		TransitionWeightFraction: trans,
	}, nil
}

// Evaluate runs the forward model for a material record at weight fraction wf.
func Evaluate(p Params, wf float64) (Evaluation, error) {
	mix, err := p.Mix()
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate W_f=%g: %w", wf, err)
	}
	c := NewCase(mix,
		WithWeightFraction(wf),
		WithMaxFiberVolume(p.VfMax),
		WithPorosityExponent(p.PorosityExp),
	)
	return c.Solve()
}
