package compfit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// SweepPoint is one sample of a forward-model series.
type SweepPoint struct {
	Evaluation

	// DensityNoPorosity is ρc with Vf and Vm rescaled to sum to 1.
	DensityNoPorosity float64
	LengthEfficiency  float64
}

// Sweep evaluates p at n evenly spaced weight fractions in [lo, hi].
// Samples outside the model domain (including W_f = 0 and W_f = 1) are
// omitted. Any other failure aborts the sweep.
func Sweep(p Params, lo, hi float64, n int) ([]SweepPoint, error) {
	if n < 2 {
		return nil, fmt.Errorf("sweep: need at least 2 samples, got %d", n)
	}
	if !(lo <= hi) {
		return nil, fmt.Errorf("sweep: empty range [%g, %g]", lo, hi)
	}
	mix, err := p.Mix()
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	f, m := mix.Fiber(), mix.Matrix()

	out := make([]SweepPoint, 0, n)
	for _, wf := range floats.Span(make([]float64, n), lo, hi) {
		ev, err := NewCase(mix,
			WithWeightFraction(wf),
			WithMaxFiberVolume(p.VfMax),
			WithPorosityExponent(p.PorosityExp),
		).Solve()
		if errors.Is(err, ErrDomain) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sweep W_f=%g: %w", wf, err)
		}

		sp := SweepPoint{Evaluation: ev, LengthEfficiency: mix.LengthEfficiency()}
		if total := ev.Fractions.Vf + ev.Fractions.Vm; total > 0 {
			sp.DensityNoPorosity = (ev.Fractions.Vf*f.Density + ev.Fractions.Vm*m.Density) / total
		}
		out = append(out, sp)
	}
	return out, nil
}

// Report is the single-point summary of a material at its test weight fraction.
type Report struct {
	Name             string
	FiberName        string
	MatrixName       string
	ShearStiffness   float64 // G_m
	AspectRatio      float64
	LengthEfficiency float64 // η₁
	Evaluation
}

// Calculate validates m and evaluates it at m.Composite.WfTest.
func Calculate(m Material) (Report, error) {
	if err := m.Validate(); err != nil {
		return Report{}, err
	}
	p := m.Params()
	mix, err := p.Mix()
	if err != nil {
		return Report{}, fmt.Errorf("calculate %q: %w", m.Name, err)
	}
	ev, err := NewCase(mix,
		WithWeightFraction(m.Composite.WfTest),
		WithMaxFiberVolume(p.VfMax),
		WithPorosityExponent(p.PorosityExp),
	).Solve()
	if err != nil {
		return Report{}, fmt.Errorf("calculate %q: %w", m.Name, err)
	}
	return Report{
		Name:             m.Name,
		FiberName:        m.FiberName,
		MatrixName:       m.MatrixName,
		ShearStiffness:   mix.Matrix().ShearStiffness(),
		AspectRatio:      mix.Fiber().AspectRatio(),
		LengthEfficiency: mix.LengthEfficiency(),
		Evaluation:       ev,
	}, nil
}
