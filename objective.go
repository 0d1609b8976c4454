package compfit

import (
	"errors"
	"fmt"
	"strings"
)

// Target selects which measurements the objective compares against.
type Target string

const (
	TargetStiffness Target = "stiffness" // ((Ec−Ec_obs)/Ec_obs)²
	TargetDensity   Target = "density"   // ((ρc−ρc_obs)/ρc_obs)²
	TargetCombined  Target = "combined"  // stiffness and density terms
	TargetVolume    Target = "volume"    // 10·(ΔV)² per fraction plus the density term
)

const (
	// SentinelError is the objective value when nothing can be compared,
	// and the per-point penalty when a point falls outside the model domain.
	SentinelError = 1000.0

	// VolumeWeight scales the absolute volume-fraction terms so they
	// dominate the relative density term.
	VolumeWeight = 10.0
)

// ParseTarget accepts the target names, case-insensitively. "both" is an
// alias for combined.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetStiffness, TargetDensity, TargetCombined, TargetVolume:
		return t, nil
	case "both":
		return TargetCombined, nil
	default:
		return "", fmt.Errorf("unknown target %q (want stiffness, density, combined or volume)", s)
	}
}

// Uses reports whether pt carries a measurement this target compares.
func (t Target) Uses(pt ExperimentalPoint) bool {
	switch t {
	case TargetStiffness:
		return pt.Ec != nil
	case TargetDensity:
		return pt.RhoC != nil
	case TargetCombined:
		return pt.Ec != nil || pt.RhoC != nil
	case TargetVolume:
		return pt.Vf != nil || pt.Vm != nil || pt.Vp != nil
	default:
		return false
	}
}

// Objective is the weighted mean squared error between the forward model
// and a fixed set of measurements, as a function of the fitted parameters.
type Objective struct {
	target Target
	names  []ParamName
	base   Params
	points []ExperimentalPoint
}

// NewObjective binds a target, the ordered list of fitted parameter names,
// the record supplying every non-fitted value, and the measurements.
func NewObjective(target Target, names []ParamName, base Params, points []ExperimentalPoint) (*Objective, error) {
	t, err := ParseTarget(string(target))
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if _, ok := lookupParam(n); !ok {
			return nil, fmt.Errorf("unknown parameter %q", n)
		}
	}
	return &Objective{target: t, names: names, base: base, points: points}, nil
}

// Params merges a candidate vector into the base record.
func (o *Objective) Params(x []float64) (Params, error) {
	if len(x) != len(o.names) {
		return Params{}, fmt.Errorf("objective: got %d values for %d parameters", len(x), len(o.names))
	}
	p := o.base
	for i, n := range o.names {
		if err := p.Set(n, x[i]); err != nil {
			return Params{}, err
		}
	}
	return p, nil
}

// Evaluate returns the mean of all contributing error terms at x.
//
// A point whose evaluation fails with a DomainError contributes
// SentinelError as a single term. Any other error is returned. With no
// contributing terms the result is SentinelError.
func (o *Objective) Evaluate(x []float64) (float64, error) {
	p, err := o.Params(x)
	if err != nil {
		return 0, err
	}

	var (
		sum   float64
		count int
	)

	mix, mixErr := p.Mix()
	for _, pt := range o.points {
		var (
			e float64
			n int
		)
		if mixErr == nil {
			e, n, err = o.pointError(mix, p, pt)
		} else {
			err = mixErr
		}

		var de *DomainError
		switch {
		case errors.As(err, &de):
			sum += SentinelError
			count++
		case err != nil:
			return 0, err
		default:
			sum += e
			count += n
		}
	}

	if count == 0 {
		return SentinelError, nil
	}
	return sum / float64(count), nil
}

func (o *Objective) pointError(mix Mix, p Params, pt ExperimentalPoint) (float64, int, error) {
	ev, err := NewCase(mix,
		WithWeightFraction(pt.Wf),
		WithMaxFiberVolume(p.VfMax),
		WithPorosityExponent(p.PorosityExp),
	).Solve()
	if err != nil {
		return 0, 0, err
	}

	var (
		sum   float64
		count int
	)
	relative := func(quantity string, model float64, obs *float64) error {
		if obs == nil {
			return nil
		}
		if *obs == 0 {
			return domainErr("objective", quantity, *obs, "relative error against a zero measurement")
		}
		r := (model - *obs) / *obs
		sum += r * r
		count++
		return nil
	}
	absolute := func(model float64, obs *float64) {
		if obs == nil {
			return
		}
		d := model - *obs
		sum += VolumeWeight * d * d
		count++
	}

	switch o.target {
	case TargetStiffness:
		err = relative("E_c", ev.Stiffness, pt.Ec)
	case TargetDensity:
		err = relative("rho_c", ev.Density, pt.RhoC)
	case TargetCombined:
		if err = relative("E_c", ev.Stiffness, pt.Ec); err == nil {
			err = relative("rho_c", ev.Density, pt.RhoC)
		}
	case TargetVolume:
		absolute(ev.Fractions.Vf, pt.Vf)
		absolute(ev.Fractions.Vm, pt.Vm)
		absolute(ev.Fractions.Vp, pt.Vp)
		err = relative("rho_c", ev.Density, pt.RhoC)
	}
	if err != nil {
		return 0, 0, err
	}
	return sum, count, nil
}
