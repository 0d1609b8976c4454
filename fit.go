package compfit

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// FitConfig controls the optimizer.
type FitConfig struct {
	MaxIterations     int     // Major iteration cap per stage
	FunctionTolerance float64 // Relative improvement below which an iteration counts as stalled
	GradientThreshold float64 // Stop when ‖∇f‖∞ falls below this (0 = unchecked)
	StallIterations   int     // Consecutive stalled iterations before declaring convergence
	Polish            bool    // Run a Nelder-Mead stage when L-BFGS stops without converging
	Logger            *slog.Logger
}

// DefaultFitConfig returns the settings used by the calibration tools.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		MaxIterations:     2000,
		FunctionTolerance: 1e-12,
		GradientThreshold: 1e-8,
		StallIterations:   10,
		Polish:            true,
	}
}

func (c FitConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// FitRequest describes one calibration run.
type FitRequest struct {
	Points []ExperimentalPoint
	Target Target
	Fit    []ParamName // Parameters to optimize, in vector order
	Fixed  Params      // Values for every parameter not being fitted, and the "original" values for Changes
	Bounds map[ParamName]Bounds
}

// ParamChange compares a fitted value with the value it replaced.
// Change is a percentage when Relative is true and an absolute
// difference when the original was ~0.
type ParamChange struct {
	Name     ParamName
	Original float64
	Fitted   float64
	Change   float64
	Relative bool
}

func (c ParamChange) String() string {
	if c.Relative {
		return fmt.Sprintf("%s: %.6f -> %.6f (%+.2f%%)", c.Name, c.Original, c.Fitted, c.Change)
	}
	return fmt.Sprintf("%s: %.6f -> %.6f (from ~0)", c.Name, c.Original, c.Fitted)
}

// FitResult reports the outcome of Fit. Fitted always holds the best
// iterate found, even when Success is false.
type FitResult struct {
	Fitted  map[ParamName]float64
	Initial map[ParamName]float64
	Bounds  map[ParamName]Bounds

	Error        float64 // Objective at Fitted
	InitialError float64 // Objective at Initial
	Success      bool
	Iterations   int // Major iterations over all stages
	Evaluations  int // Objective evaluations, including finite differences
	Message      string

	Saturation *Saturation // nil when no plateau was found
	PointsUsed int         // Points the objective compared against
	Changes    []ParamChange
}

// Apply writes the fitted values into p. Deciding whether to accept a
// fit is left to the caller.
func (r FitResult) Apply(p Params) (Params, error) {
	return p.With(r.Fitted)
}

// Fit estimates the parameters named in req.Fit from the measurements.
//
// Points that carry nothing the target can compare are dropped first.
// Saturation is detected on the rest, starting values come from
// EstimateInitialParameters where the parameter table allows it, and
// bounds come from the table (narrowed around a detected plateau for
// v_f_max) unless overridden in req.Bounds. When fiber_porosity is fitted
// only the unsaturated points are compared.
//
// Minimization runs L-BFGS on a sine reparametrization of the box,
// x = lo + (hi−lo)·(1+sin u)/2, with a central-difference gradient. If it
// stops without converging and cfg.Polish is set, Nelder-Mead continues
// from the best iterate.
//
// Non-convergence is reported through Success, never as an error. Errors
// are returned for invalid requests and for failures other than
// DomainError inside the objective.
func Fit(req FitRequest, cfg FitConfig) (FitResult, error) {
	log := cfg.logger()

	target, err := ParseTarget(string(req.Target))
	if err != nil {
		return FitResult{}, fmt.Errorf("fit: %w", err)
	}
	specs, err := fitSpecs(req.Fit)
	if err != nil {
		return FitResult{}, fmt.Errorf("fit: %w", err)
	}
	for name, b := range req.Bounds {
		if !b.valid() {
			return FitResult{}, fmt.Errorf("fit: invalid bounds %s for %s", b, name)
		}
	}

	var usable []ExperimentalPoint
	for _, pt := range req.Points {
		if target.Uses(pt) {
			usable = append(usable, pt)
		}
	}

	res := FitResult{
		Fitted:  make(map[ParamName]float64, len(specs)),
		Initial: make(map[ParamName]float64, len(specs)),
		Bounds:  make(map[ParamName]Bounds, len(specs)),
	}

	if len(usable) == 0 {
		for _, s := range specs {
			v := *s.field(&req.Fixed)
			res.Initial[s.name] = v
			res.Fitted[s.name] = v
			res.Bounds[s.name] = s.bounds
		}
		res.Error = SentinelError
		res.InitialError = SentinelError
		res.Message = fmt.Sprintf("no experimental points carry data for target %s", target)
		log.Warn("fit skipped", "target", target, "reason", res.Message)
		return res, nil
	}

	sat, saturated := DetectSaturation(usable)
	var satp *Saturation
	if saturated {
		satp = &sat
		res.Saturation = satp
		log.Debug("saturation detected",
			"vf_sat", sat.VfSat,
			"boundary_wf", sat.BoundaryWeightFraction,
			"unsaturated", len(sat.Unsaturated),
			"saturated", len(sat.Saturated))
	}

	est := EstimateInitialParameters(usable, satp)

	names := make([]ParamName, len(specs))
	bounds := make([]Bounds, len(specs))
	x0 := make([]float64, len(specs))
	fitsPorosity := false
	for i, s := range specs {
		b := s.bounds
		if saturated && s.narrow != nil {
			b = s.narrow(b, sat)
		}
		if o, ok := req.Bounds[s.name]; ok {
			b = o
		}

		v := *s.field(&req.Fixed)
		if e, ok := est[s.name]; ok && s.estimated {
			v = e
		}
		v = b.Clamp(v)

		names[i], bounds[i], x0[i] = s.name, b, v
		res.Initial[s.name] = v
		res.Bounds[s.name] = b
		if s.name == FiberPorosity {
			fitsPorosity = true
		}
	}

	points := usable
	if fitsPorosity && saturated {
		points = sat.Unsaturated
	}
	res.PointsUsed = len(points)

	obj, err := NewObjective(target, names, req.Fixed, points)
	if err != nil {
		return FitResult{}, fmt.Errorf("fit: %w", err)
	}

	res.InitialError, err = obj.Evaluate(x0)
	if err != nil {
		return FitResult{}, fmt.Errorf("fit: initial objective: %w", err)
	}
	log.Debug("initial estimates", "values", res.Initial, "error", res.InitialError, "points", len(points))

	tr := boxTransform(bounds)
	var evalErr error
	f := func(u []float64) float64 {
		res.Evaluations++
		v, err := obj.Evaluate(tr.toX(u))
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.Inf(1)
		}
		return v
	}

	bestU := tr.toU(x0)
	bestF := f(bestU)
	status := optimize.NotTerminated
	var stageErr error

	stages := []struct {
		name   string
		method optimize.Method
		grad   bool
	}{
		{"lbfgs", &optimize.LBFGS{}, true},
		{"nelder-mead", &optimize.NelderMead{SimplexSize: 0.01}, false},
	}
	for i, st := range stages {
		if i > 0 && (converged(status) || !cfg.Polish) {
			break
		}

		p := optimize.Problem{Func: f}
		if st.grad {
			p.Grad = func(grad, u []float64) {
				fd.Gradient(grad, f, u, &fd.Settings{Formula: fd.Central})
			}
		}
		r, err := optimize.Minimize(p, bestU, stageSettings(cfg, len(bestU), st.grad), st.method)
		if evalErr != nil {
			return FitResult{}, fmt.Errorf("fit: objective: %w", evalErr)
		}
		if r == nil {
			return FitResult{}, fmt.Errorf("fit: %s: %w", st.name, err)
		}

		res.Iterations += r.Stats.MajorIterations
		status, stageErr = r.Status, err
		if r.F <= bestF && !isNonFinite(r.F) {
			bestF = r.F
			bestU = append(bestU[:0:0], r.X...)
		}
		log.Debug("optimizer stage done",
			"stage", st.name,
			"status", r.Status.String(),
			"error", r.F,
			"iterations", r.Stats.MajorIterations,
			"err", err)
	}

	xBest := tr.toX(bestU)
	for i, n := range names {
		res.Fitted[n] = xBest[i]
	}
	res.Error = bestF
	res.Success = converged(status)
	res.Message = status.String()
	if stageErr != nil {
		res.Message = fmt.Sprintf("%s: %v", status, stageErr)
	}
	res.Changes = changes(names, req.Fixed, res.Fitted)

	log.Info("fit complete",
		"target", target,
		"success", res.Success,
		"error", res.Error,
		"initial_error", res.InitialError,
		"iterations", res.Iterations,
		"message", res.Message)

	return res, nil
}

func fitSpecs(names []ParamName) ([]paramSpec, error) {
	if len(names) == 0 {
		return nil, errors.New("no parameters selected")
	}
	seen := make(map[ParamName]bool, len(names))
	specs := make([]paramSpec, 0, len(names))
	for _, n := range names {
		s, ok := lookupParam(n)
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q", n)
		}
		if !s.fittable {
			return nil, fmt.Errorf("parameter %q cannot be fitted", n)
		}
		if seen[n] {
			return nil, fmt.Errorf("parameter %q listed twice", n)
		}
		seen[n] = true
		specs = append(specs, s)
	}
	return specs, nil
}

func stageSettings(cfg FitConfig, dim int, grad bool) *optimize.Settings {
	stall := cfg.StallIterations
	if !grad {
		// Nelder-Mead often keeps its best vertex for a few steps while
		// the simplex contracts.
		stall *= dim + 1
	}
	s := &optimize.Settings{
		MajorIterations: cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-15,
			Relative:   cfg.FunctionTolerance,
			Iterations: stall,
		},
	}
	if grad {
		s.GradientThreshold = cfg.GradientThreshold
	}
	return s
}

// converged reports whether a termination status means the optimizer
// reached a tolerance rather than a limit or a failure.
func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

func changes(names []ParamName, original Params, fitted map[ParamName]float64) []ParamChange {
	out := make([]ParamChange, 0, len(names))
	for _, n := range names {
		orig, _ := original.Get(n)
		c := ParamChange{Name: n, Original: orig, Fitted: fitted[n]}
		if math.Abs(orig) > 1e-10 {
			c.Change = (c.Fitted - orig) / orig * 100
			c.Relative = true
		} else {
			c.Change = c.Fitted - orig
		}
		out = append(out, c)
	}
	return out
}

// box maps an unconstrained vector u onto a product of intervals.
type box []Bounds

func boxTransform(b []Bounds) box { return box(b) }

func (b box) toX(u []float64) []float64 {
	x := make([]float64, len(u))
	for i, bi := range b {
		if bi.Upper == bi.Lower {
			x[i] = bi.Lower
			continue
		}
		x[i] = bi.Lower + (bi.Upper-bi.Lower)*(1+math.Sin(u[i]))/2
	}
	return x
}

// toU inverts toX. Values on a bound are pulled slightly inside, where
// the sine still has a usable slope.
func (b box) toU(x []float64) []float64 {
	u := make([]float64, len(x))
	for i, bi := range b {
		if bi.Upper == bi.Lower {
			continue
		}
		s := 2*(x[i]-bi.Lower)/(bi.Upper-bi.Lower) - 1
		u[i] = math.Asin(math.Max(-0.999, math.Min(0.999, s)))
	}
	return u
}
