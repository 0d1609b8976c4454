package compfit

import (
	"math"
	"testing"
)

// AssertionConfig contains tolerances for forward-model properties.
type AssertionConfig struct {
	// Maximum |Vf+Vm+Vp − 1|
	ClosureTolerance float64

	// Maximum difference between Case A and Case B fractions at W_f_trans
	ContinuityTolerance float64

	// Number of W_f samples across (0,1)
	Samples int
}

// DefaultAssertionConfig returns tight tolerances for closed-form checks.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		ClosureTolerance:    1e-9,
		ContinuityTolerance: 1e-9,
		Samples:             99,
	}
}

func interiorWeightFractions(n int) []float64 {
	wf := make([]float64, n)
	for i := range wf {
		wf[i] = float64(i+1) / float64(n+1)
	}
	return wf
}

// AssertVolumeClosure verifies that the volume fractions sum to one in
// both regimes.
//
//	Vf + Vm + Vp = 1  for all W_f ∈ (0,1)
func AssertVolumeClosure(t *testing.T, p Params, cfg AssertionConfig) {
	t.Helper()

	var worst float64
	cases := map[CaseType]int{}
	for _, wf := range interiorWeightFractions(cfg.Samples) {
		ev, err := Evaluate(p, wf)
		if err != nil {
			t.Fatalf("Evaluate(W_f=%.4f) failed: %v", wf, err)
		}
		cases[ev.Case]++
		dev := math.Abs(ev.Fractions.Sum() - 1)
		worst = math.Max(worst, dev)
		if dev > cfg.ClosureTolerance {
			t.Errorf("Volume closure broken at W_f=%.4f (%s): Vf+Vm+Vp = %.12f",
				wf, ev.Case, ev.Fractions.Sum())
		}
	}

	t.Logf("✓ Volume closure: max |ΣV − 1| = %.3g (threshold: %.3g)", worst, cfg.ClosureTolerance)
	t.Logf("  Samples: %d Case A, %d Case B", cases[CaseA], cases[CaseB])
}

// AssertCaseContinuity verifies that both branches agree at the
// transition weight fraction.
//
//	Vf_A(W_f_trans) = Vf_B(W_f_trans) = V_f_max
func AssertCaseContinuity(t *testing.T, p Params, cfg AssertionConfig) {
	t.Helper()

	mix, err := p.Mix()
	if err != nil {
		t.Fatalf("Failed to build mix: %v", err)
	}
	trans, err := NewCase(mix, WithMaxFiberVolume(p.VfMax)).TransitionWeightFraction()
	if err != nil {
		t.Fatalf("Failed to compute W_f_trans: %v", err)
	}

	c := NewCase(mix,
		WithWeightFraction(trans),
		WithMaxFiberVolume(p.VfMax),
		WithPorosityExponent(p.PorosityExp),
	)
	a, err := c.VolumeFractionsA()
	if err != nil {
		t.Fatalf("Case A at W_f_trans=%.6f failed: %v", trans, err)
	}
	b, err := c.VolumeFractionsB()
	if err != nil {
		t.Fatalf("Case B at W_f_trans=%.6f failed: %v", trans, err)
	}

	for _, d := range []struct {
		name string
		a, b float64
	}{
		{"Vf", a.Vf, b.Vf},
		{"Vm", a.Vm, b.Vm},
		{"Vp", a.Vp, b.Vp},
	} {
		if math.Abs(d.a-d.b) > cfg.ContinuityTolerance {
			t.Errorf("Discontinuity at W_f_trans=%.6f: %s_A = %.9f, %s_B = %.9f",
				trans, d.name, d.a, d.name, d.b)
		}
	}
	if math.Abs(a.Vf-p.VfMax) > cfg.ContinuityTolerance {
		t.Errorf("Vf_A(W_f_trans) = %.9f, want V_f_max = %.9f", a.Vf, p.VfMax)
	}

	t.Logf("✓ Case continuity at W_f_trans = %.6f", trans)
	t.Logf("  A: Vf=%.6f Vm=%.6f Vp=%.6f", a.Vf, a.Vm, a.Vp)
	t.Logf("  B: Vf=%.6f Vm=%.6f Vp=%.6f", b.Vf, b.Vm, b.Vp)
}

// AssertMonotonicNoPorosity verifies density and stiffness never decrease
// with Vf along the porosity-free line Vm = 1 − Vf, provided the fiber is
// the denser and stiffer phase.
func AssertMonotonicNoPorosity(t *testing.T, p Params, cfg AssertionConfig) {
	t.Helper()

	mix, err := p.Mix()
	if err != nil {
		t.Fatalf("Failed to build mix: %v", err)
	}

	prevRho, prevE := math.Inf(-1), math.Inf(-1)
	for _, vf := range interiorWeightFractions(cfg.Samples) {
		vm := 1 - vf
		rho := mix.Density(vf, vm)
		e := mix.Stiffness(vf, vm, p.PorosityExp)
		if rho < prevRho {
			t.Errorf("Density decreased at Vf=%.4f: %.6f < %.6f", vf, rho, prevRho)
		}
		if e < prevE {
			t.Errorf("Stiffness decreased at Vf=%.4f: %.6f < %.6f", vf, e, prevE)
		}
		prevRho, prevE = rho, e
	}

	t.Logf("✓ Monotonic without porosity up to ρc=%.4f, Ec=%.4f", prevRho, prevE)
}

// AssertModel runs all forward-model assertions with default config.
func AssertModel(t *testing.T, p Params) {
	t.Helper()

	cfg := DefaultAssertionConfig()

	t.Run("VolumeClosure", func(t *testing.T) {
		AssertVolumeClosure(t, p, cfg)
	})

	t.Run("CaseContinuity", func(t *testing.T) {
		AssertCaseContinuity(t, p, cfg)
	})

	t.Run("MonotonicNoPorosity", func(t *testing.T) {
		AssertMonotonicNoPorosity(t, p, cfg)
	})
}

// AssertFitWithin verifies a successful fit landed within tol of each
// expected value.
func AssertFitWithin(t *testing.T, res FitResult, want map[ParamName]float64, tol float64) {
	t.Helper()

	if !res.Success {
		t.Errorf("Fit did not converge: %s (error %.6g)", res.Message, res.Error)
	}
	for name, w := range want {
		got, ok := res.Fitted[name]
		if !ok {
			t.Errorf("%s was not fitted", name)
			continue
		}
		if math.Abs(got-w) > tol {
			t.Errorf("%s = %.6f, want %.6f ± %.3g", name, got, w, tol)
		}
	}
}

// PrintFitReport outputs a fit summary to the test log.
func PrintFitReport(t *testing.T, res FitResult) {
	t.Helper()

	t.Logf("\n=== Fit Report ===")
	status := "FAILED"
	if res.Success {
		status = "SUCCESS"
	}
	t.Logf("Status:      %s (%s)", status, res.Message)
	t.Logf("Error:       %.6e (initial %.6e)", res.Error, res.InitialError)
	t.Logf("Iterations:  %d, evaluations: %d, points: %d", res.Iterations, res.Evaluations, res.PointsUsed)
	if res.Saturation != nil {
		t.Logf("Saturation:  V_f_sat = %.4f at W_f = %.3f",
			res.Saturation.VfSat, res.Saturation.BoundaryWeightFraction)
	}

	t.Logf("\nParameters:")
	t.Logf("  %-18s %10s %10s  %s", "name", "initial", "fitted", "bounds")
	for _, c := range res.Changes {
		t.Logf("  %-18s %10.6f %10.6f  %s", c.Name, res.Initial[c.Name], c.Fitted, res.Bounds[c.Name])
	}

	t.Logf("\nChanges:")
	for _, c := range res.Changes {
		t.Logf("  %s", c)
	}
}
