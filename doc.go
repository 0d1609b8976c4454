// Package compfit models fiber-reinforced composites and calibrates the
// model against measurements.
//
// # Forward model
//
// A composite of fiber (ρf, α_pf, E_f, η₀, L, D) in a matrix (ρm, α_pm,
// E_m, ν_m) is evaluated at a fiber weight fraction W_f. Below the
// transition weight fraction the fiber is unsaturated (Case A):
//
//	Vf = W_f·ρm / (W_f·ρm·(1+α_pf) + (1−W_f)·ρf·(1+α_pm))
//
// Above it the fiber is pinned at the packing limit V_f_max and the
// missing matrix becomes porosity (Case B):
//
//	Vf = V_f_max
//	Vm = V_f_max·(1−W_f)·ρf / (W_f·ρm)
//
// In both regimes Vp = 1 − Vf − Vm, and
//
//	ρc = Vf·ρf + Vm·ρm
//	Ec = (η₀·η₁·Vf·E_f + Vm·E_m)·(1−Vp)ⁿ
//
// where η₁ is the shear-lag length efficiency, derived once per Mix from
// the matrix shear stiffness G_m = E_m / (2(1+ν_m)).
//
// Valid weight fractions are the open interval (0,1). Evaluations outside
// a formula's domain return *DomainError; absent inputs return
// *MissingInputError.
//
// # Calibration
//
// Fit inverts the model:
//
//  1. DetectSaturation finds the W_f beyond which measured Vf plateaus.
//  2. EstimateInitialParameters solves the two lowest unsaturated points
//     for ρf and ρm and takes α_pf from the mean Vp/Vf.
//  3. An Objective compares the model with the measurements for a Target
//     (stiffness, density, combined or volume).
//  4. L-BFGS minimizes it inside per-parameter bounds, with an optional
//     Nelder-Mead polish.
//
// # Quick Start
//
//	m, err := compfit.LoadMaterial("material.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := compfit.Fit(compfit.FitRequest{
//	    Points: m.ExperimentalData,
//	    Target: compfit.TargetVolume,
//	    Fit:    []compfit.ParamName{compfit.FiberDensity, compfit.MatrixDensity},
//	    Fixed:  m.Params(),
//	}, compfit.DefaultFitConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if res.Success {
//	    p, _ := res.Apply(m.Params())
//	    m.SetParams(p)
//	}
package compfit
