package compfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveDensities_TwoPoint(t *testing.T) {
	p1 := Point(0.359).WithVolume(0.201, 0.755, 0.043).WithDensity(1.178)
	p2 := Point(0.381).WithVolume(0.217, 0.741, 0.042).WithDensity(1.196)

	rhoF, rhoM, err := SolveDensities(p1, p2)
	require.NoError(t, err)

	assert.InDelta(t, 2.10, rhoF, 0.1)
	assert.InDelta(t, 1.00, rhoM, 0.1)

	// Exact solution of the 2×2 system.
	assert.InDelta(t, 2.0197, rhoF, 1e-3)
	assert.InDelta(t, 1.0226, rhoM, 1e-3)
	assert.InDelta(t, 1.178, 0.201*rhoF+0.755*rhoM, 1e-9)
	assert.InDelta(t, 1.196, 0.217*rhoF+0.741*rhoM, 1e-9)
}

func TestSolveDensities_Singular(t *testing.T) {
	p := Point(0.3).WithVolume(0.2, 0.8, 0).WithDensity(1.2)
	q := Point(0.4).WithVolume(0.4, 1.6, 0).WithDensity(2.4)

	_, _, err := SolveDensities(p, q)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestSolveDensities_MissingInput(t *testing.T) {
	p := Point(0.3).WithVf(0.2).WithDensity(1.2)
	q := Point(0.4).WithVolume(0.25, 0.7, 0.05).WithDensity(1.3)

	_, _, err := SolveDensities(p, q)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestEstimateInitialParameters_GlassEpoxy(t *testing.T) {
	pts := glassEpoxyPoints()
	sat, ok := DetectSaturation(pts)
	require.True(t, ok)

	est := EstimateInitialParameters(pts, &sat)

	assert.InDelta(t, 0.224, est[VfMax], 1e-9)
	assert.InDelta(t, 2.0197, est[FiberDensity], 1e-3)
	assert.InDelta(t, 1.0226, est[MatrixDensity], 1e-3)

	wantPorosity := (0.043/0.201 + 0.042/0.217 + 0.028/0.224) / 3
	assert.InDelta(t, wantPorosity, est[FiberPorosity], 1e-12)
	assert.Equal(t, 0.0, est[MatrixPorosity])
}

func TestEstimateInitialParameters_UsesLowestWeightFractions(t *testing.T) {
	pts := glassEpoxyPoints()
	sat, ok := DetectSaturation(pts)
	require.True(t, ok)

	reversed := make([]ExperimentalPoint, len(sat.Unsaturated))
	for i, pt := range sat.Unsaturated {
		reversed[len(reversed)-1-i] = pt
	}
	sat.Unsaturated = reversed

	est := EstimateInitialParameters(pts, &sat)
	assert.InDelta(t, 2.0197, est[FiberDensity], 1e-3)
	assert.InDelta(t, 1.0226, est[MatrixDensity], 1e-3)
}

func TestEstimateInitialParameters_FallbackOnImplausibleSolve(t *testing.T) {
	// Solves to ρf = 6, ρm = 4.
	pts := []ExperimentalPoint{
		Point(0.3).WithVolume(0.5, 0.5, 0).WithDensity(5.0),
		Point(0.4).WithVolume(0.6, 0.4, 0).WithDensity(5.2),
	}
	est := EstimateInitialParameters(pts, nil)
	assert.Equal(t, FallbackFiberDensity, est[FiberDensity])
	assert.Equal(t, FallbackMatrixDensity, est[MatrixDensity])
}

func TestEstimateInitialParameters_FallbackOnSingularSolve(t *testing.T) {
	pts := []ExperimentalPoint{
		Point(0.3).WithVolume(0.2, 0.8, 0).WithDensity(1.2),
		Point(0.4).WithVolume(0.2, 0.8, 0).WithDensity(1.2),
	}
	est := EstimateInitialParameters(pts, nil)
	assert.Equal(t, FallbackFiberDensity, est[FiberDensity])
	assert.Equal(t, FallbackMatrixDensity, est[MatrixDensity])
}

func TestEstimateInitialParameters_WithoutSaturation(t *testing.T) {
	est := EstimateInitialParameters(glassEpoxyPoints()[:2], nil)

	_, ok := est[VfMax]
	assert.False(t, ok, "v_f_max is only estimated from a plateau")
	assert.Equal(t, 0.0, est[MatrixPorosity])
}

func TestEstimateInitialParameters_IgnoresLowFiberContentForPorosity(t *testing.T) {
	pts := []ExperimentalPoint{
		Point(0.05).WithVolume(0.05, 0.90, 0.05),
		Point(0.10).WithVolume(0.08, 0.86, 0.06),
	}
	est := EstimateInitialParameters(pts, nil)
	assert.Equal(t, 0.0, est[FiberPorosity])
}

func TestEstimateInitialParameters_NoPoints(t *testing.T) {
	est := EstimateInitialParameters(nil, nil)
	assert.Equal(t, FallbackFiberDensity, est[FiberDensity])
	assert.Equal(t, FallbackMatrixDensity, est[MatrixDensity])
	assert.Equal(t, 0.0, est[FiberPorosity])
	assert.Equal(t, 0.0, est[MatrixPorosity])
}
