package compfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modelPoints generates exact measurements from the forward model.
func modelPoints(t *testing.T, p Params, wfs ...float64) []ExperimentalPoint {
	t.Helper()
	pts := make([]ExperimentalPoint, 0, len(wfs))
	for _, wf := range wfs {
		ev, err := Evaluate(p, wf)
		require.NoError(t, err)
		pts = append(pts, Point(wf).
			WithVolume(ev.Fractions.Vf, ev.Fractions.Vm, ev.Fractions.Vp).
			WithDensity(ev.Density).
			WithStiffness(ev.Stiffness))
	}
	return pts
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Target{
		"stiffness": TargetStiffness,
		"density":   TargetDensity,
		"combined":  TargetCombined,
		"both":      TargetCombined,
		"Volume":    TargetVolume,
		" density ": TargetDensity,
	} {
		got, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTarget("strength")
	assert.Error(t, err)
}

func TestTarget_Uses(t *testing.T) {
	volume := Point(0.4).WithVf(0.2)
	density := Point(0.4).WithDensity(1.2)
	stiffness := Point(0.4).WithStiffness(20)
	bare := Point(0.4)

	assert.True(t, TargetVolume.Uses(volume))
	assert.False(t, TargetVolume.Uses(density))
	assert.True(t, TargetDensity.Uses(density))
	assert.False(t, TargetDensity.Uses(stiffness))
	assert.True(t, TargetStiffness.Uses(stiffness))
	assert.True(t, TargetCombined.Uses(density))
	assert.True(t, TargetCombined.Uses(stiffness))
	assert.False(t, TargetCombined.Uses(volume))

	for _, tg := range []Target{TargetVolume, TargetDensity, TargetStiffness, TargetCombined} {
		assert.False(t, tg.Uses(bare), tg)
	}
}

func TestObjective_ExactDataHasZeroError(t *testing.T) {
	p := porousParams()
	pts := modelPoints(t, p, 0.2, 0.4, 0.6, 0.8, 0.9)
	names := []ParamName{FiberDensity, MatrixDensity, FiberPorosity}
	x := []float64{p.FiberDensity, p.MatrixDensity, p.FiberPorosity}

	for _, tg := range []Target{TargetStiffness, TargetDensity, TargetCombined, TargetVolume} {
		obj, err := NewObjective(tg, names, DefaultParams(), pts)
		require.NoError(t, err)

		// Non-fitted values still come from the base record.
		base := p
		base.FiberDensity, base.MatrixDensity, base.FiberPorosity = 0, 0, 0
		obj.base = base

		v, err := obj.Evaluate(x)
		require.NoError(t, err)
		assert.InDelta(t, 0, v, 1e-20, tg)
	}
}

func TestObjective_NoTermsReturnsSentinel(t *testing.T) {
	pts := []ExperimentalPoint{Point(0.4).WithVf(0.2)}
	obj, err := NewObjective(TargetStiffness, []ParamName{FiberStiffness}, DefaultParams(), pts)
	require.NoError(t, err)

	v, err := obj.Evaluate([]float64{80})
	require.NoError(t, err)
	assert.Equal(t, SentinelError, v)

	empty, err := NewObjective(TargetVolume, []ParamName{FiberDensity}, DefaultParams(), nil)
	require.NoError(t, err)
	v, err = empty.Evaluate([]float64{2.6})
	require.NoError(t, err)
	assert.Equal(t, SentinelError, v)
}

func TestObjective_DomainErrorPenalizesPoint(t *testing.T) {
	p := DefaultParams()
	good := modelPoints(t, p, 0.4)[0]
	bad := Point(1.0).WithDensity(2.6) // W_f = 1 is outside (0,1)

	obj, err := NewObjective(TargetDensity, []ParamName{FiberDensity}, p, []ExperimentalPoint{good, bad})
	require.NoError(t, err)

	v, err := obj.Evaluate([]float64{p.FiberDensity})
	require.NoError(t, err)
	assert.InDelta(t, SentinelError/2, v, 1e-9)
}

func TestObjective_InvalidCandidatePenalizesEveryPoint(t *testing.T) {
	p := DefaultParams()
	pts := modelPoints(t, p, 0.3, 0.5)

	// A zero fiber length fails in the mix, before any point is evaluated.
	obj, err := NewObjective(TargetDensity, []ParamName{FiberLength}, p, pts)
	require.NoError(t, err)

	v, err := obj.Evaluate([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, SentinelError, v)
}

func TestObjective_VolumeWeighting(t *testing.T) {
	p := DefaultParams()
	ev, err := Evaluate(p, 0.4)
	require.NoError(t, err)

	pts := []ExperimentalPoint{Point(0.4).WithVf(ev.Fractions.Vf + 0.1)}
	obj, err := NewObjective(TargetVolume, []ParamName{FiberDensity}, p, pts)
	require.NoError(t, err)

	v, err := obj.Evaluate([]float64{p.FiberDensity})
	require.NoError(t, err)
	assert.InDelta(t, VolumeWeight*0.01, v, 1e-12)
}

func TestObjective_RelativeErrorTerms(t *testing.T) {
	p := DefaultParams()
	ev, err := Evaluate(p, 0.4)
	require.NoError(t, err)

	// 10% high stiffness, 5% low density.
	obsE, obsRho := ev.Stiffness/1.1, ev.Density/0.95
	pt := Point(0.4).WithStiffness(obsE).WithDensity(obsRho)
	rs := (ev.Stiffness - obsE) / obsE
	rd := (ev.Density - obsRho) / obsRho

	for tg, want := range map[Target]float64{
		TargetStiffness: rs * rs,
		TargetDensity:   rd * rd,
		TargetCombined:  (rs*rs + rd*rd) / 2,
	} {
		obj, err := NewObjective(tg, []ParamName{MatrixDensity}, p, []ExperimentalPoint{pt})
		require.NoError(t, err)
		v, err := obj.Evaluate([]float64{p.MatrixDensity})
		require.NoError(t, err)
		assert.InDelta(t, want, v, 1e-12, tg)
	}
}

func TestObjective_ZeroMeasurementIsPenalized(t *testing.T) {
	pts := []ExperimentalPoint{Point(0.4).WithDensity(0)}
	obj, err := NewObjective(TargetDensity, []ParamName{FiberDensity}, DefaultParams(), pts)
	require.NoError(t, err)

	v, err := obj.Evaluate([]float64{2.6})
	require.NoError(t, err)
	assert.Equal(t, SentinelError, v)
}

func TestObjective_RejectsBadInput(t *testing.T) {
	_, err := NewObjective("strength", []ParamName{FiberDensity}, DefaultParams(), nil)
	assert.Error(t, err)

	_, err = NewObjective(TargetDensity, []ParamName{"fiber_color"}, DefaultParams(), nil)
	assert.Error(t, err)

	obj, err := NewObjective(TargetDensity, []ParamName{FiberDensity}, DefaultParams(), nil)
	require.NoError(t, err)
	_, err = obj.Evaluate([]float64{2.6, 1.1})
	assert.Error(t, err)
}

func TestObjective_BothAlias(t *testing.T) {
	obj, err := NewObjective("both", []ParamName{FiberDensity}, DefaultParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, TargetCombined, obj.target)
}
