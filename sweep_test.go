package compfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_SkipsEndpoints(t *testing.T) {
	pts, err := Sweep(DefaultParams(), 0, 1, 11)
	require.NoError(t, err)
	require.Len(t, pts, 9, "W_f = 0 and W_f = 1 are outside the model domain")

	assert.InDelta(t, 0.1, pts[0].WeightFraction, 1e-12)
	assert.InDelta(t, 0.9, pts[8].WeightFraction, 1e-12)

	for i := 1; i < len(pts); i++ {
		assert.Greater(t, pts[i].WeightFraction, pts[i-1].WeightFraction)
	}
	for _, sp := range pts {
		assert.InDelta(t, 1, sp.Fractions.Sum(), 1e-9)
		assert.Equal(t, pts[0].LengthEfficiency, sp.LengthEfficiency)
	}
}

func TestSweep_CrossesTransition(t *testing.T) {
	p := porousParams()
	pts, err := Sweep(p, 0.05, 0.95, 91)
	require.NoError(t, err)

	var sawA, sawB bool
	for _, sp := range pts {
		switch sp.Case {
		case CaseA:
			sawA = true
			assert.LessOrEqual(t, sp.WeightFraction, sp.TransitionWeightFraction)
		case CaseB:
			sawB = true
			assert.Equal(t, p.VfMax, sp.Fractions.Vf)
		}
		assert.GreaterOrEqual(t, sp.DensityNoPorosity, sp.Density)
	}
	assert.True(t, sawA)
	assert.True(t, sawB)
}

func TestSweep_InvalidArguments(t *testing.T) {
	_, err := Sweep(DefaultParams(), 0, 1, 1)
	assert.Error(t, err)

	_, err = Sweep(DefaultParams(), 0.8, 0.2, 10)
	assert.Error(t, err)

	bad := DefaultParams()
	bad.FiberDiameter = 0
	_, err = Sweep(bad, 0, 1, 10)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestCalculate_DefaultMaterial(t *testing.T) {
	r, err := Calculate(NewMaterial("Glass/Epoxy"))
	require.NoError(t, err)

	assert.Equal(t, "Glass/Epoxy", r.Name)
	assert.Equal(t, CaseA, r.Case)
	assert.Equal(t, 0.40, r.WeightFraction)
	assert.InDelta(t, 0.464/2.024, r.Fractions.Vf, 1e-12)
	assert.InDelta(t, 1.56/2.024, r.Fractions.Vm, 1e-12)
	assert.InDelta(t, 1.56/2.024, r.TransitionWeightFraction, 1e-12)
	assert.InDelta(t, 1.25, r.ShearStiffness, 1e-12)
	assert.InDelta(t, 625000, r.AspectRatio, 1e-6)
	assert.InDelta(t, 0.91396, r.LengthEfficiency, 1e-4)
}

func TestCalculate_InvalidMaterial(t *testing.T) {
	m := NewMaterial("")
	_, err := Calculate(m)
	assert.Error(t, err)

	m = NewMaterial("stubby")
	m.Fiber.Length = 0.01 // aspect ratio below κ
	_, err = Calculate(m)
	assert.ErrorIs(t, err, ErrDomain)
}
