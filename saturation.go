package compfit

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SaturationTolerance is the relative spread below which a run of Vf
// measurements counts as a plateau: population σ < 0.5% of the mean.
const SaturationTolerance = 0.005

// minSaturationRun is the shortest run of Vf samples that can form a plateau.
const minSaturationRun = 3

// Saturation describes a detected packing-limit plateau.
type Saturation struct {
	VfSat                  float64 // Mean Vf over the plateau
	BoundaryIndex          int     // Index of the first plateau point among Vf-carrying points sorted by W_f
	BoundaryWeightFraction float64 // W_f of that point

	// Unsaturated holds the points up to and including the boundary, plus
	// every point without a Vf measurement. Saturated holds the rest.
	Unsaturated []ExperimentalPoint
	Saturated   []ExperimentalPoint
}

// DetectSaturation finds the weight fraction beyond which the measured
// fiber volume fraction stops increasing.
//
// Points carrying Vf are sorted by W_f (stable, so ties keep their input
// order) and every suffix of at least three points is examined from the
// lowest W_f upward. The first suffix whose population standard deviation
// is below SaturationTolerance of its mean is the plateau.
//
// It returns false when fewer than three points carry Vf or no plateau
// exists. It never panics on short or empty input.
func DetectSaturation(points []ExperimentalPoint) (Saturation, bool) {
	withVf := make([]ExperimentalPoint, 0, len(points))
	for _, pt := range points {
		if pt.Vf != nil {
			withVf = append(withVf, pt)
		}
	}
	if len(withVf) < minSaturationRun {
		return Saturation{}, false
	}

	sort.SliceStable(withVf, func(i, j int) bool {
		return withVf[i].Wf < withVf[j].Wf
	})

	vf := make([]float64, len(withVf))
	for i, pt := range withVf {
		vf[i] = *pt.Vf
	}

	for i := 0; len(vf)-i >= minSaturationRun; i++ {
		mean, std := stat.PopMeanStdDev(vf[i:], nil)
		if std >= SaturationTolerance*mean {
			continue
		}

		boundary := withVf[i].Wf
		s := Saturation{
			VfSat:                  mean,
			BoundaryIndex:          i,
			BoundaryWeightFraction: boundary,
		}
		for _, pt := range points {
			if pt.Vf == nil || pt.Wf <= boundary {
				s.Unsaturated = append(s.Unsaturated, pt)
			} else {
				s.Saturated = append(s.Saturated, pt)
			}
		}
		return s, true
	}

	return Saturation{}, false
}
