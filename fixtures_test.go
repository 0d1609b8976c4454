package compfit

// glassEpoxyPoints is a measured glass/epoxy series that saturates at
// Vf ≈ 0.224 from W_f = 0.387 on.
func glassEpoxyPoints() []ExperimentalPoint {
	return []ExperimentalPoint{
		Point(0.359).WithVolume(0.201, 0.755, 0.043).WithDensity(1.178),
		Point(0.381).WithVolume(0.217, 0.741, 0.042).WithDensity(1.196),
		Point(0.387).WithVolume(0.224, 0.747, 0.028).WithDensity(1.218),
		Point(0.458).WithVolume(0.224, 0.558, 0.217).WithDensity(1.029),
		Point(0.632).WithVolume(0.224, 0.275, 0.501).WithDensity(0.746),
		Point(0.752).WithVolume(0.224, 0.156, 0.620).WithDensity(0.627),
	}
}

// glassEpoxyFixed holds the properties that are not fitted for glassEpoxyPoints.
func glassEpoxyFixed() Params {
	p := DefaultParams()
	p.MatrixStiffness = 3.5
	p.FiberStiffness = 80
	p.MatrixPoisson = 0.40
	p.FiberEta0 = 1.0
	p.FiberLength = 10000
	p.FiberDiameter = 0.016
	p.PorosityExp = 2.0
	p.MatrixPorosity = 0
	return p
}

// porousParams has porosity in both phases so Case A carries voids.
func porousParams() Params {
	p := DefaultParams()
	p.FiberPorosity = 0.12
	p.MatrixPorosity = 0.03
	p.VfMax = 0.45
	return p
}
