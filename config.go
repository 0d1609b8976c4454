package compfit

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides for material files, e.g.
// COMPFIT_MATRIX_DENSITY=1.2 overrides matrix.density.
const EnvPrefix = "COMPFIT"

// Material is one material configuration as stored on disk.
type Material struct {
	Name       string `mapstructure:"name" json:"name" validate:"required"`
	FiberName  string `mapstructure:"fiber_name" json:"fiber_name"`
	MatrixName string `mapstructure:"matrix_name" json:"matrix_name"`

	Matrix    MatrixConfig    `mapstructure:"matrix" json:"matrix"`
	Fiber     FiberConfig     `mapstructure:"fiber" json:"fiber"`
	Composite CompositeConfig `mapstructure:"composite" json:"composite"`

	ExperimentalData []ExperimentalPoint `mapstructure:"experimental_data" json:"experimental_data" validate:"dive"`
	PlotEnabled      bool                `mapstructure:"plot_enabled" json:"plot_enabled"`
}

// MatrixConfig holds the matrix section of a material file.
type MatrixConfig struct {
	Density   float64 `mapstructure:"density" json:"density" validate:"gt=0"`
	Porosity  float64 `mapstructure:"porosity" json:"porosity" validate:"gte=0,lte=1"`
	Stiffness float64 `mapstructure:"stiffness" json:"stiffness" validate:"gte=0"`
	Poisson   float64 `mapstructure:"poisson" json:"poisson" validate:"gt=-1,lte=0.5"`
}

// FiberConfig holds the fiber section of a material file.
type FiberConfig struct {
	Density   float64 `mapstructure:"density" json:"density" validate:"gt=0"`
	Porosity  float64 `mapstructure:"porosity" json:"porosity" validate:"gte=0,lte=1"`
	Stiffness float64 `mapstructure:"stiffness" json:"stiffness" validate:"gte=0"`
	Eta0      float64 `mapstructure:"eta0" json:"eta0" validate:"gte=0,lte=1"`
	Length    float64 `mapstructure:"length" json:"length" validate:"gt=0"`
	Diameter  float64 `mapstructure:"diameter" json:"diameter" validate:"gt=0"`
}

// CompositeConfig holds the composite section of a material file.
type CompositeConfig struct {
	VfMax       float64 `mapstructure:"v_f_max" json:"v_f_max" validate:"gt=0,lte=1"`
	PorosityExp float64 `mapstructure:"porosity_exp" json:"porosity_exp" validate:"gte=0"`
	WfTest      float64 `mapstructure:"w_f_test" json:"w_f_test" validate:"gt=0,lt=1"`
}

// ExperimentalPoint is one measurement. Only W_f is required.
type ExperimentalPoint struct {
	Wf    float64  `mapstructure:"W_f" json:"W_f" validate:"gte=0,lte=1"`
	Vf    *float64 `mapstructure:"V_f" json:"V_f" validate:"omitempty,gte=0,lte=1"`
	Vm    *float64 `mapstructure:"V_m" json:"V_m" validate:"omitempty,gte=0,lte=1"`
	Vp    *float64 `mapstructure:"V_p" json:"V_p" validate:"omitempty,gte=0,lte=1"`
	Ec    *float64 `mapstructure:"E_c" json:"E_c" validate:"omitempty,gte=0"`
	RhoC  *float64 `mapstructure:"rho_c" json:"rho_c" validate:"omitempty,gte=0"`
	Notes string   `mapstructure:"notes" json:"notes"`
}

// Point returns a measurement at weight fraction wf with no other values.
func Point(wf float64) ExperimentalPoint {
	return ExperimentalPoint{Wf: wf}
}

// WithVolume returns a copy carrying the three volume fractions.
func (pt ExperimentalPoint) WithVolume(vf, vm, vp float64) ExperimentalPoint {
	pt.Vf, pt.Vm, pt.Vp = &vf, &vm, &vp
	return pt
}

// WithVf returns a copy carrying only the fiber volume fraction.
func (pt ExperimentalPoint) WithVf(vf float64) ExperimentalPoint {
	pt.Vf = &vf
	return pt
}

// WithDensity returns a copy carrying ρc.
func (pt ExperimentalPoint) WithDensity(rho float64) ExperimentalPoint {
	pt.RhoC = &rho
	return pt
}

// WithStiffness returns a copy carrying Ec.
func (pt ExperimentalPoint) WithStiffness(ec float64) ExperimentalPoint {
	pt.Ec = &ec
	return pt
}

// NewMaterial returns a material with default properties.
func NewMaterial(name string) Material {
	m := Material{
		Name:        name,
		FiberName:   "Generic Fiber",
		MatrixName:  "Generic Matrix",
		PlotEnabled: true,
	}
	m.SetParams(DefaultParams())
	m.Composite.WfTest = DefaultTestWeightFraction
	return m
}

// DefaultTestWeightFraction is the W_f a material is evaluated at by Calculate.
const DefaultTestWeightFraction = 0.40

// Params flattens the material properties.
func (m Material) Params() Params {
	return Params{
		MatrixDensity:   m.Matrix.Density,
		MatrixPorosity:  m.Matrix.Porosity,
		MatrixStiffness: m.Matrix.Stiffness,
		MatrixPoisson:   m.Matrix.Poisson,
		FiberDensity:    m.Fiber.Density,
		FiberPorosity:   m.Fiber.Porosity,
		FiberStiffness:  m.Fiber.Stiffness,
		FiberEta0:       m.Fiber.Eta0,
		FiberLength:     m.Fiber.Length,
		FiberDiameter:   m.Fiber.Diameter,
		VfMax:           m.Composite.VfMax,
		PorosityExp:     m.Composite.PorosityExp,
	}
}

// SetParams copies p into the material sections.
func (m *Material) SetParams(p Params) {
	m.Matrix = MatrixConfig{
		Density:   p.MatrixDensity,
		Porosity:  p.MatrixPorosity,
		Stiffness: p.MatrixStiffness,
		Poisson:   p.MatrixPoisson,
	}
	m.Fiber = FiberConfig{
		Density:   p.FiberDensity,
		Porosity:  p.FiberPorosity,
		Stiffness: p.FiberStiffness,
		Eta0:      p.FiberEta0,
		Length:    p.FiberLength,
		Diameter:  p.FiberDiameter,
	}
	m.Composite.VfMax = p.VfMax
	m.Composite.PorosityExp = p.PorosityExp
}

// Validate checks the material against the physical ranges.
func (m Material) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid material %q: %w", m.Name, err)
	}
	return nil
}

// LoadMaterial reads a material file (JSON or YAML, chosen by extension).
// Absent keys take the default properties, and COMPFIT_* environment
// variables override file values.
func LoadMaterial(path string) (Material, error) {
	v := viper.New()
	setMaterialDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Material{}, fmt.Errorf("failed to read material file %s: %w", path, err)
	}

	var m Material
	if err := v.Unmarshal(&m); err != nil {
		return Material{}, fmt.Errorf("failed to decode material file %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Material{}, err
	}
	return m, nil
}

func setMaterialDefaults(v *viper.Viper) {
	d := NewMaterial("Untitled")
	v.SetDefault("name", d.Name)
	v.SetDefault("fiber_name", d.FiberName)
	v.SetDefault("matrix_name", d.MatrixName)
	v.SetDefault("plot_enabled", d.PlotEnabled)

	v.SetDefault("matrix.density", d.Matrix.Density)
	v.SetDefault("matrix.porosity", d.Matrix.Porosity)
	v.SetDefault("matrix.stiffness", d.Matrix.Stiffness)
	v.SetDefault("matrix.poisson", d.Matrix.Poisson)

	v.SetDefault("fiber.density", d.Fiber.Density)
	v.SetDefault("fiber.porosity", d.Fiber.Porosity)
	v.SetDefault("fiber.stiffness", d.Fiber.Stiffness)
	v.SetDefault("fiber.eta0", d.Fiber.Eta0)
	v.SetDefault("fiber.length", d.Fiber.Length)
	v.SetDefault("fiber.diameter", d.Fiber.Diameter)

	v.SetDefault("composite.v_f_max", d.Composite.VfMax)
	v.SetDefault("composite.porosity_exp", d.Composite.PorosityExp)
	v.SetDefault("composite.w_f_test", d.Composite.WfTest)
}
