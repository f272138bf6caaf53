package config

import (
	"math"
	"sort"
	"strings"

	"github.com/san-kum/coastal/internal/boundary"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/forcing"
	"github.com/san-kum/coastal/internal/grid"
)

// Physics kinds.
const (
	ShallowWater = "shallow_water"
	Wave         = "wave"
	Transport    = "transport"
	Viscous      = "viscous"
)

// Kinds lists the recognised physics kinds.
func Kinds() []string { return []string{ShallowWater, Transport, Viscous, Wave} }

// Config is a resolved document: every default applied, every value
// checked.
type Config struct {
	Name     string
	Seed     int64
	Seeded   bool
	Grid     GridConfig
	Physics  PhysicsConfig
	Forcing  *ForcingConfig
	Solver   SolverConfig
	Output   OutputConfig
	Boundary map[grid.Edge]BoundaryConfig
	Initial  InitialConfig
}

type GridConfig struct {
	Nx, Ny int
	Dx, Dy float64
}

func (g GridConfig) Dims() int {
	if g.Ny > 1 {
		return 2
	}
	return 1
}

type PhysicsConfig struct {
	Kind        string
	Gravity     float64
	Depth       float64
	Celerity    float64
	Viscosity   float64
	Diffusivity float64
	Drag        float64
	Nonlinear   bool
	Advective   bool
	Velocity    [2]float64
}

type ForcingConfig struct {
	Spectrum   forcing.Spectrum
	Components int
	Edge       grid.Edge
	Fields     []string
}

type SolverConfig struct {
	Dt         float64
	Duration   float64
	CFLTarget  float64
	AutoAdjust bool
	Scheme     string
}

type OutputConfig struct {
	Stride int
	Gauge  [2]int
	Field  string
}

type BoundaryConfig struct {
	Kind     boundary.Kind
	Value    float64
	Gradient float64
	Width    int
	Strength float64
	Fields   []string
}

// Condition converts to a boundary condition without a time source.
func (b BoundaryConfig) Condition() boundary.Condition {
	return boundary.Condition{
		Kind:     b.Kind,
		Value:    b.Value,
		Gradient: b.Gradient,
		Width:    b.Width,
		Strength: b.Strength,
		Fields:   b.Fields,
	}
}

type InitialConfig struct {
	Shape     string
	Field     string
	Amplitude float64
	Center    [2]float64
	Sigma     float64
}

// Resolve validates the document and applies defaults.
func (d *Document) Resolve() (*Config, error) {
	c := &Config{Name: d.Name}
	if d.Seed != nil {
		c.Seed, c.Seeded = *d.Seed, true
	}
	steps := []func(*Document) error{
		c.resolveGrid,
		c.resolvePhysics,
		c.resolveSolver,
		c.resolveForcing,
		c.resolveBoundary,
		c.resolveOutput,
		c.resolveInitial,
	}
	for _, step := range steps {
		if err := step(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func required[T any](key string, v *T) (T, error) {
	if v == nil {
		var zero T
		return zero, dynamo.Configf(key, "required key is missing")
	}
	return *v, nil
}

func positive(key string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return dynamo.Configf(key, "must be positive, got %g", v)
	}
	return nil
}

func (c *Config) resolveGrid(d *Document) error {
	nx, err := required("grid.nx", d.Grid.Nx)
	if err != nil {
		return err
	}
	dx, err := required("grid.dx", d.Grid.Dx)
	if err != nil {
		return err
	}
	if nx < 2 {
		return dynamo.Configf("grid.nx", "need at least 2 points, got %d", nx)
	}
	if err := positive("grid.dx", dx); err != nil {
		return err
	}
	c.Grid = GridConfig{Nx: nx, Ny: 1, Dx: dx, Dy: dx}
	if d.Grid.Ny != nil && *d.Grid.Ny > 1 {
		c.Grid.Ny = *d.Grid.Ny
		if d.Grid.Dy != nil {
			if err := positive("grid.dy", *d.Grid.Dy); err != nil {
				return err
			}
			c.Grid.Dy = *d.Grid.Dy
		}
	} else if d.Grid.Ny != nil && *d.Grid.Ny < 1 {
		return dynamo.Configf("grid.ny", "must be at least 1, got %d", *d.Grid.Ny)
	}
	return nil
}

func (c *Config) resolvePhysics(d *Document) error {
	p := d.Physics
	kind := strings.ToLower(strings.TrimSpace(p.Kind))
	if kind == "" {
		kind = ShallowWater
	}
	c.Physics = PhysicsConfig{Kind: kind, Drag: p.Drag, Nonlinear: p.Nonlinear, Advective: p.Advective}

	needPositive := func(key string, v *float64) (float64, error) {
		x, err := required("physics."+key, v)
		if err != nil {
			return 0, err
		}
		return x, positive("physics."+key, x)
	}

	var err error
	switch kind {
	case ShallowWater:
		if c.Physics.Gravity, err = needPositive("gravity", p.Gravity); err != nil {
			return err
		}
		if c.Physics.Depth, err = needPositive("depth", p.Depth); err != nil {
			return err
		}
		if p.Drag < 0 {
			return dynamo.Configf("physics.drag", "must be non-negative, got %g", p.Drag)
		}
	case Wave:
		if p.Celerity != nil {
			if c.Physics.Celerity, err = needPositive("celerity", p.Celerity); err != nil {
				return err
			}
			break
		}
		// long-wave speed from gravity and depth
		if c.Physics.Gravity, err = needPositive("gravity", p.Gravity); err != nil {
			return dynamo.Configf("physics.celerity", "required key is missing (or give gravity and depth)")
		}
		if c.Physics.Depth, err = needPositive("depth", p.Depth); err != nil {
			return dynamo.Configf("physics.celerity", "required key is missing (or give gravity and depth)")
		}
		c.Physics.Celerity = math.Sqrt(c.Physics.Gravity * c.Physics.Depth)
	case Transport:
		if c.Physics.Diffusivity, err = required("physics.diffusivity", p.Diffusivity); err != nil {
			return err
		}
		if c.Physics.Diffusivity < 0 {
			return dynamo.Configf("physics.diffusivity", "must be non-negative, got %g", c.Physics.Diffusivity)
		}
		if len(p.Velocity) > 2 {
			return dynamo.Configf("physics.velocity", "expected at most 2 components, got %d", len(p.Velocity))
		}
		copy(c.Physics.Velocity[:], p.Velocity)
	case Viscous:
		if c.Physics.Viscosity, err = needPositive("viscosity", p.Viscosity); err != nil {
			return err
		}
	default:
		return dynamo.Configf("physics.kind", "unknown kind %q (want one of %s)", p.Kind, strings.Join(Kinds(), ", "))
	}
	return nil
}

func (c *Config) resolveSolver(d *Document) error {
	s := d.Solver
	dt, err := required("solver.dt", s.Dt)
	if err != nil {
		return err
	}
	dur, err := required("solver.duration", s.Duration)
	if err != nil {
		return err
	}
	if err := positive("solver.dt", dt); err != nil {
		return err
	}
	if err := positive("solver.duration", dur); err != nil {
		return err
	}
	cfl := DefaultCFL
	if s.CFLTarget != nil {
		cfl = *s.CFLTarget
		if err := positive("solver.cfl_target", cfl); err != nil {
			return err
		}
	}
	scheme := strings.ToLower(s.Scheme)
	switch scheme {
	case "", "euler", "rk4", "leapfrog":
	default:
		return dynamo.Configf("solver.scheme", "unknown scheme %q", s.Scheme)
	}
	c.Solver = SolverConfig{Dt: dt, Duration: dur, CFLTarget: cfl, AutoAdjust: s.AutoAdjust, Scheme: scheme}
	return nil
}

func (c *Config) resolveForcing(d *Document) error {
	f := d.Forcing
	if f == nil {
		return nil
	}
	typ, err := required("forcing.type", f.Type)
	if err != nil {
		return err
	}
	kind, err := forcing.ParseKind(typ)
	if err != nil {
		return err
	}
	hs, err := required("forcing.Hs", f.Hs)
	if err != nil {
		return err
	}
	tp, err := required("forcing.Tp", f.Tp)
	if err != nil {
		return err
	}
	spec := forcing.Spectrum{Kind: kind, Hs: hs, Tp: tp}
	if kind == forcing.JONSWAP {
		spec.Gamma = forcing.DefaultGamma
		if f.Gamma != nil {
			spec.Gamma = *f.Gamma
		}
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	name := f.Edge
	if name == "" {
		name = DefaultEdge
	}
	edge, err := grid.ParseEdge(name)
	if err != nil {
		return err
	}
	if c.Grid.Dims() == 1 && edge.Axis() == 1 {
		return dynamo.Configf("forcing.edge", "edge %s does not exist on a 1D grid", edge)
	}
	if f.Components < 0 {
		return dynamo.Configf("forcing.components", "must be non-negative, got %d", f.Components)
	}
	c.Forcing = &ForcingConfig{Spectrum: spec, Components: f.Components, Edge: edge, Fields: f.Fields}
	return nil
}

// edgeKeys expands a boundary key to the edges it names.
func edgeKeys(key string, dims int) ([]grid.Edge, error) {
	switch strings.ToLower(key) {
	case "all", "default":
		if dims == 1 {
			return []grid.Edge{grid.West, grid.East}, nil
		}
		return []grid.Edge{grid.West, grid.East, grid.South, grid.North}, nil
	case "x":
		return []grid.Edge{grid.West, grid.East}, nil
	case "y":
		return []grid.Edge{grid.South, grid.North}, nil
	}
	e, err := grid.ParseEdge(key)
	if err != nil {
		return nil, err
	}
	return []grid.Edge{e}, nil
}

func (c *Config) resolveBoundary(d *Document) error {
	c.Boundary = make(map[grid.Edge]BoundaryConfig, 4)
	dims := c.Grid.Dims()
	for _, e := range []grid.Edge{grid.West, grid.East, grid.South, grid.North} {
		if dims == 2 || e.Axis() == 0 {
			c.Boundary[e] = BoundaryConfig{Kind: boundary.Neumann}
		}
	}

	// "all" first so specific edges override it
	keys := make([]string, 0, len(d.Boundary))
	for k := range d.Boundary {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		gi, gj := isGroup(keys[i]), isGroup(keys[j])
		if gi != gj {
			return gi
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		b := d.Boundary[k]
		edges, err := edgeKeys(k, dims)
		if err != nil {
			return err
		}
		kind, err := boundary.ParseKind(b.Type)
		if err != nil {
			return dynamo.Configf("boundary."+k+".type", "unknown boundary type %q", b.Type)
		}
		for _, e := range edges {
			if dims == 1 && e.Axis() == 1 {
				return dynamo.Configf("boundary."+k, "edge %s does not exist on a 1D grid", e)
			}
			c.Boundary[e] = BoundaryConfig{
				Kind:     kind,
				Value:    b.Value,
				Gradient: b.Gradient,
				Width:    b.Width,
				Strength: b.Strength,
				Fields:   b.Fields,
			}
		}
	}
	return nil
}

func isGroup(k string) bool {
	switch strings.ToLower(k) {
	case "all", "default", "x", "y":
		return true
	}
	return false
}

// primaryField is the field initial conditions and gauges default to.
func primaryField(kind string) string {
	switch kind {
	case Transport:
		return "tracer"
	case Viscous:
		return "u"
	}
	return "eta"
}

func (c *Config) resolveOutput(d *Document) error {
	o := d.Output
	c.Output = OutputConfig{Stride: o.Stride, Field: o.Field}
	if c.Output.Stride == 0 {
		c.Output.Stride = DefaultStride
	}
	if c.Output.Stride < 0 {
		return dynamo.Configf("output.stride", "must be positive, got %d", o.Stride)
	}
	if c.Output.Field == "" {
		c.Output.Field = primaryField(c.Physics.Kind)
	}
	c.Output.Gauge = [2]int{c.Grid.Nx / 2, c.Grid.Ny / 2}
	switch len(o.Gauge) {
	case 0:
	case 1, 2:
		copy(c.Output.Gauge[:], o.Gauge)
	default:
		return dynamo.Configf("output.gauge", "expected [i] or [i, j], got %d values", len(o.Gauge))
	}
	if g := c.Output.Gauge; g[0] < 0 || g[0] >= c.Grid.Nx || g[1] < 0 || g[1] >= c.Grid.Ny {
		return dynamo.Configf("output.gauge", "point %v outside %dx%d grid", g, c.Grid.Nx, c.Grid.Ny)
	}
	return nil
}

func (c *Config) resolveInitial(d *Document) error {
	in := d.Initial
	c.Initial = InitialConfig{
		Shape:     strings.ToLower(in.Shape),
		Field:     in.Field,
		Amplitude: in.Amplitude,
		Sigma:     in.Sigma,
		Center: [2]float64{
			float64(c.Grid.Nx/2) * c.Grid.Dx,
			float64(c.Grid.Ny/2) * c.Grid.Dy,
		},
	}
	if c.Initial.Shape == "" {
		c.Initial.Shape = DefaultShape
	}
	if c.Initial.Field == "" {
		c.Initial.Field = primaryField(c.Physics.Kind)
	}
	if len(in.Center) > 2 {
		return dynamo.Configf("initial.center", "expected at most 2 coordinates, got %d", len(in.Center))
	}
	copy(c.Initial.Center[:], in.Center)

	switch c.Initial.Shape {
	case "flat", "point":
	case "gaussian":
		if err := positive("initial.sigma", in.Sigma); err != nil {
			return err
		}
	default:
		return dynamo.Configf("initial.shape", "unknown shape %q (want flat, point or gaussian)", in.Shape)
	}
	return nil
}
