// Package experiment assembles a runnable simulation from a resolved
// configuration: grid, physics, boundary handler, forcing series, initial
// state and diagnostics.
package experiment

import (
	"context"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/coastal/internal/boundary"
	"github.com/san-kum/coastal/internal/config"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/forcing"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	seed      int64
	grid      *grid.Grid
	rhs       sim.RHS
	bc        *boundary.Handler
	forcing   *forcing.Series
	initial   *dynamo.State
	simulator *sim.Simulator
}

// Build wires every component of cfg. seed drives the forcing phases and
// is ignored when there is no forcing.
func Build(cfg *config.Config, seed int64, logger logrus.FieldLogger) (*Experiment, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithFields(logrus.Fields{"experiment": cfg.Name, "seed": seed})
	reg := NewRegistry()

	g, err := NewGrid(cfg.Grid)
	if err != nil {
		return nil, err
	}
	rhs, err := reg.GetPhysics(cfg.Physics)
	if err != nil {
		return nil, err
	}
	e := &Experiment{cfg: cfg, seed: seed, grid: g, rhs: rhs}

	spec := make(boundary.Spec, 4)
	for _, edge := range g.Edges() {
		spec[edge] = cfg.Boundary[edge].Condition()
	}
	if f := cfg.Forcing; f != nil {
		series, err := forcing.Generate(forcing.Params{
			Spectrum:   f.Spectrum,
			Duration:   cfg.Solver.Duration,
			Dt:         cfg.Solver.Dt,
			Components: f.Components,
		}, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, err
		}
		fields := f.Fields
		if len(fields) == 0 {
			fields = []string{cfg.Output.Field}
		}
		spec[f.Edge] = boundary.Driven(series, fields...)
		e.forcing = series
		log.WithFields(logrus.Fields{
			"spectrum":   f.Spectrum.Kind,
			"components": len(series.Components),
			"hm0":        series.Hm0(),
			"edge":       f.Edge,
		}).Debug("forcing generated")
	}
	if e.bc, err = boundary.New(g, spec); err != nil {
		return nil, err
	}

	if e.initial, err = InitialState(g, rhs.Fields(g), cfg.Initial); err != nil {
		return nil, err
	}

	e.simulator, err = sim.New(g, rhs, e.bc, sim.Config{
		Dt:         cfg.Solver.Dt,
		EndTime:    cfg.Solver.Duration,
		CFL:        cfg.Solver.CFLTarget,
		AutoAdjust: cfg.Solver.AutoAdjust,
		Stride:     cfg.Output.Stride,
		Scheme:     cfg.Solver.Scheme,
	}, sim.WithLogger(log))
	if err != nil {
		return nil, err
	}
	for _, m := range reg.DefaultMetrics(rhs, g, cfg.Output.Field, e.ghostEdges()) {
		e.simulator.AddMetric(m)
	}
	return e, nil
}

// NewGrid builds the grid described by c.
func NewGrid(c config.GridConfig) (*grid.Grid, error) {
	if c.Dims() == 1 {
		return grid.New1D(c.Nx, c.Dx)
	}
	return grid.New2D(c.Nx, c.Ny, c.Dx, c.Dy)
}

// ghostEdges lists the edges that only mirror the opposite side.
func (e *Experiment) ghostEdges() []grid.Edge {
	var ghost []grid.Edge
	for _, edge := range e.grid.Edges() {
		if e.bc.Periodic(edge.Axis()) {
			ghost = append(ghost, edge)
		}
	}
	return ghost
}

// InitialState returns zero fields with the configured shape on one of
// them.
func InitialState(g *grid.Grid, fields []string, in config.InitialConfig) (*dynamo.State, error) {
	s := dynamo.NewState()
	var target *dynamo.Field
	for _, name := range fields {
		f := g.NewField()
		s.Set(name, f)
		if name == in.Field {
			target = f
		}
	}
	if target == nil {
		return nil, dynamo.Configf("initial.field", "no field %q (have %v)", in.Field, fields)
	}

	cx, cy := in.Center[0], in.Center[1]
	switch in.Shape {
	case "", "flat":
		target.Fill(in.Amplitude)
	case "point":
		i := clamp(int(math.Round(cx/g.Dx())), g.Nx())
		j := 0
		if g.Dims() == 2 {
			j = clamp(int(math.Round(cy/g.Dy())), g.Ny())
		}
		target.Set(i, j, in.Amplitude)
	case "gaussian":
		if !(in.Sigma > 0) {
			return nil, dynamo.Configf("initial.sigma", "must be positive, got %g", in.Sigma)
		}
		two := 2 * in.Sigma * in.Sigma
		for j := 0; j < g.Ny(); j++ {
			for i := 0; i < g.Nx(); i++ {
				x, y := g.Coord(i, j)
				r2 := (x - cx) * (x - cx)
				if g.Dims() == 2 {
					r2 += (y - cy) * (y - cy)
				}
				target.Set(i, j, in.Amplitude*math.Exp(-r2/two))
			}
		}
	default:
		return nil, dynamo.Configf("initial.shape", "unknown shape %q", in.Shape)
	}
	return s, nil
}

func clamp(i, n int) int {
	return max(0, min(i, n-1))
}

// Run integrates the experiment to its end time.
func (e *Experiment) Run(ctx context.Context) (*sim.History, error) {
	return e.simulator.Run(ctx, e.initial)
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Seed() int64                  { return e.seed }
func (e *Experiment) Grid() *grid.Grid             { return e.grid }
func (e *Experiment) RHS() sim.RHS                 { return e.rhs }
func (e *Experiment) Boundary() *boundary.Handler  { return e.bc }
func (e *Experiment) Initial() *dynamo.State       { return e.initial }
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }

// Forcing returns the generated boundary series, or nil without forcing.
func (e *Experiment) Forcing() *forcing.Series { return e.forcing }

// NewEnsemble runs n realisations of cfg with consecutive forcing seeds.
func NewEnsemble(cfg *config.Config, n int, seedStart int64, logger logrus.FieldLogger) *sim.Ensemble {
	build := func(seed int64) (*sim.Simulator, []*dynamo.State, error) {
		e, err := Build(cfg, seed, logger)
		if err != nil {
			return nil, nil, err
		}
		return e.simulator, []*dynamo.State{e.initial}, nil
	}
	return sim.NewEnsemble(build, n, seedStart)
}
