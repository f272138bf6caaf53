package experiment

import (
	"sort"

	"github.com/san-kum/coastal/internal/config"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/integrators"
	"github.com/san-kum/coastal/internal/metrics"
	"github.com/san-kum/coastal/internal/physics"
	"github.com/san-kum/coastal/internal/sim"
)

// blowUp is the magnitude above which a recorded state counts against the
// stability metric.
const blowUp = 1e6

type Registry struct {
	physics map[string]func(config.PhysicsConfig) (sim.RHS, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		physics: make(map[string]func(config.PhysicsConfig) (sim.RHS, error)),
	}

	r.physics[config.ShallowWater] = func(p config.PhysicsConfig) (sim.RHS, error) {
		sw, err := physics.NewShallowWater(p.Gravity, p.Depth)
		if err != nil {
			return nil, err
		}
		sw.Drag = p.Drag
		sw.Nonlinear = p.Nonlinear
		if err := sw.Validate(); err != nil {
			return nil, err
		}
		return sw, nil
	}
	r.physics[config.Wave] = func(p config.PhysicsConfig) (sim.RHS, error) {
		return physics.NewWave(p.Celerity)
	}
	r.physics[config.Transport] = func(p config.PhysicsConfig) (sim.RHS, error) {
		return physics.NewTransport(p.Diffusivity, p.Velocity[0], p.Velocity[1])
	}
	r.physics[config.Viscous] = func(p config.PhysicsConfig) (sim.RHS, error) {
		return physics.NewViscous(p.Viscosity, p.Advective)
	}

	return r
}

func (r *Registry) GetPhysics(p config.PhysicsConfig) (sim.RHS, error) {
	fn, ok := r.physics[p.Kind]
	if !ok {
		return nil, dynamo.Configf("physics.kind", "unknown kind %q", p.Kind)
	}
	return fn(p)
}

func (r *Registry) ListKinds() []string {
	names := make([]string, 0, len(r.physics))
	for name := range r.physics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSchemes() []string { return integrators.Schemes() }

// DefaultMetrics returns the diagnostics recorded for every run: volume
// drift and peak of the primary field, the stability fraction, and energy
// with its drift for kinds that define one.
func (r *Registry) DefaultMetrics(rhs sim.RHS, g *grid.Grid, field string, ghost []grid.Edge) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewVolume(g, field, ghost...),
		metrics.NewPeak(field),
		metrics.NewStability(blowUp),
	}
	if src, ok := rhs.(metrics.EnergySource); ok {
		ms = append(ms, metrics.NewEnergy(src, g), metrics.NewEnergyDrift(src, g))
	}
	return ms
}
