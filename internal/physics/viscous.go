package physics

import (
	"math"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/operators"
)

// Viscous diffuses the velocity field, v_t = nu lap(v). With Advective set
// the velocity also carries itself (viscous Burgers).
type Viscous struct {
	Viscosity float64
	Advective bool
}

func NewViscous(nu float64, advective bool) (*Viscous, error) {
	if !(nu > 0) {
		return nil, dynamo.Configf("physics.viscosity", "must be positive, got %g", nu)
	}
	return &Viscous{Viscosity: nu, Advective: advective}, nil
}

func (vs *Viscous) Name() string { return "viscous" }

func (vs *Viscous) HistoryDepth() int { return 1 }

func (vs *Viscous) Fields(g *grid.Grid) []string {
	if g.Dims() == 2 {
		return []string{VelocityX, VelocityY}
	}
	return []string{VelocityX}
}

func (vs *Viscous) Diffusivity() float64 { return vs.Viscosity }

// CharacteristicSpeed is the flow speed for the advective form and zero
// otherwise; the diffusive bound is checked separately.
func (vs *Viscous) CharacteristicSpeed(s *dynamo.State) float64 {
	if !vs.Advective || s == nil {
		return 0
	}
	m := 0.0
	for _, n := range []string{VelocityX, VelocityY} {
		if f := s.Field(n); f != nil {
			m = math.Max(m, f.MaxAbs())
		}
	}
	return m
}

func (vs *Viscous) Evaluate(s *dynamo.State, g *grid.Grid, _ float64) (*dynamo.State, error) {
	names := vs.Fields(g)
	if err := g.CheckState(s, names...); err != nil {
		return nil, err
	}
	vel := dynamo.VectorField{X: s.Field(VelocityX)}
	if g.Dims() == 2 {
		vel.Y = s.Field(VelocityY)
	}

	out := dynamo.NewState()
	for _, n := range names {
		f := s.Field(n)
		lap, err := operators.Laplacian(g, f)
		if err != nil {
			return nil, err
		}
		d := lap.Scaled(vs.Viscosity)
		if vs.Advective {
			adv, err := operators.Advect(g, vel, f)
			if err != nil {
				return nil, err
			}
			if d, err = d.Combine(1, -1, adv); err != nil {
				return nil, err
			}
		}
		out.Set(n, d)
	}
	return out, nil
}
