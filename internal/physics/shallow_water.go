package physics

import (
	"math"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/operators"
)

// Field names used by the flow kinds.
const (
	Elevation = "eta"
	VelocityX = "u"
	VelocityY = "v"
)

// ShallowWater couples surface elevation and depth-averaged velocity:
//
//	eta_t = -div((h + eta) v)
//	v_t   = -g grad(eta) - drag v [- (v . grad) v]
type ShallowWater struct {
	Gravity float64
	Depth   float64
	// Bathymetry optionally replaces Depth with a still-water depth per point.
	Bathymetry *dynamo.Field
	// Drag is a linear bottom friction rate in 1/s.
	Drag float64
	// Nonlinear enables momentum advection.
	Nonlinear bool
}

func NewShallowWater(gravity, depth float64) (*ShallowWater, error) {
	sw := &ShallowWater{Gravity: gravity, Depth: depth}
	if err := sw.Validate(); err != nil {
		return nil, err
	}
	return sw, nil
}

func (sw *ShallowWater) Validate() error {
	if !(sw.Gravity > 0) {
		return dynamo.Configf("physics.gravity", "must be positive, got %g", sw.Gravity)
	}
	if sw.Bathymetry == nil && !(sw.Depth > 0) {
		return dynamo.Configf("physics.depth", "must be positive, got %g", sw.Depth)
	}
	if sw.Drag < 0 {
		return dynamo.Configf("physics.drag", "must be non-negative, got %g", sw.Drag)
	}
	return nil
}

func (sw *ShallowWater) Name() string { return "shallow_water" }

func (sw *ShallowWater) HistoryDepth() int { return 1 }

func (sw *ShallowWater) Fields(g *grid.Grid) []string {
	if g.Dims() == 2 {
		return []string{Elevation, VelocityX, VelocityY}
	}
	return []string{Elevation, VelocityX}
}

func (sw *ShallowWater) maxDepth() float64 {
	if sw.Bathymetry != nil {
		return sw.Bathymetry.MaxAbs()
	}
	return sw.Depth
}

// CharacteristicSpeed is sqrt(g h) plus the flow speed when a state is known.
func (sw *ShallowWater) CharacteristicSpeed(s *dynamo.State) float64 {
	h := sw.maxDepth()
	flow := 0.0
	if s != nil {
		if eta := s.Field(Elevation); eta != nil {
			h += eta.MaxAbs()
		}
		for _, n := range []string{VelocityX, VelocityY} {
			if f := s.Field(n); f != nil {
				flow = math.Max(flow, f.MaxAbs())
			}
		}
	}
	return math.Sqrt(sw.Gravity*h) + flow
}

func (sw *ShallowWater) depthAt(k int) float64 {
	if sw.Bathymetry != nil {
		return sw.Bathymetry.Data[k]
	}
	return sw.Depth
}

func (sw *ShallowWater) Evaluate(s *dynamo.State, g *grid.Grid, _ float64) (*dynamo.State, error) {
	names := sw.Fields(g)
	if err := g.CheckState(s, names...); err != nil {
		return nil, err
	}
	if sw.Bathymetry != nil {
		if err := g.CheckField("bathymetry", sw.Bathymetry); err != nil {
			return nil, err
		}
	}
	eta := s.Field(Elevation)
	vel := dynamo.VectorField{X: s.Field(VelocityX)}
	if g.Dims() == 2 {
		vel.Y = s.Field(VelocityY)
	}

	flux := dynamo.VectorField{X: g.NewField()}
	if vel.Y != nil {
		flux.Y = g.NewField()
	}
	for k := range eta.Data {
		total := sw.depthAt(k) + eta.Data[k]
		flux.X.Data[k] = total * vel.X.Data[k]
		if vel.Y != nil {
			flux.Y.Data[k] = total * vel.Y.Data[k]
		}
	}
	div, err := operators.Divergence(g, flux)
	if err != nil {
		return nil, err
	}
	grad, err := operators.Gradient(g, eta)
	if err != nil {
		return nil, err
	}

	out := dynamo.NewState().Set(Elevation, div.Scaled(-1))
	comps := []struct {
		name string
		vel  *dynamo.Field
		grad *dynamo.Field
	}{{VelocityX, vel.X, grad.X}}
	if vel.Y != nil {
		comps = append(comps, struct {
			name string
			vel  *dynamo.Field
			grad *dynamo.Field
		}{VelocityY, vel.Y, grad.Y})
	}

	for _, c := range comps {
		d := g.NewField()
		for k := range d.Data {
			d.Data[k] = -sw.Gravity*c.grad.Data[k] - sw.Drag*c.vel.Data[k]
		}
		if sw.Nonlinear {
			adv, err := operators.Advect(g, vel, c.vel)
			if err != nil {
				return nil, err
			}
			for k := range d.Data {
				d.Data[k] -= adv.Data[k]
			}
		}
		out.Set(c.name, d)
	}
	return out, nil
}

// Energy returns the discrete total energy 0.5 * sum(g eta^2 + h |v|^2) dA.
func (sw *ShallowWater) Energy(s *dynamo.State, g *grid.Grid) float64 {
	eta := s.Field(Elevation)
	if eta == nil {
		return 0
	}
	e := 0.0
	for k, z := range eta.Data {
		ke := 0.0
		for _, n := range []string{VelocityX, VelocityY} {
			if f := s.Field(n); f != nil {
				ke += f.Data[k] * f.Data[k]
			}
		}
		e += 0.5 * (sw.Gravity*z*z + (sw.depthAt(k)+z)*ke)
	}
	return e * g.CellArea()
}
