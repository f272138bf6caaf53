package physics

import (
	"math"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/operators"
)

const Tracer = "tracer"

// Transport advects and diffuses a passive tracer:
//
//	c_t = -v . grad(c) + kappa lap(c)
type Transport struct {
	// Kappa is the diffusivity in m^2/s.
	Kappa float64
	// Velocity is a uniform carrier velocity. Flow, when set, replaces it.
	Velocity [2]float64
	Flow     *dynamo.VectorField
}

func NewTransport(kappa, u, v float64) (*Transport, error) {
	if kappa < 0 {
		return nil, dynamo.Configf("physics.diffusivity", "must be non-negative, got %g", kappa)
	}
	return &Transport{Kappa: kappa, Velocity: [2]float64{u, v}}, nil
}

func (tr *Transport) Name() string { return "transport" }

func (tr *Transport) HistoryDepth() int { return 1 }

func (tr *Transport) Fields(*grid.Grid) []string { return []string{Tracer} }

func (tr *Transport) Diffusivity() float64 { return tr.Kappa }

func (tr *Transport) CharacteristicSpeed(*dynamo.State) float64 {
	if tr.Flow != nil {
		m := 0.0
		for _, c := range tr.Flow.Components() {
			m = math.Max(m, c.MaxAbs())
		}
		return m
	}
	return math.Max(math.Abs(tr.Velocity[0]), math.Abs(tr.Velocity[1]))
}

func (tr *Transport) flow(g *grid.Grid) (dynamo.VectorField, error) {
	if tr.Flow != nil {
		for _, c := range tr.Flow.Components() {
			if err := g.CheckField("flow", c); err != nil {
				return dynamo.VectorField{}, err
			}
		}
		return *tr.Flow, nil
	}
	v := dynamo.VectorField{X: g.NewField().Fill(tr.Velocity[0])}
	if g.Dims() == 2 {
		v.Y = g.NewField().Fill(tr.Velocity[1])
	}
	return v, nil
}

func (tr *Transport) Evaluate(s *dynamo.State, g *grid.Grid, _ float64) (*dynamo.State, error) {
	if err := g.CheckState(s, Tracer); err != nil {
		return nil, err
	}
	c := s.Field(Tracer)
	v, err := tr.flow(g)
	if err != nil {
		return nil, err
	}
	adv, err := operators.Advect(g, v, c)
	if err != nil {
		return nil, err
	}
	out := adv.Scaled(-1)
	if tr.Kappa > 0 {
		lap, err := operators.Laplacian(g, c)
		if err != nil {
			return nil, err
		}
		if out, err = out.Combine(1, tr.Kappa, lap); err != nil {
			return nil, err
		}
	}
	return dynamo.NewState().Set(Tracer, out), nil
}
