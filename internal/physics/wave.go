package physics

import (
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/operators"
)

// Wave is the linear wave equation eta_tt = c^2 lap(eta). Evaluate returns
// the second time derivative, so it must be stepped with a three-level
// scheme.
type Wave struct {
	Celerity float64
}

func NewWave(celerity float64) (*Wave, error) {
	if !(celerity > 0) {
		return nil, dynamo.Configf("physics.celerity", "must be positive, got %g", celerity)
	}
	return &Wave{Celerity: celerity}, nil
}

func (w *Wave) Name() string { return "wave" }

func (w *Wave) HistoryDepth() int { return 2 }

func (w *Wave) Fields(*grid.Grid) []string { return []string{Elevation} }

func (w *Wave) CharacteristicSpeed(*dynamo.State) float64 { return w.Celerity }

func (w *Wave) Evaluate(s *dynamo.State, g *grid.Grid, _ float64) (*dynamo.State, error) {
	if err := g.CheckState(s, Elevation); err != nil {
		return nil, err
	}
	lap, err := operators.Laplacian(g, s.Field(Elevation))
	if err != nil {
		return nil, err
	}
	return dynamo.NewState().Set(Elevation, lap.Scaled(w.Celerity*w.Celerity)), nil
}

// Energy returns the discrete wave energy from two consecutive levels:
// kinetic from the finite-difference rate, potential from c^2 |grad eta|^2.
func (w *Wave) Energy(prev, cur *dynamo.State, g *grid.Grid, dt float64) float64 {
	a, b := prev.Field(Elevation), cur.Field(Elevation)
	if a == nil || b == nil || !a.SameShape(b) || dt <= 0 {
		return 0
	}
	grad, err := operators.Gradient(g, b)
	if err != nil {
		return 0
	}
	c2 := w.Celerity * w.Celerity
	e := 0.0
	for k := range b.Data {
		rate := (b.Data[k] - a.Data[k]) / dt
		pe := grad.X.Data[k] * grad.X.Data[k]
		if grad.Y != nil {
			pe += grad.Y.Data[k] * grad.Y.Data[k]
		}
		e += 0.5 * (rate*rate + c2*pe)
	}
	return e * g.CellArea()
}
