package integrators

import "github.com/san-kum/coastal/internal/dynamo"

// Leapfrog is the three-level scheme for x_tt = a(x):
//
//	x[n+1] = 2 x[n] - x[n-1] + dt^2 a(x[n])
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

// Start produces the second level from a single state by a Taylor step,
// x1 = x0 + dt v0 + dt^2/2 a(x0). A nil v0 starts from rest.
func (l *Leapfrog) Start(f Derivative, bc Constrain, x0, v0 *dynamo.State, t, dt float64) (*dynamo.State, error) {
	a, err := f(x0, t)
	if err != nil {
		return nil, err
	}
	next := x0
	if v0 != nil {
		if next, err = next.AddScaled(dt, v0); err != nil {
			return nil, err
		}
	}
	if next, err = next.AddScaled(0.5*dt*dt, a); err != nil {
		return nil, err
	}
	return constrain(bc, next, t+dt)
}

// Step advances (prev, cur) at time t to the level at t+dt.
func (l *Leapfrog) Step(f Derivative, bc Constrain, prev, cur *dynamo.State, t, dt float64) (*dynamo.State, error) {
	a, err := f(cur, t)
	if err != nil {
		return nil, err
	}
	delta, err := cur.AddScaled(-1, prev)
	if err != nil {
		return nil, err
	}
	next, err := cur.AddScaled(1, delta)
	if err != nil {
		return nil, err
	}
	if next, err = next.AddScaled(dt*dt, a); err != nil {
		return nil, err
	}
	return constrain(bc, next, t+dt)
}
