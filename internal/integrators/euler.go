package integrators

import "github.com/san-kum/coastal/internal/dynamo"

// Derivative evaluates the right-hand side at state s and time t. For the
// second-order schemes it returns the acceleration.
type Derivative func(s *dynamo.State, t float64) (*dynamo.State, error)

// Constrain enforces boundary conditions on a freshly updated state.
type Constrain func(s *dynamo.State, t float64) (*dynamo.State, error)

// Stepper advances a first-order system by one step.
type Stepper interface {
	Name() string
	Step(f Derivative, bc Constrain, x *dynamo.State, t, dt float64) (*dynamo.State, error)
}

func constrain(bc Constrain, s *dynamo.State, t float64) (*dynamo.State, error) {
	if bc == nil {
		return s, nil
	}
	return bc(s, t)
}

// Euler is forward Euler: x + dt f(x, t).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(f Derivative, bc Constrain, x *dynamo.State, t, dt float64) (*dynamo.State, error) {
	dx, err := f(x, t)
	if err != nil {
		return nil, err
	}
	next, err := x.AddScaled(dt, dx)
	if err != nil {
		return nil, err
	}
	return constrain(bc, next, t+dt)
}
