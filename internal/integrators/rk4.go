package integrators

import "github.com/san-kum/coastal/internal/dynamo"

// RK4 is the classical four-stage Runge-Kutta scheme. Boundary conditions
// are enforced on every intermediate stage state.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(f Derivative, bc Constrain, x *dynamo.State, t, dt float64) (*dynamo.State, error) {
	stage := func(k *dynamo.State, h float64) (*dynamo.State, error) {
		s, err := x.AddScaled(h, k)
		if err != nil {
			return nil, err
		}
		s, err = constrain(bc, s, t+h)
		if err != nil {
			return nil, err
		}
		return f(s, t+h)
	}

	k1, err := f(x, t)
	if err != nil {
		return nil, err
	}
	k2, err := stage(k1, dt*0.5)
	if err != nil {
		return nil, err
	}
	k3, err := stage(k2, dt*0.5)
	if err != nil {
		return nil, err
	}
	k4, err := stage(k3, dt)
	if err != nil {
		return nil, err
	}

	dt6 := dt / 6.0
	result := x
	for _, s := range []struct {
		w float64
		k *dynamo.State
	}{{dt6, k1}, {2 * dt6, k2}, {2 * dt6, k3}, {dt6, k4}} {
		if result, err = result.AddScaled(s.w, s.k); err != nil {
			return nil, err
		}
	}
	return constrain(bc, result, t+dt)
}
