// Package physics provides the equation-specific right-hand sides of the
// engine.
//
// Each kind evaluates the time derivative of a state on a grid and declares
// the characteristic signal speed used for CFL checking together with the
// number of time levels its scheme needs:
//
//   - [ShallowWater]: depth-averaged continuity and momentum, depth 1
//   - [Wave]: linear wave equation eta_tt = c^2 lap(eta), depth 2
//   - [Transport]: advection-diffusion of a passive tracer, depth 1
//   - [Viscous]: viscous diffusion of velocity, optionally self-advected
//
// Evaluate is pure: it never mutates its input state.
//
// # Energy
//
// Shallow water implements an Energy method so run diagnostics can
// monitor drift:
//
//	sw, _ := physics.NewShallowWater(9.81, 1.0)
//	e := sw.Energy(state, g)
package physics
