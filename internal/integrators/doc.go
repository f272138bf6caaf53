// Package integrators holds the explicit time-stepping schemes.
//
// Schemes never see the grid or the physics directly: they receive a
// [Derivative] closure and a [Constrain] closure that enforces boundary
// conditions after every stage update. First-order schemes ([Euler],
// [RK4]) advance a single state; [Leapfrog] advances the second-order form
// x_tt = a(x) and needs the two preceding states.
package integrators
