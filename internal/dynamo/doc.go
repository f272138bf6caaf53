// Package dynamo provides the core value types shared by the coastal
// finite-difference engine.
//
// The package defines the data the rest of the engine passes around:
//
//   - [Field]: dense scalar values co-located with grid points
//   - [VectorField]: per-axis components of a vector quantity
//   - [State]: named collection of fields describing the PDE unknowns
//   - the error taxonomy ([ConfigurationError], [ShapeError],
//     [StabilityError], [DivergenceError])
//
// Fields are stored row-major: the value at column i, row j lives at
// Data[j*Nx+i]. One dimensional fields have Ny == 1.
//
// # Ownership
//
// A State is mutated only by the time integrator that owns it. Right-hand
// sides and boundary handlers always return new states:
//
//	next := cur.Clone()
//	next.Field("eta").Data[0] = 0
//
// # Thread Safety
//
// None of the types are safe for concurrent mutation. The stepping loop is
// sequential, so no locking is performed. [ParallelFor] hands disjoint
// index ranges to workers; it is meant for independent runs, never for
// work inside a step.
package dynamo
