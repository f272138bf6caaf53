package sim

import (
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
)

// RHS is an equation-specific right-hand side. Operators are package
// functions, so Evaluate only needs the grid.
type RHS interface {
	Name() string
	// Fields lists the state fields the RHS reads and differentiates.
	Fields(g *grid.Grid) []string
	Evaluate(s *dynamo.State, g *grid.Grid, t float64) (*dynamo.State, error)
	// CharacteristicSpeed is the fastest signal speed. s may be nil, in
	// which case only parameters are used.
	CharacteristicSpeed(s *dynamo.State) float64
	// HistoryDepth is 1 for first-order systems and 2 when Evaluate
	// returns a second time derivative.
	HistoryDepth() int
}

// Diffusive is implemented by kinds with an explicit diffusion term.
type Diffusive interface {
	Diffusivity() float64
}

// Boundary enforces edge conditions on an updated state.
type Boundary interface {
	Apply(s *dynamo.State, t float64) (*dynamo.State, error)
}

type Metric interface {
	Name() string
	Observe(s *dynamo.State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s *dynamo.State, t float64)
}

// Status is the run state machine: Idle -> Stepping -> {Idle, Failed}.
type Status int

const (
	Idle Status = iota
	Stepping
	Failed
)

func (s Status) String() string {
	switch s {
	case Stepping:
		return "stepping"
	case Failed:
		return "failed"
	}
	return "idle"
}

type Config struct {
	Dt      float64
	EndTime float64
	// CFL is the target Courant number. Zero means 1.
	CFL float64
	// AutoAdjust clamps Dt to the stability bound instead of failing.
	AutoAdjust bool
	// Stride records every Stride-th step. The final step is always kept.
	Stride int
	// Scheme names the first-order scheme; second-order kinds always use
	// leapfrog.
	Scheme string
}
