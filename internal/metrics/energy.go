// Package metrics holds run diagnostics fed by the simulator after every
// step.
package metrics

import (
	"math"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
)

// EnergySource is implemented by physics kinds with a conserved energy.
type EnergySource interface {
	Energy(s *dynamo.State, g *grid.Grid) float64
}

// Energy reports the mean discrete energy over the observed states.
type Energy struct {
	name        string
	src         EnergySource
	g           *grid.Grid
	samples     int
	totalEnergy float64
}

func NewEnergy(src EnergySource, g *grid.Grid) *Energy {
	return &Energy{name: "energy", src: src, g: g}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s *dynamo.State, _ float64) {
	e.totalEnergy += e.src.Energy(s, e.g)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the first observed
// energy.
type EnergyDrift struct {
	name          string
	src           EnergySource
	g             *grid.Grid
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(src EnergySource, g *grid.Grid) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", src: src, g: g}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s *dynamo.State, _ float64) {
	energy := e.src.Energy(s, e.g)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
