package config

import "sort"

// Presets are ready-made scenarios keyed by physics kind, then name.
var Presets = map[string]map[string]*Document{
	ShallowWater: {
		"seiche": {
			Name:    "seiche",
			Grid:    GridDoc{Nx: ptr(201), Dx: ptr(1.0)},
			Physics: PhysicsDoc{Kind: ShallowWater, Gravity: ptr(9.81), Depth: ptr(2.0)},
			Solver:  SolverDoc{Dt: ptr(0.1), Duration: ptr(120.0), CFLTarget: ptr(0.9), Scheme: "rk4"},
			Output:  OutputDoc{Stride: 5, Gauge: []int{50}},
			Boundary: map[string]BoundaryDoc{
				"all": {Type: "wall"},
			},
			Initial: InitialDoc{Shape: "gaussian", Amplitude: 0.1, Sigma: 10},
		},
		"dam_pulse": {
			Name:    "dam_pulse",
			Grid:    GridDoc{Nx: ptr(81), Ny: ptr(81), Dx: ptr(5.0), Dy: ptr(5.0)},
			Physics: PhysicsDoc{Kind: ShallowWater, Gravity: ptr(9.81), Depth: ptr(5.0), Nonlinear: true},
			Solver:  SolverDoc{Dt: ptr(0.25), Duration: ptr(60.0), CFLTarget: ptr(0.9), Scheme: "rk4"},
			Output:  OutputDoc{Stride: 8, Gauge: []int{60, 40}},
			Boundary: map[string]BoundaryDoc{
				"all": {Type: "wall"},
			},
			Initial: InitialDoc{Shape: "gaussian", Amplitude: 0.5, Sigma: 15},
		},
		"jonswap_channel": {
			Name:    "jonswap_channel",
			Seed:    ptr(int64(1)),
			Grid:    GridDoc{Nx: ptr(400), Dx: ptr(1.0)},
			Physics: PhysicsDoc{Kind: ShallowWater, Gravity: ptr(9.81), Depth: ptr(1.0), Drag: 0.001},
			Forcing: &ForcingDoc{Type: ptr("jonswap"), Hs: ptr(0.2), Tp: ptr(8.0), Gamma: ptr(3.3), Edge: "west", Fields: []string{"eta"}},
			Solver:  SolverDoc{Dt: ptr(0.05), Duration: ptr(120.0), CFLTarget: ptr(0.9), Scheme: "rk4"},
			Output:  OutputDoc{Stride: 10, Gauge: []int{200}},
			Boundary: map[string]BoundaryDoc{
				"east": {Type: "sponge", Width: 40, Strength: 1},
			},
		},
	},
	Wave: {
		"ripple_tank": {
			Name:    "ripple_tank",
			Grid:    GridDoc{Nx: ptr(101), Ny: ptr(101), Dx: ptr(0.01), Dy: ptr(0.01)},
			Physics: PhysicsDoc{Kind: Wave, Celerity: ptr(0.25)},
			Solver:  SolverDoc{Dt: ptr(0.02), Duration: ptr(3.0), CFLTarget: ptr(0.7)},
			Output:  OutputDoc{Stride: 5, Gauge: []int{75, 50}},
			Boundary: map[string]BoundaryDoc{
				"all": {Type: "sponge", Width: 10, Strength: 0.5},
			},
			Initial: InitialDoc{Shape: "gaussian", Amplitude: 0.01, Sigma: 0.03},
		},
	},
	Transport: {
		"tracer_plume": {
			Name:    "tracer_plume",
			Grid:    GridDoc{Nx: ptr(60), Ny: ptr(60), Dx: ptr(1.0), Dy: ptr(1.0)},
			Physics: PhysicsDoc{Kind: Transport, Diffusivity: ptr(0.05), Velocity: []float64{0.5, 0.2}},
			Solver:  SolverDoc{Dt: ptr(0.5), Duration: ptr(60.0), CFLTarget: ptr(0.9), Scheme: "rk4"},
			Output:  OutputDoc{Stride: 4, Gauge: []int{40, 25}},
			Boundary: map[string]BoundaryDoc{
				"all": {Type: "dirichlet", Value: 0},
			},
			Initial: InitialDoc{Shape: "gaussian", Amplitude: 1, Sigma: 3, Center: []float64{15, 15}},
		},
	},
	Viscous: {
		"viscous_decay": {
			Name:    "viscous_decay",
			Grid:    GridDoc{Nx: ptr(101), Dx: ptr(0.01)},
			Physics: PhysicsDoc{Kind: Viscous, Viscosity: ptr(0.01)},
			Solver:  SolverDoc{Dt: ptr(0.004), Duration: ptr(1.0), CFLTarget: ptr(0.9)},
			Output:  OutputDoc{Stride: 10},
			Boundary: map[string]BoundaryDoc{
				"all": {Type: "dirichlet", Value: 0},
			},
			Initial: InitialDoc{Shape: "gaussian", Amplitude: 1, Sigma: 0.05},
		},
	},
}

func GetPreset(kind, preset string) *Document {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	doc, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	return doc
}

// FindPreset looks a preset up by name across all kinds.
func FindPreset(name string) *Document {
	for _, kindPresets := range Presets {
		if doc, ok := kindPresets[name]; ok {
			return doc
		}
	}
	return nil
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
