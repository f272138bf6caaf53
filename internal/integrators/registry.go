package integrators

import (
	"sort"

	"github.com/san-kum/coastal/internal/dynamo"
)

var steppers = map[string]func() Stepper{
	"euler": func() Stepper { return NewEuler() },
	"rk4":   func() Stepper { return NewRK4() },
}

// Lookup returns a fresh first-order stepper by name. The empty name is
// forward Euler.
func Lookup(name string) (Stepper, error) {
	if name == "" {
		name = "euler"
	}
	fn, ok := steppers[name]
	if !ok {
		return nil, dynamo.Configf("solver.scheme", "unknown first-order scheme %q", name)
	}
	return fn(), nil
}

// Schemes lists every scheme name including leapfrog.
func Schemes() []string {
	names := []string{"leapfrog"}
	for n := range steppers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
