package integrators

import (
	"testing"

	"github.com/san-kum/coastal/internal/dynamo"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	x := oscillator(1, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(harmonic, nil, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	x := oscillator(1, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(harmonic, nil, x, 0, 0.01)
	}
}

func BenchmarkLeapfrog(b *testing.B) {
	integrator := NewLeapfrog()
	prev := dynamo.NewState().Set("x", scalar(1))
	cur, _ := integrator.Start(spring, nil, prev, nil, 0, 0.01)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, _ := integrator.Step(spring, nil, prev, cur, 0, 0.01)
		prev, cur = cur, next
	}
}

// a 256-point field exercises the per-field arithmetic rather than call overhead
func BenchmarkRK4_Field256(b *testing.B) {
	integrator := NewRK4()
	f := dynamo.NewField(256, 1)
	for i := range f.Data {
		f.Data[i] = float64(i) * 0.1
	}
	x := dynamo.NewState().Set("x", f).Set("v", dynamo.NewField(256, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(harmonic, nil, x, 0, 0.001)
	}
}
