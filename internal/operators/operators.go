// Package operators implements second-order finite-difference stencils on a
// uniform grid.
//
// Interior points use central differences. Edge points, where the central
// stencil is unavailable, use one-sided stencils of matching formal order;
// the boundary handler is expected to overwrite them right after each stage.
// Operators never wrap indices: periodicity is a boundary concern.
//
// All operators are linear and allocate a fresh output field.
package operators

import (
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
)

// Diff returns the first derivative of f along axis.
func Diff(g *grid.Grid, f *dynamo.Field, axis int) (*dynamo.Field, error) {
	if err := g.CheckField("", f); err != nil {
		return nil, err
	}
	out := g.NewField()
	if axis >= g.Dims() {
		return out, nil
	}
	h := g.Spacing(axis)
	eachLine(g, axis, func(line []int) {
		diffLine(f.Data, out.Data, line, h)
	})
	return out, nil
}

// Gradient returns the per-axis first derivatives of f.
func Gradient(g *grid.Grid, f *dynamo.Field) (dynamo.VectorField, error) {
	dx, err := Diff(g, f, 0)
	if err != nil {
		return dynamo.VectorField{}, err
	}
	v := dynamo.VectorField{X: dx}
	if g.Dims() == 2 {
		if v.Y, err = Diff(g, f, 1); err != nil {
			return dynamo.VectorField{}, err
		}
	}
	return v, nil
}

// Divergence returns d(vx)/dx + d(vy)/dy. On 1D grids only X is used.
func Divergence(g *grid.Grid, v dynamo.VectorField) (*dynamo.Field, error) {
	out, err := Diff(g, v.X, 0)
	if err != nil {
		return nil, err
	}
	if g.Dims() == 2 {
		if v.Y == nil {
			return nil, &dynamo.ShapeError{Name: "y component", Want: [2]int{g.Nx(), g.Ny()}}
		}
		dy, err := Diff(g, v.Y, 1)
		if err != nil {
			return nil, err
		}
		for k := range out.Data {
			out.Data[k] += dy.Data[k]
		}
	}
	return out, nil
}

// Laplacian returns the sum of second derivatives of f over the grid axes.
func Laplacian(g *grid.Grid, f *dynamo.Field) (*dynamo.Field, error) {
	if err := g.CheckField("", f); err != nil {
		return nil, err
	}
	out := g.NewField()
	for axis := 0; axis < g.Dims(); axis++ {
		h := g.Spacing(axis)
		eachLine(g, axis, func(line []int) {
			secondLine(f.Data, out.Data, line, 1/(h*h))
		})
	}
	return out, nil
}

// Advect returns v . grad(f).
func Advect(g *grid.Grid, v dynamo.VectorField, f *dynamo.Field) (*dynamo.Field, error) {
	grad, err := Gradient(g, f)
	if err != nil {
		return nil, err
	}
	if err := g.CheckField("velocity x", v.X); err != nil {
		return nil, err
	}
	out := g.NewField()
	for k := range out.Data {
		out.Data[k] = v.X.Data[k] * grad.X.Data[k]
	}
	if g.Dims() == 2 {
		if err := g.CheckField("velocity y", v.Y); err != nil {
			return nil, err
		}
		for k := range out.Data {
			out.Data[k] += v.Y.Data[k] * grad.Y.Data[k]
		}
	}
	return out, nil
}

// eachLine calls fn with the flat indices of every grid line along axis.
func eachLine(g *grid.Grid, axis int, fn func(line []int)) {
	if axis == 0 {
		line := make([]int, g.Nx())
		for j := 0; j < g.Ny(); j++ {
			for i := range line {
				line[i] = g.Index(i, j)
			}
			fn(line)
		}
		return
	}
	line := make([]int, g.Ny())
	for i := 0; i < g.Nx(); i++ {
		for j := range line {
			line[j] = g.Index(i, j)
		}
		fn(line)
	}
}

func diffLine(in, out []float64, line []int, h float64) {
	n := len(line)
	if n == 2 {
		d := (in[line[1]] - in[line[0]]) / h
		out[line[0]] += d
		out[line[1]] += d
		return
	}
	inv2h := 1 / (2 * h)
	for k := 1; k < n-1; k++ {
		out[line[k]] += (in[line[k+1]] - in[line[k-1]]) * inv2h
	}
	out[line[0]] += (-3*in[line[0]] + 4*in[line[1]] - in[line[2]]) * inv2h
	out[line[n-1]] += (3*in[line[n-1]] - 4*in[line[n-2]] + in[line[n-3]]) * inv2h
}

func secondLine(in, out []float64, line []int, invh2 float64) {
	n := len(line)
	if n < 3 {
		return
	}
	for k := 1; k < n-1; k++ {
		out[line[k]] += (in[line[k+1]] - 2*in[line[k]] + in[line[k-1]]) * invh2
	}
	if n == 3 {
		// too short for a second-order one-sided stencil; reuse the centre value
		d := (in[line[2]] - 2*in[line[1]] + in[line[0]]) * invh2
		out[line[0]] += d
		out[line[2]] += d
		return
	}
	out[line[0]] += (2*in[line[0]] - 5*in[line[1]] + 4*in[line[2]] - in[line[3]]) * invh2
	out[line[n-1]] += (2*in[line[n-1]] - 5*in[line[n-2]] + 4*in[line[n-3]] - in[line[n-4]]) * invh2
}
