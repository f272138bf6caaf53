// Package grid defines the uniform structured discretization shared by the
// operators, the physics right-hand sides and the boundary handler.
package grid

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/coastal/internal/dynamo"
)

// Edge identifies one side of the domain.
type Edge int

const (
	West Edge = iota
	East
	South
	North
)

// One dimensional aliases.
const (
	Left  = West
	Right = East
)

var edgeNames = [...]string{"west", "east", "south", "north"}

func (e Edge) String() string {
	if e < West || e > North {
		return fmt.Sprintf("edge(%d)", int(e))
	}
	return edgeNames[e]
}

// ParseEdge accepts compass names and the 1D aliases left/right.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "west", "left", "w":
		return West, nil
	case "east", "right", "e":
		return East, nil
	case "south", "s", "bottom":
		return South, nil
	case "north", "n", "top":
		return North, nil
	}
	return 0, dynamo.Configf("boundary", "unknown edge %q", s)
}

// Axis is 0 for x (west/east) and 1 for y (south/north).
func (e Edge) Axis() int { return int(e) / 2 }

// Opposite returns the edge across the domain.
func (e Edge) Opposite() Edge { return e ^ 1 }

// Low reports whether the edge sits at index 0 of its axis.
func (e Edge) Low() bool { return e%2 == 0 }

// Axis describes one grid direction. Two of the three values determine
// the third; Points wins when all three are given and disagree.
type Axis struct {
	Length  float64
	Points  int
	Spacing float64
}

func (a Axis) resolve(name string) (Axis, error) {
	switch {
	case a.Points != 0 && a.Spacing != 0:
		a.Length = a.Spacing * float64(a.Points-1)
	case a.Points != 0 && a.Length != 0:
		if a.Points >= 2 {
			a.Spacing = a.Length / float64(a.Points-1)
		}
	case a.Spacing != 0 && a.Length != 0:
		if a.Spacing > 0 {
			a.Points = int(math.Round(a.Length/a.Spacing)) + 1
			a.Length = a.Spacing * float64(a.Points-1)
		}
	default:
		return a, dynamo.Configf(name, "two of length, points and spacing are required")
	}
	if a.Points < 2 {
		return a, dynamo.Configf(name, "need at least 2 points, got %d", a.Points)
	}
	if !(a.Spacing > 0) || math.IsInf(a.Spacing, 0) {
		return a, dynamo.Configf(name, "spacing must be positive, got %g", a.Spacing)
	}
	return a, nil
}

// Grid is an immutable 1D or 2D uniform grid.
type Grid struct {
	dims   int
	nx, ny int
	dx, dy float64
	x, y   []float64
}

// New builds a grid from one or two axes.
func New(axes ...Axis) (*Grid, error) {
	if len(axes) < 1 || len(axes) > 2 {
		return nil, dynamo.Configf("grid", "dimensionality must be 1 or 2, got %d", len(axes))
	}
	ax, err := axes[0].resolve("grid.x")
	if err != nil {
		return nil, err
	}
	g := &Grid{dims: 1, nx: ax.Points, ny: 1, dx: ax.Spacing, dy: 1}
	if len(axes) == 2 {
		ay, err := axes[1].resolve("grid.y")
		if err != nil {
			return nil, err
		}
		g.dims, g.ny, g.dy = 2, ay.Points, ay.Spacing
	}
	g.x = coords(g.nx, g.dx)
	if g.dims == 2 {
		g.y = coords(g.ny, g.dy)
	} else {
		g.y = []float64{0}
	}
	return g, nil
}

func New1D(nx int, dx float64) (*Grid, error) {
	return New(Axis{Points: nx, Spacing: dx})
}

func New2D(nx, ny int, dx, dy float64) (*Grid, error) {
	return New(Axis{Points: nx, Spacing: dx}, Axis{Points: ny, Spacing: dy})
}

func coords(n int, h float64) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = float64(i) * h
	}
	return c
}

func (g *Grid) Dims() int   { return g.dims }
func (g *Grid) Nx() int     { return g.nx }
func (g *Grid) Ny() int     { return g.ny }
func (g *Grid) Dx() float64 { return g.dx }
func (g *Grid) Dy() float64 { return g.dy }

// Size is the total number of points.
func (g *Grid) Size() int { return g.nx * g.ny }

// Points returns the point count along axis.
func (g *Grid) Points(axis int) int {
	if axis == 0 {
		return g.nx
	}
	return g.ny
}

// Spacing returns the spacing along axis.
func (g *Grid) Spacing(axis int) float64 {
	if axis == 0 {
		return g.dx
	}
	return g.dy
}

// MinSpacing is the smallest spacing over the active axes.
func (g *Grid) MinSpacing() float64 {
	if g.dims == 1 {
		return g.dx
	}
	return math.Min(g.dx, g.dy)
}

// CellArea is dx in 1D and dx*dy in 2D.
func (g *Grid) CellArea() float64 {
	if g.dims == 1 {
		return g.dx
	}
	return g.dx * g.dy
}

// Coords returns a copy of the coordinates along axis.
func (g *Grid) Coords(axis int) []float64 {
	src := g.x
	if axis == 1 {
		src = g.y
	}
	c := make([]float64, len(src))
	copy(c, src)
	return c
}

func (g *Grid) Coord(i, j int) (x, y float64) { return g.x[i], g.y[j] }

// Index maps (i, j) to the flat row-major offset.
func (g *Grid) Index(i, j int) int { return j*g.nx + i }

// Neighbor returns the flat index offset points away along axis, and false
// when that point lies outside the grid. Indices never wrap.
func (g *Grid) Neighbor(i, j, axis, offset int) (int, bool) {
	if axis == 0 {
		i += offset
	} else {
		j += offset
	}
	if i < 0 || i >= g.nx || j < 0 || j >= g.ny {
		return 0, false
	}
	return g.Index(i, j), true
}

// Edges lists the edges of the grid: west/east, plus south/north in 2D.
func (g *Grid) Edges() []Edge {
	if g.dims == 1 {
		return []Edge{West, East}
	}
	return []Edge{West, East, South, North}
}

func (g *Grid) HasEdge(e Edge) bool {
	return e >= West && (e <= East || (g.dims == 2 && e <= North))
}

// Layer returns the flat indices of the points whose distance from edge e
// is exactly depth (depth 0 is the edge itself), ordered along the edge.
func (g *Grid) Layer(e Edge, depth int) []int {
	n := g.Points(e.Axis())
	if depth < 0 || depth >= n {
		return nil
	}
	pos := depth
	if !e.Low() {
		pos = n - 1 - depth
	}
	var idx []int
	if e.Axis() == 0 {
		idx = make([]int, g.ny)
		for j := 0; j < g.ny; j++ {
			idx[j] = g.Index(pos, j)
		}
	} else {
		idx = make([]int, g.nx)
		for i := 0; i < g.nx; i++ {
			idx[i] = g.Index(i, pos)
		}
	}
	return idx
}

// EdgeIndices is Layer(e, 0).
func (g *Grid) EdgeIndices(e Edge) []int { return g.Layer(e, 0) }

// NewField allocates a zero field shaped like the grid.
func (g *Grid) NewField() *dynamo.Field { return dynamo.NewField(g.nx, g.ny) }

// CheckField returns a ShapeError when f does not match the grid.
func (g *Grid) CheckField(name string, f *dynamo.Field) error {
	if f == nil {
		return &dynamo.ShapeError{Name: name, Want: [2]int{g.nx, g.ny}}
	}
	if f.Nx != g.nx || f.Ny != g.ny || len(f.Data) != g.nx*g.ny {
		return &dynamo.ShapeError{Name: name, Want: [2]int{g.nx, g.ny}, Got: [2]int{f.Nx, f.Ny}}
	}
	return nil
}

// CheckState validates the named fields of s against the grid.
func (g *Grid) CheckState(s *dynamo.State, names ...string) error {
	for _, n := range names {
		if err := g.CheckField(n, s.Field(n)); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grid) String() string {
	if g.dims == 1 {
		return fmt.Sprintf("grid1d(nx=%d, dx=%g)", g.nx, g.dx)
	}
	return fmt.Sprintf("grid2d(nx=%d, ny=%d, dx=%g, dy=%g)", g.nx, g.ny, g.dx, g.dy)
}
