// Package boundary rewrites edge values of a state after each integration
// stage.
//
// One [Condition] is assigned to every edge of the grid through a [Spec].
// [Handler.Apply] never touches points outside a condition's index set: the
// edge row for Dirichlet, Neumann, Wall and Periodic, and the first Width
// rows for Sponge.
//
// Edges are processed west, east, south, north, so in 2D the south/north
// conditions own the corner points.
package boundary

import (
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
)

// Spec maps each grid edge to its condition.
type Spec map[grid.Edge]Condition

// Uniform assigns c to every edge of g.
func Uniform(g *grid.Grid, c Condition) Spec {
	s := make(Spec, 4)
	for _, e := range g.Edges() {
		s[e] = c
	}
	return s
}

type Handler struct {
	g        *grid.Grid
	conds    [4]*Condition
	velocity [2]string
}

type Option func(*Handler)

// WithVelocity names the x and y velocity fields used by Wall edges.
// The default is "u" and "v".
func WithVelocity(u, v string) Option {
	return func(h *Handler) { h.velocity = [2]string{u, v} }
}

// New validates spec against g and returns a handler.
func New(g *grid.Grid, spec Spec, opts ...Option) (*Handler, error) {
	h := &Handler{g: g, velocity: [2]string{"u", "v"}}
	for _, o := range opts {
		o(h)
	}

	for e := range spec {
		if !g.HasEdge(e) {
			return nil, dynamo.Configf("boundary."+e.String(), "edge does not exist on a %dD grid", g.Dims())
		}
	}
	for _, e := range g.Edges() {
		c, ok := spec[e]
		if !ok {
			return nil, dynamo.Configf("boundary."+e.String(), "no condition assigned")
		}
		if err := validate(g, e, &c); err != nil {
			return nil, err
		}
		if c.Kind == Periodic {
			if o, ok := spec[e.Opposite()]; !ok || o.Kind != Periodic {
				return nil, dynamo.Configf("boundary."+e.String(), "periodic edge must be paired with a periodic %s edge", e.Opposite())
			}
		}
		h.conds[e] = &c
	}
	return h, nil
}

func validate(g *grid.Grid, e grid.Edge, c *Condition) error {
	key := "boundary." + e.String()
	switch c.Kind {
	case Dirichlet, Neumann, Wall, Periodic:
	case Sponge:
		if c.Width < 1 || c.Width > g.Points(e.Axis()) {
			return dynamo.Configf(key+".width", "sponge width %d outside [1, %d]", c.Width, g.Points(e.Axis()))
		}
		if c.Strength == 0 {
			c.Strength = 1
		}
		if c.Strength < 0 || c.Strength > 1 {
			return dynamo.Configf(key+".strength", "sponge strength %g outside (0, 1]", c.Strength)
		}
	default:
		return dynamo.Configf(key+".type", "unknown boundary kind %s", c.Kind)
	}
	return nil
}

// Condition returns the condition assigned to e.
func (h *Handler) Condition(e grid.Edge) (Condition, bool) {
	if e < grid.West || e > grid.North || h.conds[e] == nil {
		return Condition{}, false
	}
	return *h.conds[e], true
}

// Periodic reports whether both edges of axis wrap.
func (h *Handler) Periodic(axis int) bool {
	c := h.conds[grid.Edge(2*axis)]
	return c != nil && c.Kind == Periodic
}

// Apply returns a copy of s with every edge condition enforced at time t.
func (h *Handler) Apply(s *dynamo.State, t float64) (*dynamo.State, error) {
	names := s.Names()
	if err := h.g.CheckState(s, names...); err != nil {
		return nil, err
	}
	out := s.Clone()
	for _, e := range h.g.Edges() {
		c := h.conds[e]
		for _, n := range names {
			h.applyField(*c, e, n, out.Field(n).Data, t)
		}
	}
	return out, nil
}

func (h *Handler) applyField(c Condition, e grid.Edge, name string, data []float64, t float64) {
	edge := h.g.Layer(e, 0)
	adj := h.g.Layer(e, 1)

	switch c.Kind {
	case Dirichlet:
		if !c.applies(name) {
			copyInto(data, edge, adj)
			return
		}
		v := c.value(t)
		for _, k := range edge {
			data[k] = v
		}

	case Neumann:
		step := c.Gradient * h.g.Spacing(e.Axis())
		for m, k := range edge {
			data[k] = data[adj[m]] + step
		}

	case Wall:
		switch name {
		case h.velocity[e.Axis()]:
			for _, k := range edge {
				data[k] = 0
			}
		case h.velocity[1-e.Axis()]:
			// tangential component slips freely
		default:
			copyInto(data, edge, adj)
		}

	case Sponge:
		if !c.applies(name) {
			return
		}
		for d := 0; d < c.Width; d++ {
			m := c.damping(d)
			for _, k := range h.g.Layer(e, d) {
				data[k] = c.Value + (data[k]-c.Value)*m
			}
		}

	case Periodic:
		copyInto(data, edge, h.g.Layer(e.Opposite(), 1))
	}
}

func copyInto(data []float64, dst, src []int) {
	for m, k := range dst {
		data[k] = data[src[m]]
	}
}
