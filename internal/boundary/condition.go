package boundary

import (
	"fmt"
	"strings"

	"github.com/san-kum/coastal/internal/dynamo"
)

// Kind enumerates the boundary-condition variants.
type Kind int

const (
	Dirichlet Kind = iota
	Neumann
	Wall
	Sponge
	Periodic
)

var kindNames = [...]string{"dirichlet", "neumann", "wall", "sponge", "periodic"}

func (k Kind) String() string {
	if k < Dirichlet || k > Periodic {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dirichlet", "fixed":
		return Dirichlet, nil
	case "neumann", "free", "open":
		return Neumann, nil
	case "wall", "reflective", "reflect":
		return Wall, nil
	case "sponge", "absorbing":
		return Sponge, nil
	case "periodic":
		return Periodic, nil
	}
	return 0, dynamo.Configf("boundary.type", "unknown boundary type %q", s)
}

// Source supplies a time-varying boundary value, e.g. a synthesized wave
// forcing series.
type Source interface {
	Value(t float64) float64
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(t float64) float64

func (f SourceFunc) Value(t float64) float64 { return f(t) }

// Condition is one boundary variant. Only the fields relevant to Kind are
// read.
type Condition struct {
	Kind Kind

	// Value is the Dirichlet constant and the Sponge reference state.
	Value float64
	// Source overrides Value for time-varying Dirichlet edges.
	Source Source
	// Gradient is the Neumann target for the outward normal derivative.
	Gradient float64
	// Width is the Sponge layer thickness in points.
	Width int
	// Strength is the Sponge damping at the edge itself, in (0, 1].
	Strength float64
	// Fields restricts Dirichlet and Sponge to the named fields. Empty
	// means every field.
	Fields []string
}

func Fixed(v float64, fields ...string) Condition {
	return Condition{Kind: Dirichlet, Value: v, Fields: fields}
}

func Driven(src Source, fields ...string) Condition {
	return Condition{Kind: Dirichlet, Source: src, Fields: fields}
}

func Free() Condition { return Condition{Kind: Neumann} }

func Flux(gradient float64) Condition { return Condition{Kind: Neumann, Gradient: gradient} }

func Reflective() Condition { return Condition{Kind: Wall} }

func Absorbing(width int, strength float64, fields ...string) Condition {
	return Condition{Kind: Sponge, Width: width, Strength: strength, Fields: fields}
}

func Wrap() Condition { return Condition{Kind: Periodic} }

func (c Condition) value(t float64) float64 {
	if c.Source != nil {
		return c.Source.Value(t)
	}
	return c.Value
}

func (c Condition) applies(name string) bool {
	if len(c.Fields) == 0 {
		return true
	}
	for _, f := range c.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// damping is the sponge multiplier at distance d from the edge. It rises
// smoothly from 1-Strength at the edge to 1 at the inner end of the layer.
func (c Condition) damping(d int) float64 {
	r := float64(c.Width-d) / float64(c.Width)
	return 1 - c.Strength*r*r
}
