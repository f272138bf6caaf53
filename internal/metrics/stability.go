package metrics

import (
	"math"

	"github.com/san-kum/coastal/internal/dynamo"
)

// Stability is the fraction of observed states whose largest magnitude
// stays within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x *dynamo.State, _ float64) {
	s.samples++
	if x.MaxAbs() > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Peak records the largest magnitude of one field.
type Peak struct {
	field string
	max   float64
}

func NewPeak(field string) *Peak { return &Peak{field: field} }

func (p *Peak) Name() string { return "peak_" + p.field }

func (p *Peak) Observe(x *dynamo.State, _ float64) {
	if f := x.Field(p.field); f != nil {
		p.max = math.Max(p.max, f.MaxAbs())
	}
}

func (p *Peak) Value() float64 { return p.max }

func (p *Peak) Reset() { p.max = 0 }
