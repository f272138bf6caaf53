package metrics

import (
	"math"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
)

// Volume tracks the largest absolute change of sum(field) dA. Rows on the
// listed ghost edges (periodic copies) are left out of the sum.
type Volume struct {
	field   string
	area    float64
	weights []float64
	initial float64
	drift   float64
	samples int
}

func NewVolume(g *grid.Grid, field string, ghost ...grid.Edge) *Volume {
	w := make([]float64, g.Size())
	for k := range w {
		w[k] = 1
	}
	for _, e := range ghost {
		for _, k := range g.EdgeIndices(e) {
			w[k] = 0
		}
	}
	return &Volume{field: field, area: g.CellArea(), weights: w}
}

func (v *Volume) Name() string { return "volume_drift" }

// Total returns the weighted volume of s.
func (v *Volume) Total(s *dynamo.State) float64 {
	f := s.Field(v.field)
	if f == nil {
		return 0
	}
	sum := 0.0
	for k, x := range f.Data {
		sum += v.weights[k] * x
	}
	return sum * v.area
}

func (v *Volume) Observe(s *dynamo.State, _ float64) {
	total := v.Total(s)
	if v.samples == 0 {
		v.initial = total
	}
	v.samples++
	v.drift = math.Max(v.drift, math.Abs(total-v.initial))
}

func (v *Volume) Value() float64 { return v.drift }

func (v *Volume) Reset() {
	v.initial, v.drift, v.samples = 0, 0, 0
}
