package sim

import (
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
)

// History is the ordered (time, state) record of a run.
type History struct {
	Grid       *grid.Grid
	Config     Config
	Dt         float64
	Times      []float64
	States     []*dynamo.State
	StepsTaken int
	Status     Status
	Metrics    map[string]float64
}

func (h *History) Len() int { return len(h.States) }

func (h *History) append(t float64, s *dynamo.State) {
	h.Times = append(h.Times, t)
	h.States = append(h.States, s)
}

// Last returns the final recorded state and its time.
func (h *History) Last() (*dynamo.State, float64) {
	if len(h.States) == 0 {
		return nil, 0
	}
	n := len(h.States) - 1
	return h.States[n], h.Times[n]
}

// Fields lists the field names of the first record.
func (h *History) Fields() []string {
	if len(h.States) == 0 {
		return nil
	}
	return h.States[0].Names()
}

// Gauge extracts the time series of one field at grid point (i, j).
func (h *History) Gauge(field string, i, j int) ([]float64, error) {
	if i < 0 || i >= h.Grid.Nx() || j < 0 || j >= h.Grid.Ny() {
		return nil, dynamo.Configf("output.gauge", "point (%d, %d) outside %s", i, j, h.Grid)
	}
	k := h.Grid.Index(i, j)
	out := make([]float64, len(h.States))
	for n, s := range h.States {
		f := s.Field(field)
		if f == nil {
			return nil, dynamo.Configf("output.field", "no field %q in record %d", field, n)
		}
		out[n] = f.Data[k]
	}
	return out, nil
}

// Series returns one field across all records.
func (h *History) Series(field string) []*dynamo.Field {
	out := make([]*dynamo.Field, 0, len(h.States))
	for _, s := range h.States {
		if f := s.Field(field); f != nil {
			out = append(out, f)
		}
	}
	return out
}
