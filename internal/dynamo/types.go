package dynamo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Field is a dense scalar array co-located with grid points.
type Field struct {
	Nx, Ny int
	Data   []float64
}

func NewField(nx, ny int) *Field {
	if ny < 1 {
		ny = 1
	}
	return &Field{Nx: nx, Ny: ny, Data: make([]float64, nx*ny)}
}

// FieldFrom copies data into a new field of the given shape.
func FieldFrom(nx, ny int, data []float64) (*Field, error) {
	f := NewField(nx, ny)
	if len(data) != len(f.Data) {
		return nil, &ShapeError{Want: [2]int{nx, f.Ny}, Got: [2]int{len(data), 1}}
	}
	copy(f.Data, data)
	return f, nil
}

func (f *Field) Shape() [2]int { return [2]int{f.Nx, f.Ny} }

func (f *Field) At(i, j int) float64 { return f.Data[j*f.Nx+i] }

func (f *Field) Set(i, j int, v float64) { f.Data[j*f.Nx+i] = v }

func (f *Field) Clone() *Field {
	c := &Field{Nx: f.Nx, Ny: f.Ny, Data: make([]float64, len(f.Data))}
	copy(c.Data, f.Data)
	return c
}

func (f *Field) SameShape(g *Field) bool {
	return g != nil && f.Nx == g.Nx && f.Ny == g.Ny && len(f.Data) == len(g.Data)
}

func (f *Field) Fill(v float64) *Field {
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

func (f *Field) IsFinite() bool {
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (f *Field) Sum() float64 { return floats.Sum(f.Data) }

func (f *Field) MaxAbs() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(f.Data)), math.Abs(floats.Min(f.Data)))
}

// Row returns row j without copying.
func (f *Field) Row(j int) []float64 { return f.Data[j*f.Nx : (j+1)*f.Nx] }

// Matrix returns an Ny x Nx view sharing the field's storage.
func (f *Field) Matrix() *mat.Dense { return mat.NewDense(f.Ny, f.Nx, f.Data) }

// Scaled returns a*f as a new field.
func (f *Field) Scaled(a float64) *Field {
	c := &Field{Nx: f.Nx, Ny: f.Ny, Data: make([]float64, len(f.Data))}
	floats.ScaleTo(c.Data, a, f.Data)
	return c
}

// Combine returns a*f + b*g as a new field.
func (f *Field) Combine(a float64, b float64, g *Field) (*Field, error) {
	if !f.SameShape(g) {
		return nil, &ShapeError{Want: f.Shape(), Got: g.Shape()}
	}
	c := f.Scaled(a)
	floats.AddScaled(c.Data, b, g.Data)
	return c, nil
}

// VectorField holds per-axis components. Y is nil on one dimensional grids.
type VectorField struct {
	X, Y *Field
}

func (v VectorField) Components() []*Field {
	if v.Y == nil {
		return []*Field{v.X}
	}
	return []*Field{v.X, v.Y}
}

// State is the named set of fields describing the unknowns at one instant.
type State struct {
	fields map[string]*Field
}

func NewState() *State {
	return &State{fields: make(map[string]*Field)}
}

// Set stores f under name and returns s for chaining.
func (s *State) Set(name string, f *Field) *State {
	s.fields[name] = f
	return s
}

// Field returns the named field or nil.
func (s *State) Field(name string) *Field { return s.fields[name] }

func (s *State) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

func (s *State) Len() int { return len(s.fields) }

// Names returns field names in sorted order so iteration is reproducible.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.fields))
	for n := range s.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *State) Clone() *State {
	c := &State{fields: make(map[string]*Field, len(s.fields))}
	for n, f := range s.fields {
		c.fields[n] = f.Clone()
	}
	return c
}

// Zero returns a state with the same fields as s, all values zero.
func (s *State) Zero() *State {
	c := &State{fields: make(map[string]*Field, len(s.fields))}
	for n, f := range s.fields {
		c.fields[n] = NewField(f.Nx, f.Ny)
	}
	return c
}

// AddScaled returns s + alpha*d. Fields of s absent from d are copied
// unchanged; fields of d absent from s are an error.
func (s *State) AddScaled(alpha float64, d *State) (*State, error) {
	out := s.Clone()
	for _, n := range d.Names() {
		dst, ok := out.fields[n]
		if !ok {
			return nil, Configf("state."+n, "derivative has no matching state field")
		}
		src := d.fields[n]
		if !dst.SameShape(src) {
			return nil, &ShapeError{Name: n, Want: dst.Shape(), Got: src.Shape()}
		}
		floats.AddScaled(dst.Data, alpha, src.Data)
	}
	return out, nil
}

// CheckFinite reports the first field (in name order) holding NaN or Inf.
func (s *State) CheckFinite() (string, bool) {
	for _, n := range s.Names() {
		if !s.fields[n].IsFinite() {
			return n, false
		}
	}
	return "", true
}

// MaxAbs returns the largest magnitude over all fields.
func (s *State) MaxAbs() float64 {
	m := 0.0
	for _, f := range s.fields {
		m = math.Max(m, f.MaxAbs())
	}
	return m
}
