// Package export writes run histories to interchange formats: netCDF for
// gridded fields, JSON for small runs and SVG for quick-look profiles.
//
// A netCDF history has one dimension for time and one per grid axis:
// (time, x) on 1D grids and (time, y, x) on 2D grids.
package export

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/ctessum/cdf"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/sim"
)

// Dataset is a gridded history read back from a netCDF file.
type Dataset struct {
	Nx, Ny int
	X, Y   []float64
	Times  []float64
	// Fields holds one row-major slab per record.
	Fields map[string][][]float64
	Attrs  map[string]string
}

// WriteNetCDF stores every recorded field as a float64 variable over time
// and the grid axes. attrs become global attributes.
func WriteNetCDF(path string, hist *sim.History, attrs map[string]string) error {
	if hist == nil || hist.Len() == 0 {
		return fmt.Errorf("export: empty history")
	}
	g := hist.Grid
	nt, ny, nx := hist.Len(), g.Ny(), g.Nx()
	fields := hist.Fields()

	dims, lens := []string{"time", "y", "x"}, []int{nt, ny, nx}
	if g.Dims() == 1 {
		dims, lens = []string{"time", "x"}, []int{nt, nx}
	}
	h := cdf.NewHeader(dims, lens)
	h.AddAttribute("", "comment", "coastal engine history")
	h.AddAttribute("", "dt", []float64{hist.Dt})
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.AddAttribute("", k, attrs[k])
	}

	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "s")
	h.AddVariable("x", []string{"x"}, []float64{0})
	h.AddAttribute("x", "units", "m")
	if g.Dims() == 2 {
		h.AddVariable("y", []string{"y"}, []float64{0})
		h.AddAttribute("y", "units", "m")
	}
	for _, name := range fields {
		h.AddVariable(name, dims, []float64{0})
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("netcdf header: %v", errs[0])
	}

	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("creating netcdf file: %v", err)
	}

	if err := writeVar(f, "time", hist.Times); err != nil {
		return err
	}
	if err := writeVar(f, "x", g.Coords(0)); err != nil {
		return err
	}
	if g.Dims() == 2 {
		if err := writeVar(f, "y", g.Coords(1)); err != nil {
			return err
		}
	}
	slab := make([]float64, 0, nt*nx*ny)
	for _, name := range fields {
		slab = slab[:0]
		for n, s := range hist.States {
			fld := s.Field(name)
			if fld == nil {
				return fmt.Errorf("record %d has no field %q", n, name)
			}
			slab = append(slab, fld.Data...)
		}
		if err := writeVar(f, name, slab); err != nil {
			return err
		}
	}
	return ff.Sync()
}

func writeVar(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	w := f.Writer(name, make([]int, len(end)), end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing variable %s: %v", name, err)
	}
	return nil
}

// ReadNetCDF loads a file written by WriteNetCDF.
func ReadNetCDF(path string) (*Dataset, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("opening netcdf file: %v", err)
	}

	d := &Dataset{Fields: make(map[string][][]float64), Attrs: make(map[string]string)}
	if d.Times, err = readVar(f, "time"); err != nil {
		return nil, err
	}
	if d.X, err = readVar(f, "x"); err != nil {
		return nil, err
	}
	vars := f.Header.Variables()
	d.Y = []float64{0}
	if slices.Contains(vars, "y") {
		if d.Y, err = readVar(f, "y"); err != nil {
			return nil, err
		}
	}
	d.Nx, d.Ny = len(d.X), len(d.Y)
	rank := 2
	if slices.Contains(vars, "y") {
		rank = 3
	}

	for _, a := range f.Header.Attributes("") {
		if s, ok := f.Header.GetAttribute("", a).(string); ok {
			d.Attrs[a] = s
		}
	}

	size := d.Nx * d.Ny
	for _, v := range vars {
		if dims := f.Header.Dimensions(v); len(dims) != rank || dims[0] != "time" {
			continue
		}
		flat, err := readVar(f, v)
		if err != nil {
			return nil, err
		}
		recs := make([][]float64, len(d.Times))
		for n := range recs {
			recs[n] = flat[n*size : (n+1)*size]
		}
		d.Fields[v] = recs
	}
	return d, nil
}

func readVar(f *cdf.File, name string) ([]float64, error) {
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", name, err)
	}
	data, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("variable %s is %T, want []float64", name, buf)
	}
	return data, nil
}

// FieldNames lists the gridded variables in sorted order.
func (d *Dataset) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for n := range d.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Record returns one field at record n.
func (d *Dataset) Record(field string, n int) (*dynamo.Field, error) {
	recs, ok := d.Fields[field]
	if !ok {
		return nil, dynamo.Configf("output.field", "no field %q in dataset", field)
	}
	if n < 0 || n >= len(recs) {
		return nil, fmt.Errorf("record %d outside [0, %d)", n, len(recs))
	}
	return dynamo.FieldFrom(d.Nx, d.Ny, recs[n])
}

// Gauge extracts the time series of field at point (i, j).
func (d *Dataset) Gauge(field string, i, j int) ([]float64, error) {
	recs, ok := d.Fields[field]
	if !ok {
		return nil, dynamo.Configf("output.field", "no field %q in dataset", field)
	}
	if i < 0 || i >= d.Nx || j < 0 || j >= d.Ny {
		return nil, dynamo.Configf("output.gauge", "point (%d, %d) outside %dx%d grid", i, j, d.Nx, d.Ny)
	}
	out := make([]float64, len(recs))
	for n, r := range recs {
		out[n] = r[j*d.Nx+i]
	}
	return out, nil
}
