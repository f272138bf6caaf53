package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/cdf"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/sim"
	"github.com/san-kum/coastal/internal/viz"
)

// history builds three records of eta = n + k and u = -(n + k) on a 3x2
// grid.
func history(t *testing.T) *sim.History {
	t.Helper()
	g, err := grid.New2D(3, 2, 0.5, 2)
	if err != nil {
		t.Fatal(err)
	}
	h := &sim.History{
		Grid:       g,
		Config:     sim.Config{Dt: 0.1, EndTime: 0.2, Scheme: "rk4"},
		Dt:         0.1,
		StepsTaken: 2,
		Status:     sim.Idle,
		Metrics:    map[string]float64{"peak_eta": 7},
	}
	for n := 0; n < 3; n++ {
		eta, u := g.NewField(), g.NewField()
		for k := range eta.Data {
			eta.Data[k] = float64(n + k)
			u.Data[k] = -float64(n + k)
		}
		h.Times = append(h.Times, 0.1*float64(n))
		h.States = append(h.States, dynamo.NewState().Set("eta", eta).Set("u", u))
	}
	return h
}

func TestNetCDFRoundTrip(t *testing.T) {
	hist := history(t)
	path := filepath.Join(t.TempDir(), "history.nc")
	if err := WriteNetCDF(path, hist, map[string]string{"physics": "shallow_water"}); err != nil {
		t.Fatal(err)
	}
	d, err := ReadNetCDF(path)
	if err != nil {
		t.Fatal(err)
	}

	if d.Nx != 3 || d.Ny != 2 {
		t.Errorf("shape = %dx%d, want 3x2", d.Nx, d.Ny)
	}
	if !reflect.DeepEqual(d.Times, hist.Times) {
		t.Errorf("times = %v, want %v", d.Times, hist.Times)
	}
	if !reflect.DeepEqual(d.X, []float64{0, 0.5, 1}) || !reflect.DeepEqual(d.Y, []float64{0, 2}) {
		t.Errorf("coords = %v / %v", d.X, d.Y)
	}
	if d.Attrs["physics"] != "shallow_water" {
		t.Errorf("attrs = %v", d.Attrs)
	}
	if !reflect.DeepEqual(d.FieldNames(), []string{"eta", "u"}) {
		t.Errorf("fields = %v", d.FieldNames())
	}

	f, err := d.Record("eta", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f.Data, hist.States[2].Field("eta").Data) {
		t.Errorf("eta[2] = %v", f.Data)
	}
	gauge, err := d.Gauge("u", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gauge, []float64{-4, -5, -6}) {
		t.Errorf("gauge = %v, want [-4 -5 -6]", gauge)
	}

	if _, err := d.Gauge("u", 3, 0); err == nil {
		t.Error("expected error for a point outside the grid")
	}
	if _, err := d.Record("v", 0); err == nil {
		t.Error("expected error for a missing field")
	}
}

func TestNetCDFOneDimensional(t *testing.T) {
	g, err := grid.New1D(4, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	hist := &sim.History{Grid: g, Dt: 0.1}
	for n := 0; n < 2; n++ {
		eta := g.NewField()
		for k := range eta.Data {
			eta.Data[k] = float64(10*n + k)
		}
		hist.Times = append(hist.Times, 0.1*float64(n))
		hist.States = append(hist.States, dynamo.NewState().Set("eta", eta))
	}
	path := filepath.Join(t.TempDir(), "line.nc")
	if err := WriteNetCDF(path, hist, nil); err != nil {
		t.Fatal(err)
	}

	ff, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}
	if dims := f.Header.Dimensions("eta"); !reflect.DeepEqual(dims, []string{"time", "x"}) {
		t.Errorf("eta dimensions = %v, want [time x]", dims)
	}
	for _, v := range f.Header.Variables() {
		if v == "y" {
			t.Error("1D history should have no y variable")
		}
	}

	d, err := ReadNetCDF(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Nx != 4 || d.Ny != 1 || !reflect.DeepEqual(d.X, []float64{0, 0.5, 1, 1.5}) {
		t.Errorf("shape = %dx%d, x = %v", d.Nx, d.Ny, d.X)
	}
	gauge, err := d.Gauge("eta", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gauge, []float64{2, 12}) {
		t.Errorf("gauge = %v, want [2 12]", gauge)
	}
}

func TestNetCDFEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.nc")
	if err := WriteNetCDF(path, &sim.History{}, nil); err == nil {
		t.Error("expected error for an empty history")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewExportData("test", "shallow_water", history(t))); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "test" || got.Scheme != "rk4" || got.Steps != 2 || got.Status != "idle" {
		t.Errorf("header = %+v", got)
	}
	if got.Grid != (GridData{Nx: 3, Ny: 2, Dx: 0.5, Dy: 2}) {
		t.Errorf("grid = %+v", got.Grid)
	}
	if len(got.Fields["eta"]) != 3 || got.Fields["eta"][1][0] != 1 {
		t.Errorf("eta = %v", got.Fields["eta"])
	}
	if got.Metrics["peak_eta"] != 7 {
		t.Errorf("metrics = %v", got.Metrics)
	}
}

func TestProfileToSVG(t *testing.T) {
	svg := ProfileToSVG([]float64{0, 1, 2, 3}, []float64{0, 1, 0, -1}, 300, 100, "#00ccff")
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("not an svg document")
	}
	if n := strings.Count(svg, " L"); n != 3 {
		t.Errorf("segments = %d, want 3", n)
	}
	if !strings.Contains(svg, `d="M0.0,`) || !strings.Contains(svg, " L300.0,") {
		t.Error("profile should span the full width")
	}
	if ProfileToSVG([]float64{0}, []float64{1}, 10, 10, "red") != "" {
		t.Error("single point should give no svg")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2, "#00ff00")
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("dots = %d, want 2", n)
	}
	if CanvasToSVG(nil, 1, "red") != "" {
		t.Error("nil canvas should give no svg")
	}
}
