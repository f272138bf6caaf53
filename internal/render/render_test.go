package render

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/coastal/internal/analysis"
	"github.com/san-kum/coastal/internal/dynamo"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func checkPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("%s is not a png", filepath.Base(path))
	}
}

func wave(n int) ([]float64, []float64) {
	x, y := make([]float64, n), make([]float64, n)
	for i := range x {
		x[i] = 0.1 * float64(i)
		y[i] = math.Sin(x[i])
	}
	return x, y
}

func TestGaugePNG(t *testing.T) {
	times, eta := wave(50)
	u := make([]float64, len(eta))
	for i := range u {
		u[i] = -eta[i]
	}
	path := filepath.Join(t.TempDir(), "gauge.png")
	if err := GaugePNG(path, "gauge", times, map[string][]float64{"eta": eta, "u": u}); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, path)
}

func TestProfileAndSpectrumPNG(t *testing.T) {
	dir := t.TempDir()
	x, y := wave(64)
	f, err := dynamo.FieldFrom(len(y), 1, y)
	if err != nil {
		t.Fatal(err)
	}
	if err := ProfilePNG(filepath.Join(dir, "profile.png"), "eta", x, f, "eta"); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, filepath.Join(dir, "profile.png"))

	sp, err := analysis.PowerSpectrum(y, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if err := SpectrumPNG(filepath.Join(dir, "spectrum.png"), "spectrum", sp); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, filepath.Join(dir, "spectrum.png"))
}

func TestPlanPNG(t *testing.T) {
	f := dynamo.NewField(4, 3)
	for k := range f.Data {
		f.Data[k] = float64(k)
	}
	path := filepath.Join(t.TempDir(), "plan.png")
	if err := PlanPNG(path, "plan", f, []float64{0, 1, 2, 3}, []float64{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, path)

	if err := PlanPNG(path, "plan", f, []float64{0, 1}, []float64{0, 1, 2}); err == nil {
		t.Error("expected error for mismatched axes")
	}
	if err := PlanPNG(path, "plan", dynamo.NewField(4, 1), []float64{0, 1, 2, 3}, []float64{0}); err == nil {
		t.Error("expected error for a 1D field")
	}
}

func TestLinesErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	tests := []struct {
		name   string
		series []Series
	}{
		{"none", nil},
		{"mismatched", []Series{{Label: "a", X: []float64{0, 1}, Y: []float64{0}}}},
		{"short", []Series{{Label: "a", X: []float64{0}, Y: []float64{0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Lines(path, "t", "x", "y", tt.series...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
