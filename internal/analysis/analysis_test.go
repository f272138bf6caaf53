package analysis

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/forcing"
)

func TestPowerSpectrumOfCosine(t *testing.T) {
	n, dt := 128, 0.5
	x := make([]float64, n)
	for i := range x {
		x[i] = 3 + 2*math.Cos(2*math.Pi*8*float64(i)/float64(n)+0.4)
	}
	sp, err := PowerSpectrum(x, dt)
	if err != nil {
		t.Fatal(err)
	}
	if len(sp.Freqs) != n/2 {
		t.Fatalf("bins = %d, want %d", len(sp.Freqs), n/2)
	}
	if got := PeakFrequency(sp); math.Abs(got-0.125) > 1e-12 {
		t.Errorf("peak = %g, want 0.125", got)
	}
	if got := Moment(sp, 0); math.Abs(got-2) > 1e-9 {
		t.Errorf("m0 = %g, want 2", got)
	}
	if got := Hm0(sp); math.Abs(got-4*math.Sqrt(2)) > 1e-8 {
		t.Errorf("Hm0 = %g", got)
	}
	if got := MeanPeriod(sp); math.Abs(got-8) > 1e-6 {
		t.Errorf("Tm01 = %g, want 8", got)
	}
}

func TestParseval(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, n := range []int{64, 100, 257} {
		x := make([]float64, n)
		for i := range x {
			x[i] = rng.NormFloat64()
		}
		sp, err := PowerSpectrum(x, 0.2)
		if err != nil {
			t.Fatal(err)
		}
		_, variance := stat.PopMeanVariance(x, nil)
		if got := Moment(sp, 0); math.Abs(got-variance) > 1e-9*variance {
			t.Errorf("n=%d: m0 = %.12f, variance = %.12f", n, got, variance)
		}
	}
}

func TestForcingHeightRecovered(t *testing.T) {
	s, err := forcing.Generate(forcing.Params{
		Spectrum: forcing.Spectrum{Kind: forcing.JONSWAP, Hs: 0.5, Tp: 3, Gamma: 3.3},
		Duration: 60,
		Dt:       0.1,
	}, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	sp, err := PowerSpectrum(s.Values, s.Dt)
	if err != nil {
		t.Fatal(err)
	}
	if got := Hm0(sp); math.Abs(got-0.5) > 0.025 {
		t.Errorf("Hm0 = %.4f, want 0.5", got)
	}
	if got := PeakFrequency(sp); math.Abs(got-1.0/3) > 0.1 {
		t.Errorf("peak frequency = %.3f, want near 1/3", got)
	}
}

func TestZeroUpcrossing(t *testing.T) {
	dt := 0.1
	x := make([]float64, 200)
	for i := range x {
		x[i] = math.Sin(2*math.Pi*float64(i)*dt + 0.3)
	}
	waves := ZeroUpcrossing(x, dt)
	if len(waves) < 17 {
		t.Fatalf("waves = %d, want at least 17", len(waves))
	}
	for i, w := range waves {
		if math.Abs(w.Period-1) > 1e-6 {
			t.Errorf("wave %d period = %g, want 1", i, w.Period)
		}
		if math.Abs(w.Height-2) > 0.01 {
			t.Errorf("wave %d height = %g, want 2", i, w.Height)
		}
	}
	if got := SignificantHeight(waves); math.Abs(got-2) > 0.01 {
		t.Errorf("H1/3 = %g", got)
	}
	if ZeroUpcrossing([]float64{1, 2}, dt) != nil || SignificantHeight(nil) != 0 {
		t.Error("short records should yield nothing")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	if s.Mean != 2.5 || s.Min != 1 || s.Max != 4 || s.N != 4 {
		t.Errorf("summary = %+v", s)
	}
	if math.Abs(s.Std-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("std = %g", s.Std)
	}
	if (Summarize(nil) != Summary{}) {
		t.Error("empty summary should be zero")
	}
}

func TestPowerSpectrumErrors(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1}, 1); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("short record: %v", err)
	}
	if _, err := PowerSpectrum([]float64{1, 2, 3}, 0); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("zero dt: %v", err)
	}
}
