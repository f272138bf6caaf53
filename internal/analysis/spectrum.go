package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/coastal/internal/dynamo"
)

// Spectrum is a one-sided density on an evenly spaced frequency axis.
type Spectrum struct {
	Freqs   []float64
	Density []float64
	Df      float64
}

// PowerSpectrum removes the mean and returns the periodogram scaled so
// that sum(Density) * Df equals the record variance.
func PowerSpectrum(x []float64, dt float64) (*Spectrum, error) {
	n := len(x)
	if n < 2 {
		return nil, dynamo.Configf("analysis.samples", "need at least 2 samples, got %d", n)
	}
	if !(dt > 0) {
		return nil, dynamo.Configf("analysis.dt", "must be positive, got %g", dt)
	}
	mean := stat.Mean(x, nil)
	centred := make([]float64, n)
	for i, v := range x {
		centred[i] = v - mean
	}
	X := fft.FFTReal(centred)

	df := 1 / (float64(n) * dt)
	half := n / 2
	sp := &Spectrum{Freqs: make([]float64, half), Density: make([]float64, half), Df: df}
	norm := 1 / (float64(n) * float64(n) * df)
	for k := 1; k <= half; k++ {
		p := cmplx.Abs(X[k])
		p *= p * norm
		if 2*k != n {
			p *= 2
		}
		sp.Freqs[k-1] = float64(k) * df
		sp.Density[k-1] = p
	}
	return sp, nil
}

// Moment returns the n-th spectral moment sum(f^n S(f)) df.
func Moment(sp *Spectrum, n int) float64 {
	m := 0.0
	for i, f := range sp.Freqs {
		m += math.Pow(f, float64(n)) * sp.Density[i]
	}
	return m * sp.Df
}

// Hm0 is the spectral significant wave height 4 sqrt(m0).
func Hm0(sp *Spectrum) float64 { return 4 * math.Sqrt(Moment(sp, 0)) }

// MeanPeriod is Tm01 = m0 / m1.
func MeanPeriod(sp *Spectrum) float64 {
	m1 := Moment(sp, 1)
	if m1 == 0 {
		return 0
	}
	return Moment(sp, 0) / m1
}

func PeakFrequency(sp *Spectrum) float64 {
	best, fp := -1.0, 0.0
	for i, s := range sp.Density {
		if s > best {
			best, fp = s, sp.Freqs[i]
		}
	}
	return fp
}
