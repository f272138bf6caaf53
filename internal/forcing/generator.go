package forcing

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/coastal/internal/dynamo"
)

// Params describes one synthesis.
type Params struct {
	Spectrum
	Duration float64
	Dt       float64
	// Components fixes the number of frequencies. Zero selects harmonic
	// spacing df = 1/Duration, which keeps components orthogonal over the
	// sampled record.
	Components int
	// FMin and FMax bound the band. Zero selects 0.5 fp and
	// min(4 fp, Nyquist).
	FMin, FMax float64
}

func (p Params) Validate() error {
	if err := p.Spectrum.Validate(); err != nil {
		return err
	}
	if !(p.Duration > 0) {
		return dynamo.Configf("forcing.duration", "must be positive, got %g", p.Duration)
	}
	if !(p.Dt > 0) || p.Dt >= p.Duration {
		return dynamo.Configf("forcing.dt", "must be in (0, duration), got %g", p.Dt)
	}
	if p.Components < 0 {
		return dynamo.Configf("forcing.components", "must be non-negative, got %d", p.Components)
	}
	return nil
}

func (p Params) band() (lo, hi float64) {
	fp := p.PeakFrequency()
	lo, hi = p.FMin, p.FMax
	if lo <= 0 {
		lo = 0.5 * fp
	}
	if hi <= 0 {
		hi = math.Min(4*fp, 0.5/p.Dt)
	}
	return lo, hi
}

// frequencies returns the component frequencies and the resolution.
func (p Params) frequencies() ([]float64, float64, error) {
	lo, hi := p.band()
	if !(hi > lo) {
		return nil, 0, dynamo.Configf("forcing.fmax", "band [%g, %g] Hz is empty", lo, hi)
	}
	if p.Components > 0 {
		df := (hi - lo) / float64(p.Components)
		f := make([]float64, p.Components)
		for i := range f {
			f[i] = lo + (float64(i)+0.5)*df
		}
		return f, df, nil
	}

	df := 1 / p.Duration
	first := int(math.Ceil(lo/df - 1e-9))
	if first < 1 {
		first = 1
	}
	last := int(math.Floor(hi/df + 1e-9))
	if last < first {
		return nil, 0, dynamo.Configf("forcing.duration", "record of %gs resolves no frequency in [%g, %g] Hz", p.Duration, lo, hi)
	}
	f := make([]float64, 0, last-first+1)
	for k := first; k <= last; k++ {
		f = append(f, float64(k)*df)
	}
	return f, df, nil
}

// Component is one cosine of the synthesized series.
type Component struct {
	Frequency float64 // Hz
	Amplitude float64 // m
	Phase     float64 // rad
}

// Series is a synthesized elevation record sampled at Dt.
type Series struct {
	Spectrum   Spectrum
	Components []Component
	Dt         float64
	Values     []float64
}

// Generate discretizes the spectrum, draws one uniform phase per
// frequency from rng and sums the cosines. The discrete spectrum is scaled
// so its zeroth moment is Hs^2/16 over the band.
func Generate(p Params, rng *rand.Rand) (*Series, error) {
	if rng == nil {
		return nil, dynamo.Configf("forcing.seed", "a seeded random source is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	freqs, df, err := p.frequencies()
	if err != nil {
		return nil, err
	}

	density := make([]float64, len(freqs))
	for i, f := range freqs {
		density[i] = p.Density(f)
	}
	m0 := floats.Sum(density) * df
	if !(m0 > 0) {
		return nil, dynamo.Configf("forcing.fmin", "spectrum has no energy in the selected band")
	}
	floats.Scale(p.Hs*p.Hs/16/m0, density)

	s := &Series{Spectrum: p.Spectrum, Dt: p.Dt, Components: make([]Component, len(freqs))}
	for i, f := range freqs {
		s.Components[i] = Component{
			Frequency: f,
			Amplitude: math.Sqrt(2 * density[i] * df),
			Phase:     2 * math.Pi * rng.Float64(),
		}
	}

	n := int(math.Round(p.Duration / p.Dt))
	s.Values = make([]float64, n)
	for k := range s.Values {
		s.Values[k] = s.Value(float64(k) * p.Dt)
	}
	return s, nil
}

// Value evaluates the cosine sum at an arbitrary time, so a Series can
// drive a boundary directly.
func (s *Series) Value(t float64) float64 {
	v := 0.0
	for _, c := range s.Components {
		v += c.Amplitude * math.Cos(2*math.Pi*c.Frequency*t+c.Phase)
	}
	return v
}

func (s *Series) Times() []float64 {
	t := make([]float64, len(s.Values))
	for k := range t {
		t[k] = float64(k) * s.Dt
	}
	return t
}

// Variance is the population variance of the sampled values.
func (s *Series) Variance() float64 {
	_, v := stat.PopMeanVariance(s.Values, nil)
	return v
}

// TheoreticalVariance is sum(a^2)/2, the variance the components carry.
func (s *Series) TheoreticalVariance() float64 {
	v := 0.0
	for _, c := range s.Components {
		v += c.Amplitude * c.Amplitude / 2
	}
	return v
}

// Hm0 is the spectral significant height 4 sqrt(m0) of the samples.
func (s *Series) Hm0() float64 { return 4 * math.Sqrt(s.Variance()) }
