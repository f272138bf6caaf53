// Package forcing synthesizes random-phase wave elevation series from a
// parametric frequency spectrum.
//
// Phases come from an explicitly passed *rand.Rand; there is no package
// level random state, so a fixed seed always yields the same series.
package forcing

import (
	"math"
	"strings"

	"github.com/san-kum/coastal/internal/dynamo"
)

type Kind int

const (
	PiersonMoskowitz Kind = iota
	JONSWAP
)

func (k Kind) String() string {
	if k == JONSWAP {
		return "jonswap"
	}
	return "pm"
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pm", "pierson-moskowitz", "pierson_moskowitz":
		return PiersonMoskowitz, nil
	case "jonswap":
		return JONSWAP, nil
	}
	return 0, dynamo.Configf("forcing.type", "unknown spectrum %q (want pm or jonswap)", s)
}

// DefaultGamma is the JONSWAP peak enhancement of the North Sea fit.
const DefaultGamma = 3.3

// Spectrum is a one-sided frequency spectrum S(f) in m^2/Hz.
type Spectrum struct {
	Kind  Kind
	Hs    float64 // significant wave height [m]
	Tp    float64 // peak period [s]
	Gamma float64 // JONSWAP peak enhancement
}

func (s Spectrum) Validate() error {
	if !(s.Hs > 0) {
		return dynamo.Configf("forcing.Hs", "must be positive, got %g", s.Hs)
	}
	if !(s.Tp > 0) {
		return dynamo.Configf("forcing.Tp", "must be positive, got %g", s.Tp)
	}
	if s.Kind == JONSWAP && !(s.Gamma >= 1) {
		return dynamo.Configf("forcing.gamma", "must be at least 1, got %g", s.Gamma)
	}
	return nil
}

func (s Spectrum) PeakFrequency() float64 { return 1 / s.Tp }

// Density evaluates S(f). Pierson-Moskowitz in its Hs/Tp form,
//
//	S(f) = 5/16 Hs^2 fp^4 f^-5 exp(-5/4 (fp/f)^4)
//
// and JONSWAP as PM times gamma^r with
// r = exp(-(f-fp)^2 / (2 sigma^2 fp^2)), sigma 0.07 below the peak and
// 0.09 above.
func (s Spectrum) Density(f float64) float64 {
	if f <= 0 {
		return 0
	}
	fp := s.PeakFrequency()
	q := fp / f
	pm := 5.0 / 16.0 * s.Hs * s.Hs * math.Pow(fp, 4) * math.Pow(f, -5) * math.Exp(-1.25*q*q*q*q)
	if s.Kind != JONSWAP {
		return pm
	}
	sigma := 0.09
	if f <= fp {
		sigma = 0.07
	}
	r := math.Exp(-(f - fp) * (f - fp) / (2 * sigma * sigma * fp * fp))
	return pm * math.Pow(s.Gamma, r)
}
