// Package analysis provides spectral and statistical tools for elevation
// records such as synthesized forcing or gauge series.
//
//   - [PowerSpectrum]: one-sided spectral density via FFT
//   - [Moment], [Hm0], [PeakFrequency]: spectral wave parameters
//   - [ZeroUpcrossing]: individual waves and H1/3 in the time domain
//   - [Summarize]: mean, spread and extremes
//
// # Spectral height
//
// Hm0 = 4 sqrt(m0) matches the significant wave height of the generator:
//
//	sp, _ := analysis.PowerSpectrum(series, dt)
//	hs := analysis.Hm0(sp)
package analysis
