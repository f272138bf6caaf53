package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Wave is one zero-upcrossing wave.
type Wave struct {
	Start  float64
	Period float64
	Height float64
}

// ZeroUpcrossing splits a record about its mean into individual waves.
// Crossing times are linearly interpolated between samples.
func ZeroUpcrossing(x []float64, dt float64) []Wave {
	if len(x) < 3 {
		return nil
	}
	mean := stat.Mean(x, nil)
	var ups []int
	var times []float64
	for i := 1; i < len(x); i++ {
		a, b := x[i-1]-mean, x[i]-mean
		if a < 0 && b >= 0 {
			ups = append(ups, i)
			times = append(times, (float64(i-1)+a/(a-b))*dt)
		}
	}
	waves := make([]Wave, 0, len(ups))
	for w := 1; w < len(ups); w++ {
		seg := x[ups[w-1]:ups[w]]
		waves = append(waves, Wave{
			Start:  times[w-1],
			Period: times[w] - times[w-1],
			Height: floats.Max(seg) - floats.Min(seg),
		})
	}
	return waves
}

// SignificantHeight is H1/3, the mean height of the highest third.
func SignificantHeight(waves []Wave) float64 {
	if len(waves) == 0 {
		return 0
	}
	h := make([]float64, len(waves))
	for i, w := range waves {
		h[i] = w.Height
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(h)))
	n := int(math.Max(1, math.Round(float64(len(h))/3)))
	return stat.Mean(h[:n], nil)
}

// Summary describes a record.
type Summary struct {
	Mean, Std, Min, Max float64
	N                   int
}

func Summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	return Summary{Mean: mean, Std: math.Sqrt(variance), Min: floats.Min(x), Max: floats.Max(x), N: len(x)}
}
