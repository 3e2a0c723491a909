package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a sequence of samples.
type Stats struct {
	Count      int
	Min        float64
	Max        float64
	Mean       float64
	Variance   float64
	StdDev     float64
	RMS        float64
	PeakToPeak float64
}

// Summarize computes Stats over values. An empty input yields a zero Stats.
func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  stat.Mean(values, nil),
		RMS:   math.Sqrt(floats.Dot(values, values) / float64(len(values))),
	}
	s.PeakToPeak = s.Max - s.Min
	if len(values) > 1 {
		s.Variance = stat.Variance(values, nil)
		s.StdDev = math.Sqrt(s.Variance)
	}
	return s
}

// Bin is one frequency bin of a spectrum.
type Bin struct {
	Frequency float64
	Magnitude float64
	DB        float64
}

// Spectrum returns the single-sided amplitude spectrum of values sampled
// every xIncrement, after removing the mean and applying a Hann window.
func Spectrum(values []float64, xIncrement float64) ([]Bin, error) {
	if len(values) < 2 {
		return nil, errors.New("spectrum needs at least two samples")
	}
	if xIncrement <= 0 || math.IsNaN(xIncrement) || math.IsInf(xIncrement, 0) {
		return nil, errors.New("spectrum needs a positive x increment")
	}

	n := len(values)
	mean := stat.Mean(values, nil)
	windowed := make([]float64, n)
	for i, v := range values {
		windowed[i] = v - mean
	}
	window.Hann(windowed)

	gain := floats.Sum(window.Hann(ones(n)))
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, windowed)

	bins := make([]Bin, len(coeffs))
	for i, c := range coeffs {
		mag := cmplx.Abs(c) / gain
		if i > 0 && !(n%2 == 0 && i == len(coeffs)-1) {
			mag *= 2
		}
		db := math.Inf(-1)
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		bins[i] = Bin{
			Frequency: fft.Freq(i) / xIncrement,
			Magnitude: mag,
			DB:        db,
		}
	}
	return bins, nil
}

// Peak returns the non-DC bin with the largest magnitude.
func Peak(bins []Bin) (Bin, bool) {
	if len(bins) < 2 {
		return Bin{}, false
	}
	best := bins[1]
	for _, b := range bins[2:] {
		if b.Magnitude > best.Magnitude {
			best = b
		}
	}
	return best, true
}

// DecimateIndices picks at most max evenly spaced indices from [0, n),
// always keeping the first and last.
func DecimateIndices(n, max int) []int {
	if n <= 0 || max <= 0 {
		return nil
	}
	if n <= max {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	if max == 1 {
		return []int{0}
	}
	idx := make([]int, max)
	step := float64(n-1) / float64(max-1)
	for i := range idx {
		idx[i] = int(math.Round(float64(i) * step))
	}
	return idx
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}
