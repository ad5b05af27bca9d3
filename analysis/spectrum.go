package analysis

import (
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	minFFTSize = 256
	maxFFTSize = 8192
)

// Spectral holds long-term spectrum figures of a signal.
type Spectral struct {
	DominantHz float64 `json:"dominant_hz"`
	CentroidHz float64 `json:"centroid_hz"`
	Frames     int     `json:"frames"`
}

// Spectrum averages Hann-windowed magnitude spectra over x with 50% overlap.
// Signals shorter than minFFTSize yield a zero Spectral.
func Spectrum(x []float64, sampleRate int) (Spectral, error) {
	var s Spectral
	size := fftSizeFor(len(x))
	if size == 0 || sampleRate <= 0 {
		return s, nil
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return s, err
	}

	hann := make([]float64, size)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	buf := make([]float64, size)
	bins := make([]complex128, size/2+1)
	avg := make([]float64, size/2)

	hop := size / 2
	for pos := 0; pos+size <= len(x); pos += hop {
		for i := range buf {
			buf[i] = x[pos+i] * hann[i]
		}
		plan.Forward(bins, buf)
		for k := 1; k < len(avg); k++ {
			avg[k] += cmplx.Abs(bins[k])
		}
		s.Frames++
	}

	binHz := float64(sampleRate) / float64(size)
	peak := 0
	var wsum, sum float64
	for k := 1; k < len(avg); k++ {
		if avg[k] > avg[peak] {
			peak = k
		}
		wsum += float64(k) * binHz * avg[k]
		sum += avg[k]
	}
	if sum <= 1e-12 {
		return Spectral{Frames: s.Frames}, nil
	}
	s.CentroidHz = wsum / sum
	s.DominantHz = (float64(peak) + parabolicOffset(avg, peak)) * binHz
	return s, nil
}

// parabolicOffset refines a peak bin using its neighbours' log magnitudes.
func parabolicOffset(mag []float64, k int) float64 {
	if k <= 0 || k >= len(mag)-1 {
		return 0
	}
	a, b, c := linToDB(mag[k-1]), linToDB(mag[k]), linToDB(mag[k+1])
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	return 0.5 * (a - c) / den
}

func fftSizeFor(n int) int {
	if n < minFFTSize {
		return 0
	}
	size := minFFTSize
	for size*2 <= n && size*2 <= maxFFTSize {
		size *= 2
	}
	return size
}
