// Package stats accumulates peak and RMS levels over a stream of audio
// blocks without retaining samples.
package stats

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-render/buffer"
)

// DefaultSilenceThreshold is the peak level below which a render is
// considered silent.
const DefaultSilenceThreshold = 0.001

// Stats holds running per-channel levels. RMS fields are valid only after
// Finalize.
type Stats struct {
	PeakL float64 `json:"peak_l"`
	PeakR float64 `json:"peak_r"`
	RMSL  float64 `json:"rms_l"`
	RMSR  float64 `json:"rms_r"`

	SumSquaresL float64 `json:"-"`
	SumSquaresR float64 `json:"-"`
	Samples     int64   `json:"samples"`
}

// Reset zeroes all accumulators.
func (s *Stats) Reset() {
	*s = Stats{}
}

// Update folds one block into the accumulators. Channel 0 feeds the left
// side; channel 1, when present, feeds the right side. Mono blocks copy the
// left accumulators into the right. Samples grows by the frame count once.
func (s *Stats) Update(b *buffer.Block) {
	frames := b.Frames()
	if b.Channels() == 0 || frames == 0 {
		return
	}

	s.PeakL, s.SumSquaresL = accumulate(b.Channel(0), s.PeakL, s.SumSquaresL)
	if b.Channels() >= 2 {
		s.PeakR, s.SumSquaresR = accumulate(b.Channel(1), s.PeakR, s.SumSquaresR)
	} else {
		s.PeakR = s.PeakL
		s.SumSquaresR = s.SumSquaresL
	}
	s.Samples += int64(frames)
}

func accumulate(samples []float32, peak float64, sum float64) (float64, float64) {
	for _, x := range samples {
		v := math.Abs(float64(x))
		if v > peak {
			peak = v
		}
		sum += v * v
	}
	return peak, sum
}

// Finalize computes RMS from the accumulated sums. It leaves RMS at zero when
// nothing was accumulated and is idempotent.
func (s *Stats) Finalize() {
	if s.Samples <= 0 {
		return
	}
	n := float64(s.Samples)
	s.RMSL = math.Sqrt(s.SumSquaresL / n)
	s.RMSR = math.Sqrt(s.SumSquaresR / n)
}

// Silent reports whether both peaks are below threshold.
func (s Stats) Silent(threshold float64) bool {
	return s.PeakL < threshold && s.PeakR < threshold
}

// PeakDBFS returns the louder channel peak in dBFS.
func (s Stats) PeakDBFS() float64 {
	return ToDBFS(math.Max(s.PeakL, s.PeakR))
}

// RMSDBFS returns the louder channel RMS in dBFS.
func (s Stats) RMSDBFS() float64 {
	return ToDBFS(math.Max(s.RMSL, s.RMSR))
}

func (s Stats) String() string {
	return fmt.Sprintf("peak L/R %.3f/%.3f rms L/R %.3f/%.3f (%d frames)", s.PeakL, s.PeakR, s.RMSL, s.RMSR, s.Samples)
}

// ToDBFS converts a linear amplitude to dBFS, flooring at -240 dB.
func ToDBFS(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
