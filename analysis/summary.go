// Package analysis inspects rendered audio after the fact.
package analysis

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	envelopeFrameSec = 0.010
	silenceThreshold = 1e-4
)

// Summary describes a rendered mono signal.
type Summary struct {
	Duration       float64   `json:"duration_sec"`
	PeakDBFS       float64   `json:"peak_dbfs"`
	RMSDBFS        float64   `json:"rms_dbfs"`
	LeadingSilence float64   `json:"leading_silence_sec"`
	DecayDBPerSec  float64   `json:"decay_db_per_sec"` // NaN when no decay could be fitted
	Spectral       Spectral  `json:"spectral"`
	Envelope       []float64 `json:"-"`
	EnvelopeHopSec float64   `json:"-"`
}

// Summarize computes level, onset and decay figures for x. Samples are
// expected in [-1,1].
func Summarize(x []float64, sampleRate int) Summary {
	s := Summary{DecayDBPerSec: math.NaN(), PeakDBFS: linToDB(0), RMSDBFS: linToDB(0)}
	if sampleRate <= 0 || len(x) == 0 {
		return s
	}
	s.Duration = float64(len(x)) / float64(sampleRate)

	var peak float64
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	s.PeakDBFS = linToDB(peak)
	s.RMSDBFS = linToDB(rms(x))

	onset := len(x) - len(trimLeadingSilence(x, silenceThreshold))
	s.LeadingSilence = float64(onset) / float64(sampleRate)

	frame := int(envelopeFrameSec * float64(sampleRate))
	if frame < 1 {
		frame = 1
	}
	s.Envelope = rmsEnvelope(x, frame, frame)
	s.EnvelopeHopSec = float64(frame) / float64(sampleRate)
	s.DecayDBPerSec = decayRate(s.Envelope, onset/frame, s.EnvelopeHopSec)
	if sp, err := Spectrum(x[onset:], sampleRate); err == nil {
		s.Spectral = sp
	}
	return s
}

func (s Summary) String() string {
	decay := "n/a"
	if isFinite(s.DecayDBPerSec) {
		decay = fmt.Sprintf("%.1f dB/s", s.DecayDBPerSec)
	}
	return fmt.Sprintf("%.3fs, peak %.1f dBFS, rms %.1f dBFS, onset %.3fs, decay %s, f0 %.1f Hz, centroid %.0f Hz",
		s.Duration, s.PeakDBFS, s.RMSDBFS, s.LeadingSilence, decay, s.Spectral.DominantHz, s.Spectral.CentroidHz)
}

// MarshalJSON writes an unfitted decay as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	out := struct {
		plain
		DecayDBPerSec *float64 `json:"decay_db_per_sec"`
	}{plain: plain(s)}
	if isFinite(s.DecayDBPerSec) {
		out.DecayDBPerSec = &s.DecayDBPerSec
	}
	return json.Marshal(out)
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms(x[start : start+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// decayRate fits the envelope level in dB against time, starting at the
// loudest frame at or after from and stopping once the level has fallen
// 60 dB below that peak.
func decayRate(env []float64, from int, hopSec float64) float64 {
	if hopSec <= 0 || from < 0 || from >= len(env) {
		return math.NaN()
	}
	db := make([]float64, len(env)-from)
	top := 0
	for i, v := range env[from:] {
		db[i] = linToDB(v)
		if db[i] > db[top] {
			top = i
		}
	}
	if db[top] <= linToDB(0) {
		return math.NaN()
	}

	tail := db[top+1:]
	for i, v := range tail {
		if v < db[top]-60 {
			tail = tail[:i]
			break
		}
	}
	if len(tail) < 6 {
		return math.NaN()
	}
	ts := make([]float64, len(tail))
	for i := range ts {
		ts[i] = float64(i) * hopSec
	}
	return linearSlope(ts, tail)
}

// linearSlope is the least-squares slope of ys over xs.
func linearSlope(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n < 2 {
		return math.NaN()
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var cov, vx float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		cov += dx * (ys[i] - my)
		vx += dx * dx
	}
	if vx == 0 {
		return math.NaN()
	}
	return cov / vx
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
