package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func makeDecaySine(sr int, freq, durSec, decaySec float64) []float64 {
	n := int(float64(sr) * durSec)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sr)
		out[i] = 0.8 * math.Exp(-t/decaySec) * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

func randomSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func TestSummarizeDecayingSine(t *testing.T) {
	const sr = 48000
	x := append(make([]float64, sr/10), makeDecaySine(sr, 440, 1.5, 0.3)...)
	s := Summarize(x, sr)

	if math.Abs(s.Duration-1.6) > 1e-9 {
		t.Fatalf("duration = %v", s.Duration)
	}
	if math.Abs(s.LeadingSilence-0.1) > 0.001 {
		t.Fatalf("leading silence = %v", s.LeadingSilence)
	}
	if s.PeakDBFS > 0 || s.PeakDBFS < -3 {
		t.Fatalf("peak = %v dBFS", s.PeakDBFS)
	}
	if s.RMSDBFS >= s.PeakDBFS {
		t.Fatalf("rms %v should be below peak %v", s.RMSDBFS, s.PeakDBFS)
	}
	// exp(-t/0.3) falls 20*log10(e)/0.3 = 28.95 dB per second.
	if !isFinite(s.DecayDBPerSec) || math.Abs(s.DecayDBPerSec+28.95) > 3 {
		t.Fatalf("decay = %v dB/s", s.DecayDBPerSec)
	}
	if len(s.Envelope) == 0 || s.EnvelopeHopSec != 0.01 {
		t.Fatalf("envelope len=%d hop=%v", len(s.Envelope), s.EnvelopeHopSec)
	}
}

func TestSummarizeSilenceAndEmpty(t *testing.T) {
	s := Summarize(make([]float64, 4800), 48000)
	if s.PeakDBFS > -239.9 || s.LeadingSilence != 0.1 {
		t.Fatalf("silent summary = %+v", s)
	}
	if isFinite(s.DecayDBPerSec) {
		t.Fatalf("silence should have no decay fit")
	}

	s = Summarize(nil, 48000)
	if s.Duration != 0 || isFinite(s.DecayDBPerSec) {
		t.Fatalf("empty summary = %+v", s)
	}
	if s.String() == "" {
		t.Fatalf("empty String")
	}
}

func TestDiffIdentical(t *testing.T) {
	x := makeDecaySine(8000, 220, 0.5, 0.2)
	d := Diff(x, x, 100)
	if !d.Identical() || d.RMSE != 0 {
		t.Fatalf("identical signals differ: %+v", d)
	}
}

func TestDiffFindsShift(t *testing.T) {
	const shift = 37
	ref := randomSignal(4096, 7)
	cand := make([]float64, len(ref))
	copy(cand, ref[shift:])

	d := Diff(ref, cand, 100)
	if d.Lag != shift {
		t.Fatalf("lag = %d, want %d", d.Lag, shift)
	}
	if d.MaxAbs > 1 || d.Identical() {
		t.Fatalf("unexpected residual: %+v", d)
	}

	d = Diff(cand, ref, 100)
	if d.Lag != -shift {
		t.Fatalf("reverse lag = %d, want %d", d.Lag, -shift)
	}
}

func TestDiffDetectsChange(t *testing.T) {
	a := makeDecaySine(8000, 220, 0.5, 0.2)
	b := append([]float64(nil), a...)
	b[100] += 0.25
	d := Diff(a, b, 0)
	if d.Lag != 0 || math.Abs(d.MaxAbs-0.25) > 1e-12 || d.Identical() {
		t.Fatalf("diff = %+v", d)
	}
}

func TestDiffLengthMismatch(t *testing.T) {
	a := makeDecaySine(8000, 220, 0.5, 0.2)
	b := a[:len(a)-800]
	d := Diff(a, b, 0)
	if d.MaxAbs != 0 || d.Lag != 0 {
		t.Fatalf("overlap should match: %+v", d)
	}
	if d.RefLen != len(a) || d.CandLen != len(b) {
		t.Fatalf("lengths = %d/%d, want %d/%d", d.RefLen, d.CandLen, len(a), len(b))
	}
	if d.Identical() {
		t.Fatalf("shorter candidate reported identical")
	}
}

func TestDecayRateStartsAtOnsetFrame(t *testing.T) {
	const hop = 0.01
	env := []float64{1}
	for i := 0; i < 100; i++ {
		// -20 dB per second
		env = append(env, 0.5*math.Pow(10, -float64(i)*hop))
	}
	if got := decayRate(env, 1, hop); math.Abs(got+20) > 1e-9 {
		t.Fatalf("decay from onset = %v, want -20", got)
	}
	if got := decayRate(env, len(env), hop); isFinite(got) {
		t.Fatalf("onset past the envelope should not fit, got %v", got)
	}
	if got := decayRate(make([]float64, 50), 0, hop); isFinite(got) {
		t.Fatalf("silent envelope should not fit, got %v", got)
	}
}

func TestLinearSlope(t *testing.T) {
	if got := linearSlope([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7}); math.Abs(got-2) > 1e-12 {
		t.Fatalf("slope = %v, want 2", got)
	}
	if got := linearSlope([]float64{1, 1, 1}, []float64{0, 1, 2}); isFinite(got) {
		t.Fatalf("degenerate xs should give NaN, got %v", got)
	}
}

func TestSpectrumFindsSineFrequency(t *testing.T) {
	const sr = 48000
	x := make([]float64, sr)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}
	sp, err := Spectrum(x, sr)
	if err != nil {
		t.Fatalf("Spectrum: %v", err)
	}
	if math.Abs(sp.DominantHz-440) > 3 {
		t.Fatalf("dominant = %v Hz", sp.DominantHz)
	}
	if math.Abs(sp.CentroidHz-440) > 50 {
		t.Fatalf("centroid = %v Hz", sp.CentroidHz)
	}
	if sp.Frames < 2 {
		t.Fatalf("frames = %d", sp.Frames)
	}

	s := Summarize(x, sr)
	if math.Abs(s.Spectral.DominantHz-440) > 3 {
		t.Fatalf("summary dominant = %v Hz", s.Spectral.DominantHz)
	}
}

func TestSpectrumShortOrSilent(t *testing.T) {
	sp, err := Spectrum(make([]float64, 100), 48000)
	if err != nil || sp.Frames != 0 || sp.DominantHz != 0 {
		t.Fatalf("short input: %+v %v", sp, err)
	}
	sp, err = Spectrum(make([]float64, 4096), 48000)
	if err != nil || sp.Frames == 0 || sp.DominantHz != 0 {
		t.Fatalf("silent input: %+v %v", sp, err)
	}
	if fftSizeFor(5000) != 4096 || fftSizeFor(1<<20) != maxFFTSize || fftSizeFor(256) != 256 {
		t.Fatalf("fftSizeFor mismatch")
	}
}
