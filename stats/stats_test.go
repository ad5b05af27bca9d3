package stats

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-render/buffer"
)

func constantBlock(channels, frames int, v float32) *buffer.Block {
	b := buffer.New(channels, frames)
	b.Fill(v)
	return b
}

func TestConstantAmplitudePeakEqualsRMS(t *testing.T) {
	for _, n := range []int{1, 7, 512, 4096} {
		for _, a := range []float32{0.5, -0.25, 1.0} {
			var s Stats
			s.Update(constantBlock(2, n, a))
			s.Finalize()
			want := math.Abs(float64(a))
			if s.PeakL != want || s.PeakR != want {
				t.Fatalf("n=%d a=%v peak=%v/%v", n, a, s.PeakL, s.PeakR)
			}
			if math.Abs(s.RMSL-want) > 1e-9 || math.Abs(s.RMSR-want) > 1e-9 {
				t.Fatalf("n=%d a=%v rms=%v/%v", n, a, s.RMSL, s.RMSR)
			}
			if s.Samples != int64(n) {
				t.Fatalf("samples = %d, want %d", s.Samples, n)
			}
		}
	}
}

func TestMonoMirrorsLeftIntoRight(t *testing.T) {
	var s Stats
	s.Update(buffer.FromChannels([]float32{0.1, -0.6, 0.3}))
	s.Finalize()
	if s.PeakL != s.PeakR || s.RMSL != s.RMSR {
		t.Fatalf("mono right channel does not track left: %+v", s)
	}
	if math.Abs(s.PeakL-0.6) > 1e-7 {
		t.Fatalf("peak = %v", s.PeakL)
	}
}

func TestStereoChannelsIndependent(t *testing.T) {
	var s Stats
	s.Update(buffer.FromChannels([]float32{0.2, 0.2}, []float32{0, -0.8}))
	s.Finalize()
	if math.Abs(s.PeakL-0.2) > 1e-7 || math.Abs(s.PeakR-0.8) > 1e-7 {
		t.Fatalf("peaks = %v/%v", s.PeakL, s.PeakR)
	}
	if s.Samples != 2 {
		t.Fatalf("samples counted per channel: %d", s.Samples)
	}
}

func TestEmptyBlockIsNoop(t *testing.T) {
	var s Stats
	s.Update(buffer.New(0, 128))
	s.Update(buffer.New(2, 0))
	s.Finalize()
	if s != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", s)
	}
	if !s.Silent(DefaultSilenceThreshold) {
		t.Fatalf("empty stats should be silent")
	}
}

func TestFinalizeIdempotentAndResettable(t *testing.T) {
	var s Stats
	s.Update(constantBlock(2, 64, 0.5))
	s.Update(constantBlock(2, 64, 0))
	s.Finalize()
	first := s
	s.Finalize()
	if s != first {
		t.Fatalf("finalize changed stats on second call")
	}
	want := math.Sqrt(0.125)
	if math.Abs(s.RMSL-want) > 1e-12 {
		t.Fatalf("rms = %v, want %v", s.RMSL, want)
	}
	s.Reset()
	if s != (Stats{}) {
		t.Fatalf("reset left %+v", s)
	}
}

func TestDBFS(t *testing.T) {
	s := Stats{PeakL: 0.5, PeakR: 1.0, RMSL: 0.1, RMSR: 0.05}
	if math.Abs(s.PeakDBFS()) > 1e-12 {
		t.Fatalf("peak dbfs = %v", s.PeakDBFS())
	}
	if math.Abs(s.RMSDBFS()+20) > 1e-9 {
		t.Fatalf("rms dbfs = %v", s.RMSDBFS())
	}
	if ToDBFS(0) != -240 {
		t.Fatalf("floor = %v", ToDBFS(0))
	}
}
