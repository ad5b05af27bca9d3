package dsp

import (
	"math"
	"testing"
)

func TestDelayLineReadsBack(t *testing.T) {
	d := NewDelayLine(8)
	for i := 1; i <= 5; i++ {
		d.Write(float32(i))
	}
	if got := d.Read(1); got != 5 {
		t.Fatalf("Read(1) = %v, want 5", got)
	}
	if got := d.Read(3); got != 3 {
		t.Fatalf("Read(3) = %v, want 3", got)
	}
	if got := d.ReadFractional(1.5); got != 4.5 {
		t.Fatalf("ReadFractional(1.5) = %v, want 4.5", got)
	}
	d.Reset()
	if got := d.Read(1); got != 0 {
		t.Fatalf("after reset Read(1) = %v", got)
	}
}

func TestDelayLineWrapsAndAdds(t *testing.T) {
	d := NewDelayLine(4)
	for i := 0; i < 10; i++ {
		d.Write(float32(i))
	}
	if got := d.Read(4); got != 6 {
		t.Fatalf("Read(4) = %v, want 6", got)
	}
	d.Add(2, 1)
	if got := d.Read(2); got != 9 {
		t.Fatalf("Add(2) then Read(2) = %v, want 9", got)
	}
}

func TestLowpassPassesDCAndAttenuatesNyquist(t *testing.T) {
	const sr = 48000.0
	lp := NewLowpass(1000, sr, 0.707)
	var y float32
	for i := 0; i < 4000; i++ {
		y = lp.Process(1)
	}
	if math.Abs(float64(y)-1) > 1e-3 {
		t.Fatalf("DC gain = %v", y)
	}

	lp.Reset()
	var peak float64
	for i := 0; i < 4000; i++ {
		x := float32(1)
		if i%2 == 1 {
			x = -1
		}
		y = lp.Process(x)
		if i > 2000 {
			peak = math.Max(peak, math.Abs(float64(y)))
		}
	}
	if peak > 0.01 {
		t.Fatalf("nyquist leak = %v", peak)
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 || FlushDenormals(-1e-35) != 0 {
		t.Fatalf("denormal not flushed")
	}
	if FlushDenormals(0.5) != 0.5 {
		t.Fatalf("normal value altered")
	}
}
