// Package dsp holds the small allocation-free building blocks used by the
// built-in instruments.
package dsp

import "math"

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32

	x1, x2 float32
	y1, y2 float32
}

// NewBiquad creates a new biquad filter from normalized coefficients
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// NewLowpass creates an RBJ lowpass. The cutoff is clamped below Nyquist.
func NewLowpass(cutoff, sampleRate, q float64) *Biquad {
	if cutoff > 0.49*sampleRate {
		cutoff = 0.49 * sampleRate
	}
	if q <= 0 {
		q = math.Sqrt2 / 2
	}
	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	a0 := 1.0 + alpha
	return NewBiquad(
		float32((1.0-cosw0)/2.0/a0),
		float32((1.0-cosw0)/a0),
		float32((1.0-cosw0)/2.0/a0),
		float32(-2.0*cosw0/a0),
		float32((1.0-alpha)/a0),
	)
}

// Process filters one sample (Direct Form I).
func (b *Biquad) Process(input float32) float32 {
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = FlushDenormals(output)

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output
	return output
}

// ProcessBlock filters samples in place.
func (b *Biquad) ProcessBlock(samples []float32) {
	for i, s := range samples {
		samples[i] = b.Process(s)
	}
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// DelayLine is a circular buffer read at integer or fractional delays.
type DelayLine struct {
	buffer   []float32
	writePos int
}

// NewDelayLine creates a delay line holding size samples (minimum 2).
func NewDelayLine(size int) *DelayLine {
	if size < 2 {
		size = 2
	}
	return &DelayLine{buffer: make([]float32, size)}
}

// Len is the buffer capacity in samples.
func (d *DelayLine) Len() int { return len(d.buffer) }

// Write pushes a sample and advances the write head.
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos == len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples ago (1 = most recent).
func (d *DelayLine) Read(delay int) float32 {
	n := len(d.buffer)
	return d.buffer[((d.writePos-delay)%n+n)%n]
}

// ReadFractional reads with linear interpolation between neighbours.
func (d *DelayLine) ReadFractional(delay float32) float32 {
	intDelay := int(delay)
	frac := delay - float32(intDelay)
	s1 := d.Read(intDelay)
	s2 := d.Read(intDelay + 1)
	return s1 + frac*(s2-s1)
}

// Add mixes v into the sample written delay samples ago, so it is read
// again after fewer than delay further writes.
func (d *DelayLine) Add(delay int, v float32) {
	n := len(d.buffer)
	d.buffer[((d.writePos-delay)%n+n)%n] += v
}

// Reset clears the delay line
func (d *DelayLine) Reset() {
	clear(d.buffer)
	d.writePos = 0
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
