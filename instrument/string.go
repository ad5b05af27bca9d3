package instrument

import "github.com/cwbudde/algo-render/dsp"

// waveguideString is a digital waveguide string: a fractional delay loop with
// a one-pole loss filter and a two-stage allpass for stiffness dispersion.
type waveguideString struct {
	delay       *dsp.DelayLine
	delayLength float32

	reflection       float32
	baseReflection   float32
	damperReflection float32
	damped           bool

	lowpassCoeff float32
	loopState    float32

	dispersion float32
	apX1, apY1 float32
	apX2, apY2 float32
}

func newWaveguideString(sampleRate float64, f0 float32) *waveguideString {
	length := float32(sampleRate) / f0
	size := int(length) + 4
	return &waveguideString{
		delay:            dsp.NewDelayLine(size),
		delayLength:      length,
		reflection:       0.9999,
		baseReflection:   0.9999,
		damperReflection: 0.92,
	}
}

func (s *waveguideString) setLoopLoss(gain float32, highFreqDamping float32) {
	gain = clampf(gain, 0.0001, 1)
	s.baseReflection = gain
	s.reflection = gain
	if s.damped {
		s.reflection = s.damperReflection
	}
	s.lowpassCoeff = clampf(highFreqDamping, 0, 0.99)
}

func (s *waveguideString) setDamperLoss(gain float32) {
	s.damperReflection = clampf(gain, 0.0001, 1)
	if s.damped {
		s.reflection = s.damperReflection
	}
}

// setDispersion maps an inharmonicity amount in [0,1] to the allpass coefficient.
func (s *waveguideString) setDispersion(amount float32) {
	s.dispersion = -0.85 * clampf(amount, 0, 1)
}

func (s *waveguideString) setDamper(engaged bool) {
	s.damped = engaged
	if engaged {
		s.reflection = s.damperReflection
		return
	}
	s.reflection = s.baseReflection
}

// injectForce adds a single-sample force at a fractional position along the
// string, measured from the read tap.
func (s *waveguideString) injectForce(force float32, pos float32) {
	pos = clampf(pos, 0.01, 0.99)
	k := int(s.delayLength * (1 - pos))
	if k < 1 {
		k = 1
	}
	s.delay.Add(k, force)
}

func (s *waveguideString) tick() float32 {
	out := s.delay.ReadFractional(s.delayLength)
	x := s.disperse(out)

	lp := (1.0-s.lowpassCoeff)*x + s.lowpassCoeff*s.loopState
	lp = dsp.FlushDenormals(lp)
	s.loopState = lp
	s.delay.Write(dsp.FlushDenormals(lp * s.reflection))
	return out
}

func (s *waveguideString) disperse(x float32) float32 {
	a := s.dispersion
	if a == 0 {
		return x
	}
	y := -a*x + s.apX1 + a*s.apY1
	s.apX1 = x
	s.apY1 = y

	z := -a*y + s.apX2 + a*s.apY2
	s.apX2 = y
	s.apY2 = z
	return z
}
