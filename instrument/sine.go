package instrument

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cwbudde/algo-render/buffer"
	"github.com/cwbudde/algo-render/note"
)

// SineParams configures the sine test instrument.
type SineParams struct {
	Gain       float64 `json:"gain"`
	AttackSec  float64 `json:"attack_sec"`
	ReleaseSec float64 `json:"release_sec"`
}

// DefaultSineParams returns unity gain, 5 ms attack and 100 ms release.
func DefaultSineParams() SineParams {
	return SineParams{Gain: 1.0, AttackSec: 0.005, ReleaseSec: 0.1}
}

// Sine is a monophonic sine oscillator with a linear attack/release
// envelope scaled by velocity. Useful as a reference unit.
type Sine struct {
	params     SineParams
	sampleRate float64
	prepared   bool

	pitch  int
	phase  float64
	inc    float64
	level  float64
	target float64
	step   float64
	amp    float64
}

// NewSine creates a sine unit with default parameters.
func NewSine() *Sine {
	return &Sine{params: DefaultSineParams(), pitch: -1}
}

// Prepare implements render.Unit.
func (s *Sine) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 || blockSize <= 0 {
		return fmt.Errorf("sine: invalid format %v Hz / %d", sampleRate, blockSize)
	}
	s.sampleRate = sampleRate
	s.phase, s.level, s.target, s.step = 0, 0, 0, 0
	s.pitch = -1
	s.prepared = true
	return nil
}

// SetNonRealtime implements render.Unit.
func (s *Sine) SetNonRealtime(bool) {}

// OutputChannels implements render.Unit.
func (s *Sine) OutputChannels() int { return 1 }

// Release implements render.Unit.
func (s *Sine) Release() { s.prepared = false }

// Process implements render.Unit. The mono signal is written to every
// channel of block.
func (s *Sine) Process(block *buffer.Block, events []note.Event) {
	if !s.prepared {
		return
	}
	next := 0
	for i := 0; i < block.Frames(); i++ {
		for next < len(events) && events[next].Offset <= i {
			s.handle(events[next])
			next++
		}
		if s.level != s.target {
			s.level += s.step
			if (s.step > 0 && s.level > s.target) || (s.step < 0 && s.level < s.target) {
				s.level = s.target
			}
		}
		v := float32(s.level * s.amp * math.Sin(2*math.Pi*s.phase))
		s.phase += s.inc
		if s.phase >= 1 {
			s.phase -= math.Floor(s.phase)
		}
		for c := 0; c < block.Channels(); c++ {
			block.Channel(c)[i] += v
		}
	}
	for ; next < len(events); next++ {
		s.handle(events[next])
	}
}

func (s *Sine) handle(ev note.Event) {
	switch {
	case ev.Kind == note.NoteOn && ev.Velocity > 0:
		s.pitch = ev.Pitch
		s.inc = 440 * math.Pow(2, float64(ev.Pitch-69)/12) / s.sampleRate
		s.amp = s.params.Gain * float64(ev.Velocity) / 127
		s.ramp(1, s.params.AttackSec)
	case ev.Pitch == s.pitch:
		s.ramp(0, s.params.ReleaseSec)
	}
}

func (s *Sine) ramp(target float64, sec float64) {
	s.target = target
	n := sec * s.sampleRate
	if n < 1 {
		s.level = target
		s.step = 0
		return
	}
	s.step = (target - s.level) / n
}

// MarshalBinary returns the parameters as JSON.
func (s *Sine) MarshalBinary() ([]byte, error) {
	return json.Marshal(s.params)
}

// UnmarshalBinary restores parameters written by MarshalBinary.
func (s *Sine) UnmarshalBinary(data []byte) error {
	p := DefaultSineParams()
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("sine: decode state: %w", err)
	}
	if p.Gain <= 0 || p.AttackSec < 0 || p.ReleaseSec < 0 {
		return fmt.Errorf("sine: invalid state %+v", p)
	}
	s.params = p
	return nil
}
