package instrument

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-render/buffer"
	"github.com/cwbudde/algo-render/dsp"
	"github.com/cwbudde/algo-render/note"
)

const hammerCoupling = 0.002

// PianoParams holds the piano model parameters. It is also the piano's
// persisted state.
type PianoParams struct {
	OutputGain        float32 `json:"output_gain"`
	Loss              float32 `json:"loss"`
	HighFreqDamping   float32 `json:"high_freq_damping"`
	Inharmonicity     float32 `json:"inharmonicity"`
	StrikePosition    float32 `json:"strike_position"`
	DamperLoss        float32 `json:"damper_loss"`
	HammerHardness    float32 `json:"hammer_hardness"`
	UnisonDetuneScale float32 `json:"unison_detune_scale"`
	ToneCutoffHz      float64 `json:"tone_cutoff_hz"`
	MaxPolyphony      int     `json:"max_polyphony"`

	PerNote map[int]*NoteParams `json:"per_note,omitempty"`
}

// NoteParams overrides the string model for a single key. Zero fields keep
// the global value.
type NoteParams struct {
	Loss           float32 `json:"loss,omitempty"`
	Inharmonicity  float32 `json:"inharmonicity,omitempty"`
	StrikePosition float32 `json:"strike_position,omitempty"`
}

// DefaultPianoParams returns the default model.
func DefaultPianoParams() PianoParams {
	return PianoParams{
		OutputGain:        0.5,
		Loss:              0.9998,
		HighFreqDamping:   0.05,
		Inharmonicity:     0.0,
		StrikePosition:    0.18,
		DamperLoss:        0.92,
		HammerHardness:    1.0,
		UnisonDetuneScale: 1.0,
		ToneCutoffHz:      9000,
		MaxPolyphony:      16,
		PerNote:           map[int]*NoteParams{},
	}
}

// Validate checks parameter ranges.
func (p PianoParams) Validate() error {
	switch {
	case p.OutputGain <= 0:
		return fmt.Errorf("output_gain must be > 0")
	case p.Loss <= 0 || p.Loss > 1:
		return fmt.Errorf("loss must be in (0,1]")
	case p.HighFreqDamping < 0 || p.HighFreqDamping >= 1:
		return fmt.Errorf("high_freq_damping must be in [0,1)")
	case p.Inharmonicity < 0 || p.Inharmonicity > 1:
		return fmt.Errorf("inharmonicity must be in [0,1]")
	case p.StrikePosition <= 0 || p.StrikePosition >= 1:
		return fmt.Errorf("strike_position must be in (0,1)")
	case p.DamperLoss <= 0 || p.DamperLoss > 1:
		return fmt.Errorf("damper_loss must be in (0,1]")
	case p.HammerHardness < 0.5 || p.HammerHardness > 1.2:
		return fmt.Errorf("hammer_hardness must be in [0.5,1.2]")
	case p.UnisonDetuneScale < 0:
		return fmt.Errorf("unison_detune_scale must be >= 0")
	case p.ToneCutoffHz <= 0:
		return fmt.Errorf("tone_cutoff_hz must be > 0")
	case p.MaxPolyphony < 1:
		return fmt.Errorf("max_polyphony must be >= 1")
	}
	for n, np := range p.PerNote {
		if n < 0 || n > 127 {
			return fmt.Errorf("per_note key %d out of range 0..127", n)
		}
		if np == nil {
			continue
		}
		if np.Loss < 0 || np.Loss > 1 {
			return fmt.Errorf("per_note[%d].loss must be in (0,1]", n)
		}
		if np.Inharmonicity < 0 || np.Inharmonicity > 1 {
			return fmt.Errorf("per_note[%d].inharmonicity must be in [0,1]", n)
		}
		if np.StrikePosition < 0 || np.StrikePosition >= 1 {
			return fmt.Errorf("per_note[%d].strike_position must be in (0,1)", n)
		}
	}
	return nil
}

// Piano is a physically modelled piano: unison waveguide strings per key,
// struck by a nonlinear hammer and stopped by a damper on note-off.
type Piano struct {
	params     PianoParams
	sampleRate float64
	prepared   bool
	offline    bool
	voices     []*pianoVoice
	tone       *dsp.Biquad
}

// NewPiano creates a piano with params, or defaults when params is nil.
func NewPiano(params *PianoParams) *Piano {
	p := &Piano{params: DefaultPianoParams()}
	if params != nil {
		p.params = *params
	}
	return p
}

// Params returns a copy of the current parameters.
func (p *Piano) Params() PianoParams { return p.params }

// SetParams validates and applies params to notes started afterwards.
func (p *Piano) SetParams(params PianoParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	p.params = params
	if p.prepared {
		p.tone = dsp.NewLowpass(params.ToneCutoffHz, p.sampleRate, 0.707)
	}
	return nil
}

// Prepare implements render.Unit.
func (p *Piano) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("piano: invalid sample rate %v", sampleRate)
	}
	if blockSize <= 0 {
		return fmt.Errorf("piano: invalid block size %d", blockSize)
	}
	if err := p.params.Validate(); err != nil {
		return fmt.Errorf("piano: %w", err)
	}
	p.sampleRate = sampleRate
	p.voices = make([]*pianoVoice, 0, p.params.MaxPolyphony)
	p.tone = dsp.NewLowpass(p.params.ToneCutoffHz, sampleRate, 0.707)
	p.prepared = true
	return nil
}

// SetNonRealtime implements render.Unit. Offline rendering enables full
// unison and string dispersion.
func (p *Piano) SetNonRealtime(offline bool) { p.offline = offline }

// OutputChannels implements render.Unit.
func (p *Piano) OutputChannels() int { return 2 }

// Release implements render.Unit.
func (p *Piano) Release() {
	p.voices = nil
	p.tone = nil
	p.prepared = false
}

// ActiveVoices returns the number of sounding voices.
func (p *Piano) ActiveVoices() int { return len(p.voices) }

// Process implements render.Unit. Events take effect at their sample offset.
func (p *Piano) Process(block *buffer.Block, events []note.Event) {
	if !p.prepared {
		return
	}
	frames := block.Frames()
	next := 0
	for i := 0; i < frames; i++ {
		for next < len(events) && events[next].Offset <= i {
			p.handle(events[next])
			next++
		}
		var mix float32
		for _, v := range p.voices {
			if v.active {
				mix += v.tick()
			}
		}
		out := p.tone.Process(mix) * p.params.OutputGain
		for c := 0; c < block.Channels(); c++ {
			block.Channel(c)[i] += out
		}
	}
	for ; next < len(events); next++ {
		p.handle(events[next])
	}
	p.pruneVoices()
}

func (p *Piano) handle(ev note.Event) {
	switch ev.Kind {
	case note.NoteOn:
		if ev.Velocity == 0 {
			p.noteOff(ev.Pitch)
			return
		}
		p.noteOn(ev.Pitch, ev.Velocity)
	case note.NoteOff:
		p.noteOff(ev.Pitch)
	}
}

func (p *Piano) noteOn(pitch int, velocity int) {
	if len(p.voices) >= p.params.MaxPolyphony {
		copy(p.voices, p.voices[1:])
		p.voices = p.voices[:len(p.voices)-1]
	}
	p.voices = append(p.voices, p.newVoice(pitch, velocity))
}

func (p *Piano) noteOff(pitch int) {
	for _, v := range p.voices {
		if v.note == pitch && !v.released {
			v.release()
		}
	}
}

func (p *Piano) pruneVoices() {
	keep := p.voices[:0]
	for _, v := range p.voices {
		if v.active {
			keep = append(keep, v)
		}
	}
	clear(p.voices[len(keep):])
	p.voices = keep
}

// MarshalBinary returns the parameter state as JSON.
func (p *Piano) MarshalBinary() ([]byte, error) {
	return json.Marshal(p.params)
}

// UnmarshalBinary restores state written by MarshalBinary. Missing fields
// keep their defaults.
func (p *Piano) UnmarshalBinary(data []byte) error {
	params := DefaultPianoParams()
	if err := json.Unmarshal(data, &params); err != nil {
		return fmt.Errorf("piano: decode state: %w", err)
	}
	return p.SetParams(params)
}

type pianoVoice struct {
	note      int
	strikePos float32
	hammer    *hammer
	strings   []*waveguideString
	gains     []float32

	active     bool
	released   bool
	quiet      int
	quietLimit int
}

func (p *Piano) newVoice(pitch int, velocity int) *pianoVoice {
	params := p.params
	strikePos := params.StrikePosition
	loss := params.Loss
	inharmonicity := params.Inharmonicity
	if np, ok := params.PerNote[pitch]; ok && np != nil {
		if np.StrikePosition > 0 {
			strikePos = np.StrikePosition
		}
		if np.Loss > 0 {
			loss = np.Loss
		}
		if np.Inharmonicity > 0 {
			inharmonicity = np.Inharmonicity
		}
	}

	unison := unisonFor(pitch)
	if !p.offline {
		unison = monochord
		inharmonicity = 0
	}

	v := &pianoVoice{
		note:       pitch,
		strikePos:  strikePos,
		hammer:     newHammer(p.sampleRate, velocity, params.HammerHardness),
		strings:    make([]*waveguideString, 0, len(unison)),
		gains:      make([]float32, 0, len(unison)),
		active:     true,
		quietLimit: int(p.sampleRate * 0.05),
	}
	f0 := noteFrequency(pitch)
	for _, u := range unison {
		s := newWaveguideString(p.sampleRate, detune(f0, u.cents*params.UnisonDetuneScale))
		s.setLoopLoss(loss, params.HighFreqDamping)
		s.setDamperLoss(params.DamperLoss)
		s.setDispersion(inharmonicity)
		v.strings = append(v.strings, s)
		v.gains = append(v.gains, u.gain)
	}
	return v
}

func (v *pianoVoice) release() {
	v.released = true
	for _, s := range v.strings {
		s.setDamper(true)
	}
}

func (v *pianoVoice) tick() float32 {
	if v.hammer.inContact() {
		f := v.hammer.step(0) * hammerCoupling
		if f != 0 {
			for _, s := range v.strings {
				s.injectForce(f, v.strikePos)
			}
		}
	}
	var out float32
	for i, s := range v.strings {
		out += s.tick() * v.gains[i]
	}
	if v.released {
		if out < 1e-5 && out > -1e-5 {
			v.quiet++
			if v.quiet >= v.quietLimit {
				v.active = false
			}
		} else {
			v.quiet = 0
		}
	}
	return out
}
