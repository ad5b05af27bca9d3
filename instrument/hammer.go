package instrument

import "math"

const (
	hammerMass        = 0.010
	hammerStiffness   = 1.1e6
	hammerExponent    = 2.3
	hammerInitialGap  = 0.00012
	hammerMinContactS = 0.00025
)

// hammer is a felt hammer with power-law stiffness. Contact ends when the
// hammer leaves the string or after a velocity-dependent maximum.
type hammer struct {
	dt        float32
	stiffness float32
	exponent  float64
	damping   float32

	elapsed    int
	minContact int
	maxContact int
	done       bool

	x, v float32 // position and velocity
}

// newHammer strikes with a MIDI velocity. hardness scales felt stiffness
// around 1.
func newHammer(sampleRate float64, velocity int, hardness float32) *hammer {
	vel := clampf(float32(velocity), 1, 127) / 127
	if hardness <= 0 {
		hardness = 1
	}
	sr := float32(sampleRate)
	return &hammer{
		dt:         1 / sr,
		stiffness:  hammerStiffness * (0.5 + 2.5*vel) * hardness,
		exponent:   hammerExponent * float64(0.9+0.1*hardness),
		damping:    0.1 + 0.2*vel,
		minContact: int(sr * hammerMinContactS),
		maxContact: max(1, int(sr*(0.004-0.003*vel))),
		x:          hammerInitialGap,
		v:          0.6 + 3*vel,
	}
}

func (h *hammer) inContact() bool { return !h.done }

// step advances one sample against the string displacement y and returns
// the contact force.
func (h *hammer) step(y float32) float32 {
	if h.done {
		return 0
	}
	compression := h.x - y
	var f float32
	if compression > 0 {
		f = h.stiffness * float32(math.Pow(float64(compression), h.exponent))
		if h.v > 0 {
			f *= 1 + h.damping*h.v
		}
	}
	if !finite32(f) {
		h.done = true
		return 0
	}

	h.v -= f / hammerMass * h.dt
	h.x += h.v * h.dt
	h.elapsed++

	rebounded := h.elapsed > h.minContact && compression <= 0 && h.v <= 0
	if rebounded || h.elapsed >= h.maxContact {
		h.done = true
	}
	return f
}
