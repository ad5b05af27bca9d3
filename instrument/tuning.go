package instrument

import (
	"math"

	approx "github.com/cwbudde/algo-approx"
)

const (
	concertA     = 440.0
	concertAMIDI = 69
	ln2          = 0.69314718055994530942
)

// exp2 is 2^x via the fast exponential.
func exp2(x float32) float32 { return approx.FastExp(x * ln2) }

// noteFrequency is the equal-tempered frequency of a MIDI note.
func noteFrequency(pitch int) float32 {
	return concertA * exp2(float32(pitch-concertAMIDI)/12)
}

// detune shifts freq by cents.
func detune(freq, cents float32) float32 { return freq * exp2(cents/1200) }

// unisonString is one string of a key's unison group.
type unisonString struct {
	cents float32
	gain  float32
}

var (
	monochord = []unisonString{{cents: 0, gain: 1}}
	bichord   = []unisonString{{cents: -1.8, gain: 0.52}, {cents: 1.8, gain: 0.48}}
	trichord  = []unisonString{{cents: -3, gain: 0.34}, {cents: 0, gain: 0.33}, {cents: 3, gain: 0.33}}
)

// unisonFor stringing: bass keys single, tenor pairs, treble triples.
func unisonFor(pitch int) []unisonString {
	switch {
	case pitch < 40:
		return monochord
	case pitch < 70:
		return bichord
	default:
		return trichord
	}
}

func finite32(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

func clampf(v, lo, hi float32) float32 {
	return float32(math.Min(math.Max(float64(v), float64(lo)), float64(hi)))
}
