// Package note generates synthetic single-note timelines and slices them
// into per-block event batches with sample-accurate offsets.
package note

import (
	"fmt"
	"math"
)

// Kind distinguishes note-on from note-off events.
type Kind uint8

const (
	NoteOn Kind = iota + 1
	NoteOff
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Event is a note event positioned inside one block.
type Event struct {
	Kind     Kind
	Pitch    int
	Velocity int // zero for NoteOff
	Offset   int // sample offset within the block
}

func (e Event) String() string {
	if e.Kind == NoteOn {
		return fmt.Sprintf("%s pitch=%d vel=%d @%d", e.Kind, e.Pitch, e.Velocity, e.Offset)
	}
	return fmt.Sprintf("%s pitch=%d @%d", e.Kind, e.Pitch, e.Offset)
}

// Timeline holds the absolute sample positions of the two events.
type Timeline struct {
	NoteOnSample  int64
	NoteOffSample int64
}

// Generator produces the note-on/note-off schedule for one note.
type Generator struct {
	name       string
	pitch      int
	velocity   int
	duration   float64
	sampleRate float64

	timeline  Timeline
	generated bool
	position  int64
}

// NewGenerator configures a generator. Velocity is clamped to [0,127].
// Call Generate before pulling events.
func NewGenerator(pitchName string, velocity int, durationSec float64, sampleRate float64) *Generator {
	return &Generator{
		name:       pitchName,
		pitch:      ParsePitch(pitchName),
		velocity:   clampMIDI(velocity),
		duration:   durationSec,
		sampleRate: sampleRate,
	}
}

// Generate computes the timeline. Later calls keep the first result.
func (g *Generator) Generate() Timeline {
	if g.generated {
		return g.timeline
	}
	off := math.Round(g.duration * g.sampleRate)
	if math.IsNaN(off) || off < 0 {
		off = 0
	}
	if off > math.MaxInt64/2 {
		off = math.MaxInt64 / 2
	}
	g.timeline = Timeline{NoteOnSample: 0, NoteOffSample: int64(off)}
	g.generated = true
	g.position = 0
	return g.timeline
}

// PullEvents appends to dst[:0] the events whose sample lies in the half-open
// window [blockStart, blockStart+blockSize), in temporal order, and advances
// the read cursor to the end of the window.
func (g *Generator) PullEvents(dst []Event, blockStart int64, blockSize int) []Event {
	dst = dst[:0]
	if !g.generated || blockSize <= 0 || blockStart < 0 {
		return dst
	}
	end := blockStart + int64(blockSize)
	if t := g.timeline.NoteOnSample; t >= blockStart && t < end {
		dst = append(dst, Event{
			Kind:     NoteOn,
			Pitch:    g.pitch,
			Velocity: g.velocity,
			Offset:   int(t - blockStart),
		})
	}
	if t := g.timeline.NoteOffSample; t >= blockStart && t < end {
		dst = append(dst, Event{
			Kind:   NoteOff,
			Pitch:  g.pitch,
			Offset: int(t - blockStart),
		})
	}
	g.position = end
	return dst
}

// Reset rewinds the read cursor; the timeline is kept.
func (g *Generator) Reset() {
	g.position = 0
}

// Position is the sample index just past the last pulled window.
func (g *Generator) Position() int64 { return g.position }

// Pitch is the parsed MIDI note number.
func (g *Generator) Pitch() int { return g.pitch }

// Velocity is the clamped note-on velocity.
func (g *Generator) Velocity() int { return g.velocity }

// Name is the pitch name the generator was configured with.
func (g *Generator) Name() string { return g.name }

// Timeline returns the computed schedule (zero before Generate).
func (g *Generator) Timeline() Timeline { return g.timeline }
