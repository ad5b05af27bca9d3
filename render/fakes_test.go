package render

import (
	"errors"

	"github.com/cwbudde/algo-render/buffer"
	"github.com/cwbudde/algo-render/note"
)

// fakeUnit writes a constant level into every channel and records calls.
type fakeUnit struct {
	level    float32
	channels int

	prepared    int
	released    int
	processed   int
	nonRealtime bool
	events      []note.Event
	eventBlocks []int
	sampleRate  float64
	blockSize   int
	prepareErr  error
}

func (u *fakeUnit) Prepare(sampleRate float64, blockSize int) error {
	u.prepared++
	u.sampleRate = sampleRate
	u.blockSize = blockSize
	return u.prepareErr
}

func (u *fakeUnit) SetNonRealtime(offline bool) { u.nonRealtime = offline }

func (u *fakeUnit) Process(block *buffer.Block, events []note.Event) {
	for c := 0; c < block.Channels(); c++ {
		ch := block.Channel(c)
		for i := range ch {
			ch[i] += u.level
		}
	}
	for _, ev := range events {
		u.events = append(u.events, ev)
		u.eventBlocks = append(u.eventBlocks, u.processed)
	}
	u.processed++
}

func (u *fakeUnit) OutputChannels() int { return u.channels }

func (u *fakeUnit) Release() { u.released++ }

// gateUnit outputs level only between a note-on and the matching note-off,
// with sample-accurate event offsets.
type gateUnit struct {
	fakeUnit
	on bool
}

func (u *gateUnit) Process(block *buffer.Block, events []note.Event) {
	next := 0
	for i := 0; i < block.Frames(); i++ {
		for next < len(events) && events[next].Offset == i {
			u.on = events[next].Kind == note.NoteOn
			next++
		}
		if u.on {
			for c := 0; c < block.Channels(); c++ {
				block.Channel(c)[i] = u.level
			}
		}
	}
	u.processed++
}

// failingSink accepts a fixed number of blocks, then fails.
type failingSink struct {
	accept int
	writes int
	closed int
}

var errDiskFull = errors.New("disk full")

func (s *failingSink) WriteBlock(*buffer.Block) error {
	if s.writes >= s.accept {
		return errDiskFull
	}
	s.writes++
	return nil
}

func (s *failingSink) Close() error {
	s.closed++
	return nil
}
