package render

import (
	"github.com/cwbudde/algo-render/buffer"
	"github.com/cwbudde/algo-render/note"
)

// Unit is a block-oriented, stateful audio generator such as a software
// instrument. Implementations need not be safe for concurrent use; one
// render at a time may drive a given Unit.
type Unit interface {
	// Prepare readies the unit for the given stream format.
	Prepare(sampleRate float64, blockSize int) error
	// SetNonRealtime tells the unit it is being rendered offline.
	SetNonRealtime(offline bool)
	// Process fills or accumulates into block and consumes events. Neither
	// argument may be retained after the call returns.
	Process(block *buffer.Block, events []note.Event)
	// OutputChannels is the number of channels the unit produces.
	OutputChannels() int
	// Release frees resources acquired in Prepare.
	Release()
}

// EventSource yields the note events that fall in a block window.
type EventSource interface {
	// PullEvents appends to dst[:0] the events in [start, start+size).
	PullEvents(dst []note.Event, start int64, size int) []note.Event
	// Reset rewinds the source to sample zero.
	Reset()
}
