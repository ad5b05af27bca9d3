// Package buffer provides the planar audio block shared by the renderer,
// the processing units, the encoder and the statistics accumulator.
package buffer

// Block is a fixed-shape planar buffer of channels x frames float32 samples.
// All channels share one backing array; the shape never changes after New.
type Block struct {
	data     []float32
	channels [][]float32
	frames   int
}

// New allocates a silent block. Negative sizes are treated as zero.
func New(channels int, frames int) *Block {
	if channels < 0 {
		channels = 0
	}
	if frames < 0 {
		frames = 0
	}
	b := &Block{
		data:     make([]float32, channels*frames),
		channels: make([][]float32, channels),
		frames:   frames,
	}
	for c := 0; c < channels; c++ {
		b.channels[c] = b.data[c*frames : (c+1)*frames : (c+1)*frames]
	}
	return b
}

// FromChannels builds a block that copies the given channel slices.
// Channels shorter than the longest one are padded with silence.
func FromChannels(chans ...[]float32) *Block {
	frames := 0
	for _, ch := range chans {
		if len(ch) > frames {
			frames = len(ch)
		}
	}
	b := New(len(chans), frames)
	for c, ch := range chans {
		copy(b.channels[c], ch)
	}
	return b
}

// Channels returns the channel count.
func (b *Block) Channels() int {
	if b == nil {
		return 0
	}
	return len(b.channels)
}

// Frames returns the number of frames per channel.
func (b *Block) Frames() int {
	if b == nil {
		return 0
	}
	return b.frames
}

// Channel returns the writable sample slice of channel c.
func (b *Block) Channel(c int) []float32 {
	return b.channels[c]
}

// Clear zeroes every sample.
func (b *Block) Clear() {
	clear(b.data)
}

// Fill sets every sample of every channel to v.
func (b *Block) Fill(v float32) {
	for i := range b.data {
		b.data[i] = v
	}
}

// Interleave writes the block as frame-major samples into dst, growing it
// when needed, and returns the filled slice.
func (b *Block) Interleave(dst []float32) []float32 {
	n := len(b.channels) * b.frames
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	ch := len(b.channels)
	for c, samples := range b.channels {
		for i, s := range samples {
			dst[i*ch+c] = s
		}
	}
	return dst
}
