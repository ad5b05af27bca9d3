package wavstream

import (
	"fmt"
	"os"

	"github.com/cwbudde/wav"
)

// File is a fully decoded WAV file.
type File struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// Samples holds the interleaved samples, normalized to [-1,1] by the decoder.
	Samples []float32
}

// Frames returns the number of frames in the file.
func (f *File) Frames() int {
	if f.Channels == 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// Channel returns the samples of channel c.
func (f *File) Channel(c int) []float64 {
	n := f.Frames()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(f.Samples[i*f.Channels+c])
	}
	return out
}

// Mono returns the per-frame channel average.
func (f *File) Mono() []float64 {
	n := f.Frames()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < f.Channels; c++ {
			sum += float64(f.Samples[i*f.Channels+c])
		}
		out[i] = sum / float64(f.Channels)
	}
	return out
}

// Read decodes a whole WAV file.
func Read(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	dec := wav.NewDecoder(fh)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("invalid wav buffer: %s", path)
	}
	return &File{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   buf.SourceBitDepth,
		Samples:    buf.Data,
	}, nil
}
