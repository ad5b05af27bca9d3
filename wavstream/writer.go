// Package wavstream writes audio blocks to a 24-bit PCM WAV file as they are
// produced, and reads rendered files back for verification.
package wavstream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-render/buffer"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// BitDepth is the fixed output sample width.
const BitDepth = 24

const pcmFormat = 1

var (
	// ErrClosed is returned when writing to a writer without an open encoder.
	ErrClosed = errors.New("wavstream: writer not open")
	// ErrChannelMismatch is returned for blocks whose layout the writer cannot map.
	ErrChannelMismatch = errors.New("wavstream: channel layout mismatch")
)

// Writer streams blocks into a WAV file. The zero value is a closed writer.
// A Writer is not safe for concurrent use.
type Writer struct {
	path       string
	file       *os.File
	enc        *wav.Encoder
	sampleRate int
	channels   int

	interleaved []float32
	upmix       *buffer.Block
	pcm         audio.Float32Buffer
	frames      int64
}

// Create opens a new writer at path.
func Create(path string, sampleRate int, channels int) (*Writer, error) {
	w := &Writer{}
	if err := w.Open(path, sampleRate, channels); err != nil {
		return nil, err
	}
	return w, nil
}

// Open binds the writer to a fresh file at path, replacing any existing file
// and creating parent directories. A previously open file is closed first.
// On failure the writer stays closed.
func (w *Writer) Open(path string, sampleRate int, channels int) error {
	if err := w.Close(); err != nil {
		return err
	}
	if sampleRate <= 0 {
		return fmt.Errorf("wavstream: invalid sample rate %d", sampleRate)
	}
	if channels < 1 {
		return fmt.Errorf("wavstream: invalid channel count %d", channels)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("wavstream: remove existing %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("wavstream: create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavstream: open output file: %w", err)
	}
	enc := wav.NewEncoder(f, sampleRate, BitDepth, channels, pcmFormat)
	if enc == nil {
		f.Close()
		return fmt.Errorf("wavstream: create encoder for %s", path)
	}

	w.path = path
	w.file = f
	w.enc = enc
	w.sampleRate = sampleRate
	w.channels = channels
	w.frames = 0
	w.pcm = audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		SourceBitDepth: BitDepth,
	}
	return nil
}

// WriteBlock encodes one block. Zero-frame blocks are a no-op. A mono block
// written to a stereo file is duplicated into both channels; any other
// layout must match the file's channel count.
func (w *Writer) WriteBlock(b *buffer.Block) error {
	if w.enc == nil {
		return ErrClosed
	}
	frames := b.Frames()
	if frames == 0 {
		return nil
	}

	src := b
	switch {
	case b.Channels() == w.channels:
	case b.Channels() == 1 && w.channels == 2:
		src = w.upmixMono(b)
	default:
		return fmt.Errorf("%w: block has %d channels, file has %d", ErrChannelMismatch, b.Channels(), w.channels)
	}

	w.interleaved = src.Interleave(w.interleaved)
	w.pcm.Data = w.interleaved
	if err := w.enc.Write(&w.pcm); err != nil {
		return fmt.Errorf("wavstream: write block: %w", err)
	}
	w.frames += int64(frames)
	return nil
}

func (w *Writer) upmixMono(b *buffer.Block) *buffer.Block {
	if w.upmix == nil || w.upmix.Frames() != b.Frames() {
		w.upmix = buffer.New(2, b.Frames())
	}
	copy(w.upmix.Channel(0), b.Channel(0))
	copy(w.upmix.Channel(1), b.Channel(0))
	return w.upmix
}

// Close flushes the header and releases the file. Calling it on a closed
// writer is a no-op.
func (w *Writer) Close() error {
	if w.enc == nil && w.file == nil {
		return nil
	}
	var errs []error
	if w.enc != nil {
		if err := w.enc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("wavstream: finalize %s: %w", w.path, err))
		}
		w.enc = nil
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("wavstream: close %s: %w", w.path, err))
		}
		w.file = nil
	}
	w.pcm.Data = nil
	return errors.Join(errs...)
}

// IsOpen reports whether an encoder is active.
func (w *Writer) IsOpen() bool { return w.enc != nil }

// Channels is the file channel count.
func (w *Writer) Channels() int { return w.channels }

// FramesWritten counts frames written since Open.
func (w *Writer) FramesWritten() int64 { return w.frames }

// Path is the file path of the last Open.
func (w *Writer) Path() string { return w.path }
