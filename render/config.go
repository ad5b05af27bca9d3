package render

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("render: invalid config")

// Config describes the stream format and the three phase durations.
type Config struct {
	SampleRate float64 `json:"sample_rate"`
	BlockSize  int     `json:"block_size"`
	WarmupSec  float64 `json:"warmup_sec"`
	RenderSec  float64 `json:"render_sec"`
	TailSec    float64 `json:"tail_sec"`
}

// DefaultConfig returns 44.1 kHz, 512-frame blocks, 0.2 s warmup, 2 s note
// and 1 s tail.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		BlockSize:  512,
		WarmupSec:  0.2,
		RenderSec:  2.0,
		TailSec:    1.0,
	}
}

// Validate checks that the format is usable and durations are non-negative.
func (c Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be > 0, got %v", ErrInvalidConfig, c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size must be > 0, got %d", ErrInvalidConfig, c.BlockSize)
	}
	for _, d := range []struct {
		name string
		v    float64
	}{
		{"warmup", c.WarmupSec},
		{"render", c.RenderSec},
		{"tail", c.TailSec},
	} {
		if !(d.v >= 0) || math.IsInf(d.v, 0) {
			return fmt.Errorf("%w: %s duration must be >= 0, got %v", ErrInvalidConfig, d.name, d.v)
		}
	}
	return nil
}

// BlocksFor returns how many blocks cover sec seconds. The count rounds up,
// so the rendered span is never shorter than requested and may exceed it
// by up to BlockSize-1 frames.
func (c Config) BlocksFor(sec float64) int64 {
	if sec <= 0 || c.BlockSize <= 0 {
		return 0
	}
	// Snap to whole samples before dividing. Otherwise float noise such as
	// 0.07*44100 = 3087.0000000000005 adds a block for an exact fit. For
	// exact products this is ceil(sec*rate/blockSize).
	samples := int64(math.Round(sec * c.SampleRate))
	bs := int64(c.BlockSize)
	return (samples + bs - 1) / bs
}

// WarmupBlocks is the number of discarded blocks before the note starts.
func (c Config) WarmupBlocks() int64 { return c.BlocksFor(c.WarmupSec) }

// MainBlocks is the number of blocks rendered while the timeline plays.
func (c Config) MainBlocks() int64 { return c.BlocksFor(c.RenderSec) }

// TailBlocks is the number of event-free blocks rendered after Main.
func (c Config) TailBlocks() int64 { return c.BlocksFor(c.TailSec) }

// OutputFrames is the frame count the output file will contain.
func (c Config) OutputFrames() int64 {
	return (c.MainBlocks() + c.TailBlocks()) * int64(c.BlockSize)
}
