// Package render drives a processing unit offline through warmup, main and
// tail phases and streams the audible phases to a WAV file.
//
// A render is synchronous and single-threaded: block boundaries, event
// placement and output bytes depend only on the configuration and the unit,
// never on host timing.
package render

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-render/buffer"
	"github.com/cwbudde/algo-render/note"
	"github.com/cwbudde/algo-render/stats"
	"github.com/cwbudde/algo-render/wavstream"
)

// State is the renderer's position in the phase sequence.
type State int

const (
	Idle State = iota
	Warmup
	Main
	Tail
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Warmup:
		return "warmup"
	case Main:
		return "main"
	case Tail:
		return "tail"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const progressEvery = 100

// ProgressFunc is called after each block with the phase, the number of
// blocks completed in it and the phase total.
type ProgressFunc func(phase State, done int64, total int64)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogf routes renderer diagnostics to logf.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(r *Renderer) {
		if logf != nil {
			r.logf = logf
		}
	}
}

// WithProgress registers a per-block progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Renderer) { r.progress = fn }
}

// Result describes a finished render.
type Result struct {
	Stats         stats.Stats `json:"stats"`
	Channels      int         `json:"channels"`
	WarmupBlocks  int64       `json:"warmup_blocks"`
	MainBlocks    int64       `json:"main_blocks"`
	TailBlocks    int64       `json:"tail_blocks"`
	FramesWritten int64       `json:"frames_written"`
	Events        int         `json:"events"`
}

// Renderer renders one unit against one event source. It is not safe for
// concurrent use.
type Renderer struct {
	unit     Unit
	events   EventSource
	cfg      Config
	logf     func(format string, args ...any)
	progress ProgressFunc

	state  State
	evbuf  []note.Event
	cursor int64

	openSink func(path string, sampleRate int, channels int) (blockSink, error)
}

// blockSink is the part of wavstream.Writer the renderer uses.
type blockSink interface {
	WriteBlock(b *buffer.Block) error
	Close() error
}

func openWAV(path string, sampleRate int, channels int) (blockSink, error) {
	return wavstream.Create(path, sampleRate, channels)
}

// New binds a renderer to unit and events. events may be nil, in which case
// the unit never receives events.
func New(unit Unit, events EventSource, cfg Config, opts ...Option) *Renderer {
	r := &Renderer{
		unit:   unit,
		events: events,
		cfg:    cfg,
		logf:   func(string, ...any) {},
		evbuf:  make([]note.Event, 0, 4),

		openSink: openWAV,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current phase; Done or Failed after a render.
func (r *Renderer) State() State { return r.state }

// Config returns the bound configuration.
func (r *Renderer) Config() Config { return r.cfg }

// RenderToFile runs warmup, main and tail and writes main and tail to path.
// The first failure aborts the render. The output file is closed and the
// unit released on every path once they have been acquired.
func (r *Renderer) RenderToFile(path string) (res Result, err error) {
	r.state = Idle
	defer func() {
		if err != nil {
			r.state = Failed
			r.logf("render failed: %v", err)
		}
	}()

	if r.unit == nil {
		return res, fmt.Errorf("%w: nil unit", ErrInvalidConfig)
	}
	if err := r.cfg.Validate(); err != nil {
		return res, err
	}

	cfg := r.cfg
	r.logf("starting offline render: %.0f Hz, block %d, warmup %gs, render %gs, tail %gs",
		cfg.SampleRate, cfg.BlockSize, cfg.WarmupSec, cfg.RenderSec, cfg.TailSec)

	if err := r.unit.Prepare(cfg.SampleRate, cfg.BlockSize); err != nil {
		return res, fmt.Errorf("prepare unit: %w", err)
	}
	defer r.unit.Release()
	r.unit.SetNonRealtime(true)

	channels := max(2, r.unit.OutputChannels())
	w, err := r.openSink(path, int(math.Round(cfg.SampleRate)), channels)
	if err != nil {
		return res, fmt.Errorf("open output: %w", err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	res.Channels = channels
	res.WarmupBlocks = cfg.WarmupBlocks()
	res.MainBlocks = cfg.MainBlocks()
	res.TailBlocks = cfg.TailBlocks()

	block := buffer.New(channels, cfg.BlockSize)

	r.state = Warmup
	if res.WarmupBlocks > 0 {
		r.logf("warmup phase: %d blocks", res.WarmupBlocks)
	}
	for i := int64(0); i < res.WarmupBlocks; i++ {
		block.Clear()
		r.unit.Process(block, nil)
		r.report(Warmup, i+1, res.WarmupBlocks)
	}

	if r.events != nil {
		r.events.Reset()
	}
	r.cursor = 0

	r.state = Main
	r.logf("main render phase: %d blocks", res.MainBlocks)
	for i := int64(0); i < res.MainBlocks; i++ {
		block.Clear()
		evs := r.pull()
		res.Events += len(evs)
		r.unit.Process(block, evs)
		if err := r.emit(w, block, &res); err != nil {
			return res, fmt.Errorf("main block %d: %w", i, err)
		}
		r.cursor += int64(cfg.BlockSize)
		if i > 0 && i%progressEvery == 0 {
			r.logf("rendered %d / %d blocks", i, res.MainBlocks)
		}
		r.report(Main, i+1, res.MainBlocks)
	}

	r.state = Tail
	if res.TailBlocks > 0 {
		r.logf("tail phase: %d blocks", res.TailBlocks)
	}
	for i := int64(0); i < res.TailBlocks; i++ {
		block.Clear()
		r.unit.Process(block, nil)
		if err := r.emit(w, block, &res); err != nil {
			return res, fmt.Errorf("tail block %d: %w", i, err)
		}
		r.report(Tail, i+1, res.TailBlocks)
	}

	res.Stats.Finalize()
	r.state = Done
	r.logf("render complete: %s", res.Stats)
	return res, nil
}

func (r *Renderer) pull() []note.Event {
	if r.events == nil {
		return nil
	}
	r.evbuf = r.events.PullEvents(r.evbuf, r.cursor, r.cfg.BlockSize)
	return r.evbuf
}

func (r *Renderer) emit(w blockSink, block *buffer.Block, res *Result) error {
	if err := w.WriteBlock(block); err != nil {
		return err
	}
	res.Stats.Update(block)
	res.FramesWritten += int64(block.Frames())
	return nil
}

func (r *Renderer) report(phase State, done, total int64) {
	if r.progress != nil {
		r.progress(phase, done, total)
	}
}
