package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/algo-render/analysis"
	"github.com/cwbudde/algo-render/instrument"
	"github.com/cwbudde/algo-render/internal/hash"
	"github.com/cwbudde/algo-render/internal/logging"
	"github.com/cwbudde/algo-render/internal/paths"
	"github.com/cwbudde/algo-render/note"
	"github.com/cwbudde/algo-render/preset"
	"github.com/cwbudde/algo-render/render"
	"github.com/cwbudde/algo-render/stats"
	"github.com/cwbudde/algo-render/wavstream"
)

var version = "0.1.0"

// errSilent marks a render that finished but produced no audible output.
var errSilent = errors.New("audio appears to be silent, check the unit state")

// CLI defines the command-line interface
type CLI struct {
	Unit       string  `short:"u" default:"Piano" env:"RENDER_UNIT" help:"Unit name (case-insensitive substring match)"`
	Note       string  `short:"n" default:"C4" env:"RENDER_NOTE" help:"Note name, e.g. C4, A#3, Db5"`
	Velocity   int     `default:"100" env:"RENDER_VELOCITY" help:"MIDI velocity (0-127)"`
	Hold       float64 `default:"0" env:"RENDER_HOLD_SEC" help:"Seconds until note-off (0 = whole main phase)"`
	SampleRate float64 `default:"44100" env:"RENDER_SAMPLE_RATE" help:"Render sample rate in Hz"`
	BlockSize  int     `default:"512" env:"RENDER_BLOCK_SIZE" help:"Frames per processing block"`
	Warmup     float64 `default:"0.2" env:"RENDER_WARMUP_SEC" help:"Discarded warmup before the note timeline starts"`
	Duration   float64 `default:"2.0" env:"RENDER_DURATION_SEC" help:"Main phase length in seconds"`
	Tail       float64 `default:"1.0" env:"RENDER_TAIL_SEC" help:"Tail length after the main phase"`

	Data      string `default:"data" env:"RENDER_DATA_DIR" type:"path" help:"Data directory (outwav, outmeta, preset_states)"`
	Output    string `short:"o" type:"path" help:"Output WAV path (default <data>/outwav/<unit>_<note>.wav)"`
	Cache     string `type:"path" help:"Unit discovery cache (default <data>/unit_cache.json)"`
	State     string `type:"path" help:"Unit state blob to load before rendering"`
	Preset    string `type:"existingfile" help:"Piano preset JSON applied before rendering"`
	Reference string `type:"existingfile" help:"Previous render to compare against"`
	NoMeta    bool   `help:"Do not write the metadata sidecar"`
	Verify    bool   `help:"Read the output back and print an envelope summary"`
	List      bool   `help:"List available units and exit"`
	Quiet     bool   `short:"q" help:"Only print warnings and errors"`
	Version   bool   `short:"v" help:"Show version information"`
}

// Metadata is written next to each render.
type Metadata struct {
	Unit       string               `json:"unit"`
	Note       string               `json:"note"`
	Pitch      int                  `json:"pitch"`
	Velocity   int                  `json:"velocity"`
	HoldSec    float64              `json:"hold_sec"`
	Config     render.Config        `json:"config"`
	Result     render.Result        `json:"result"`
	PeakDBFS   float64              `json:"peak_dbfs"`
	RMSDBFS    float64              `json:"rms_dbfs"`
	WAV        string               `json:"wav"`
	SHA256     string               `json:"sha256"`
	State      string               `json:"state,omitempty"`
	Summary    *analysis.Summary    `json:"summary,omitempty"`
	Difference *analysis.Difference `json:"difference,omitempty"`
	RenderedAt time.Time            `json:"rendered_at"`
	ElapsedSec float64              `json:"elapsed_sec"`
}

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("batch-render"),
		kong.Description("Render one note through a processing unit to a 24-bit WAV file"),
		kong.UsageOnError(),
	)
	if cli.Version {
		fmt.Printf("%s %s\n", logging.KeyStyle.Render("batch-render"), logging.ValueStyle.Render(version))
		return
	}

	log := logging.New(os.Stderr, cli.Quiet)
	if err := run(cli, log, os.Stdout); err != nil {
		if errors.Is(err, errSilent) {
			log.Warnf("WARNING: %v", err)
		} else {
			log.Errorf("%v", err)
		}
		os.Exit(1)
	}
}

func run(cli *CLI, log *logging.Logger, stdout io.Writer) error {
	layout := paths.New(cli.Data)

	catalog := instrument.NewCatalog()
	cachePath := cli.Cache
	if cachePath == "" {
		cachePath = layout.CacheFile()
	}
	log.Infof("loading unit catalog (%s)", cachePath)
	if err := catalog.LoadOrScan(cachePath); err != nil {
		return fmt.Errorf("scan units: %w", err)
	}
	if cli.List {
		for _, d := range catalog.Descriptors() {
			fmt.Fprintf(stdout, "%s\t%s\t%s\t%dch\n", d.Name, d.Vendor, d.Category, d.Channels)
		}
		return nil
	}

	desc, err := catalog.FindByName(cli.Unit)
	if err != nil {
		return fmt.Errorf("unit %q: %w", cli.Unit, err)
	}
	log.Infof("found %s by %s", desc.Name, desc.Vendor)

	unit, err := catalog.Instantiate(desc)
	if err != nil {
		return fmt.Errorf("create unit %s: %w", desc.Name, err)
	}
	log.Infof("output channels: %d", unit.OutputChannels())

	if cli.Preset != "" {
		if err := applyPreset(unit, cli.Preset); err != nil {
			return err
		}
		log.Infof("applied preset %s", cli.Preset)
	}
	if cli.State != "" {
		if err := loadState(unit, cli.State); err != nil {
			return err
		}
		log.Infof("restored state from %s", cli.State)
	}

	cfg := render.Config{
		SampleRate: cli.SampleRate,
		BlockSize:  cli.BlockSize,
		WarmupSec:  cli.Warmup,
		RenderSec:  cli.Duration,
		TailSec:    cli.Tail,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	hold := cli.Hold
	if hold <= 0 {
		hold = cli.Duration
	}
	gen := note.NewGenerator(cli.Note, cli.Velocity, hold, cfg.SampleRate)
	tl := gen.Generate()
	log.Infof("note %s (MIDI %d) velocity %d, off at sample %d", cli.Note, gen.Pitch(), gen.Velocity(), tl.NoteOffSample)

	name := renderName(desc.Name, cli.Note)
	out := cli.Output
	if out == "" {
		out = layout.WavPath(name)
	}

	start := time.Now()
	r := render.New(unit, gen, cfg, render.WithLogf(log.Infof))
	res, err := r.RenderToFile(out)
	if err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}
	elapsed := time.Since(start)

	printResult(stdout, out, res, elapsed)

	meta := Metadata{
		Unit:       desc.Name,
		Note:       cli.Note,
		Pitch:      gen.Pitch(),
		Velocity:   gen.Velocity(),
		HoldSec:    hold,
		Config:     cfg,
		Result:     res,
		PeakDBFS:   res.Stats.PeakDBFS(),
		RMSDBFS:    res.Stats.RMSDBFS(),
		WAV:        out,
		State:      cli.State,
		RenderedAt: start.UTC(),
		ElapsedSec: elapsed.Seconds(),
	}

	if cli.Verify || cli.Reference != "" {
		if err := inspect(stdout, out, cli.Reference, &meta); err != nil {
			return err
		}
	}

	if !cli.NoMeta {
		sum, err := hash.SHA256File(out)
		if err != nil {
			return err
		}
		meta.SHA256 = sum
		metaPath := layout.MetaPath(strings.TrimSuffix(filepath.Base(out), filepath.Ext(out)))
		if err := writeMetadata(metaPath, meta); err != nil {
			return err
		}
		log.Infof("metadata: %s", metaPath)
	}

	if res.Stats.Silent(stats.DefaultSilenceThreshold) {
		return errSilent
	}
	return nil
}

func applyPreset(unit render.Unit, path string) error {
	p, ok := unit.(*instrument.Piano)
	if !ok {
		return fmt.Errorf("preset %s: unit %T does not take piano presets", path, unit)
	}
	params, err := preset.LoadJSON(path)
	if err != nil {
		return err
	}
	return p.SetParams(*params)
}

func loadState(unit render.Unit, path string) error {
	u, ok := unit.(interface{ UnmarshalBinary([]byte) error })
	if !ok {
		return fmt.Errorf("state %s: unit %T has no restorable state", path, unit)
	}
	return preset.LoadState(u, path)
}

func inspect(stdout io.Writer, out, reference string, meta *Metadata) error {
	f, err := wavstream.Read(out)
	if err != nil {
		return fmt.Errorf("read back %s: %w", out, err)
	}
	mono := f.Mono()
	s := analysis.Summarize(mono, f.SampleRate)
	meta.Summary = &s
	fmt.Fprintln(stdout, logging.KV("Summary", s))

	if reference == "" {
		return nil
	}
	ref, err := wavstream.Read(reference)
	if err != nil {
		return fmt.Errorf("read reference %s: %w", reference, err)
	}
	if ref.SampleRate != f.SampleRate {
		return fmt.Errorf("reference %s: sample rate %d Hz, render is %d Hz", reference, ref.SampleRate, f.SampleRate)
	}
	d := analysis.Diff(ref.Mono(), mono, f.SampleRate/100)
	meta.Difference = &d
	verdict := "identical"
	if !d.Identical() {
		verdict = fmt.Sprintf("lag %d, max %.2e, rmse %.2e", d.Lag, d.MaxAbs, d.RMSE)
		if d.RefLen != d.CandLen {
			verdict += fmt.Sprintf(", length %d vs %d frames", d.CandLen, d.RefLen)
		}
	}
	fmt.Fprintln(stdout, logging.KV("Reference", verdict))
	return nil
}

func printResult(w io.Writer, path string, res render.Result, elapsed time.Duration) {
	st := res.Stats
	size := "?"
	if fi, err := os.Stat(path); err == nil {
		size = fmt.Sprintf("%d KB", fi.Size()/1024)
	}
	fmt.Fprintln(w, logging.KV("Output", path))
	fmt.Fprintln(w, logging.KV("File size", size))
	fmt.Fprintln(w, logging.KV("Frames", fmt.Sprintf("%d (%d ch)", res.FramesWritten, res.Channels)))
	fmt.Fprintln(w, logging.KV("Peak", fmt.Sprintf("L %.4f, R %.4f (%.1f dBFS)", st.PeakL, st.PeakR, st.PeakDBFS())))
	fmt.Fprintln(w, logging.KV("RMS", fmt.Sprintf("L %.4f, R %.4f (%.1f dBFS)", st.RMSL, st.RMSR, st.RMSDBFS())))
	fmt.Fprintln(w, logging.KV("Elapsed", elapsed.Round(time.Millisecond)))
}

func writeMetadata(path string, meta Metadata) error {
	if err := paths.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func renderName(unit, noteName string) string {
	clean := strings.NewReplacer("#", "s", " ", "_", "/", "_").Replace(noteName)
	return strings.ToLower(unit) + "_" + clean
}
