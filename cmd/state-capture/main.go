package main

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/algo-render/instrument"
	"github.com/cwbudde/algo-render/internal/logging"
	"github.com/cwbudde/algo-render/internal/paths"
	"github.com/cwbudde/algo-render/preset"
	"github.com/cwbudde/algo-render/render"
)

// CLI defines the command-line interface
type CLI struct {
	Unit   string `short:"u" default:"Piano" env:"RENDER_UNIT" help:"Unit name (case-insensitive substring match)"`
	Name   string `arg:"" help:"State name; written to <data>/preset_states/<name>.state"`
	Preset string `type:"existingfile" help:"Piano preset JSON to apply before capturing"`
	From   string `type:"existingfile" help:"Existing state blob to start from"`
	Data   string `default:"data" env:"RENDER_DATA_DIR" type:"path" help:"Data directory"`
	Cache  string `type:"path" help:"Unit discovery cache (default <data>/unit_cache.json)"`
	Output string `short:"o" type:"path" help:"Explicit state file path"`
	Quiet  bool   `short:"q" help:"Only print warnings and errors"`
}

var errNoState = errors.New("unit does not expose a state blob")

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("state-capture"),
		kong.Description("Capture a processing unit's state blob for later batch renders"),
		kong.UsageOnError(),
	)
	log := logging.New(os.Stderr, cli.Quiet)
	if err := run(cli, log, os.Stdout); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cli *CLI, log *logging.Logger, stdout io.Writer) error {
	layout := paths.New(cli.Data)
	cachePath := cli.Cache
	if cachePath == "" {
		cachePath = layout.CacheFile()
	}

	catalog := instrument.NewCatalog()
	if err := catalog.LoadOrScan(cachePath); err != nil {
		return fmt.Errorf("scan units: %w", err)
	}
	desc, err := catalog.FindByName(cli.Unit)
	if err != nil {
		return fmt.Errorf("unit %q: %w", cli.Unit, err)
	}
	unit, err := catalog.Instantiate(desc)
	if err != nil {
		return fmt.Errorf("create unit %s: %w", desc.Name, err)
	}
	log.Infof("capturing %s by %s", desc.Name, desc.Vendor)

	if cli.From != "" {
		u, ok := unit.(encoding.BinaryUnmarshaler)
		if !ok {
			return fmt.Errorf("%s: %w", desc.Name, errNoState)
		}
		if err := preset.LoadState(u, cli.From); err != nil {
			return err
		}
		log.Infof("starting from %s", cli.From)
	}
	if cli.Preset != "" {
		if err := applyPreset(unit, cli.Preset); err != nil {
			return err
		}
		log.Infof("applied preset %s", cli.Preset)
	}

	m, ok := unit.(encoding.BinaryMarshaler)
	if !ok {
		return fmt.Errorf("%s: %w", desc.Name, errNoState)
	}
	out := cli.Output
	if out == "" {
		out = layout.StatePath(cli.Name)
	}
	if err := preset.SaveState(m, out); err != nil {
		return err
	}
	fmt.Fprintln(stdout, logging.KV("State", out))
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
