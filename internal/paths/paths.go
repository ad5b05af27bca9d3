// Package paths describes the on-disk layout of render outputs.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout is a data directory with fixed subdirectories.
type Layout struct {
	Root string
}

// DefaultRoot is used when no data directory is configured.
const DefaultRoot = "data"

// New returns the layout rooted at root, or DefaultRoot when empty.
func New(root string) Layout {
	if root == "" {
		root = DefaultRoot
	}
	return Layout{Root: root}
}

func (l Layout) OutputWavDir() string { return filepath.Join(l.Root, "outwav") }
func (l Layout) OutputMetaDir() string { return filepath.Join(l.Root, "outmeta") }
func (l Layout) PresetStatesDir() string { return filepath.Join(l.Root, "preset_states") }
func (l Layout) CacheFile() string { return filepath.Join(l.Root, "unit_cache.json") }

// WavPath is the rendered file for name.
func (l Layout) WavPath(name string) string {
	return filepath.Join(l.OutputWavDir(), name+".wav")
}

// MetaPath is the metadata sidecar for name.
func (l Layout) MetaPath(name string) string {
	return filepath.Join(l.OutputMetaDir(), name+".json")
}

// StatePath is the saved state blob for name.
func (l Layout) StatePath(name string) string {
	return filepath.Join(l.PresetStatesDir(), name+".state")
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
