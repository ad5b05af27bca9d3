// Package instrument provides the built-in processing units and the catalog
// used to look them up by name and instantiate them.
package instrument

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-render/render"
)

// ErrNotFound is returned when no descriptor matches a lookup.
var ErrNotFound = errors.New("instrument: not found")

// Descriptor identifies an instantiable unit.
type Descriptor struct {
	Name     string `json:"name"`
	Vendor   string `json:"vendor"`
	Category string `json:"category"`
	Channels int    `json:"channels"`
}

// Factory constructs a fresh unit instance.
type Factory func() (render.Unit, error)

// Catalog maps descriptors to factories.
type Catalog struct {
	descs     []Descriptor
	factories map[string]Factory
}

// NewCatalog returns an empty catalog with the built-in factories available
// for instantiation. Call Scan or LoadOrScan to populate descriptors.
func NewCatalog() *Catalog {
	c := &Catalog{factories: map[string]Factory{}}
	for _, b := range builtins() {
		c.factories[b.desc.Name] = b.factory
	}
	return c
}

type builtin struct {
	desc    Descriptor
	factory Factory
}

func builtins() []builtin {
	return []builtin{
		{
			desc: Descriptor{Name: "Piano", Vendor: "algo-render", Category: "Instrument|Piano", Channels: 2},
			factory: func() (render.Unit, error) {
				return NewPiano(nil), nil
			},
		},
		{
			desc: Descriptor{Name: "Sine", Vendor: "algo-render", Category: "Instrument|Generator", Channels: 1},
			factory: func() (render.Unit, error) {
				return NewSine(), nil
			},
		},
	}
}

// Register adds or replaces a unit.
func (c *Catalog) Register(d Descriptor, f Factory) {
	c.factories[d.Name] = f
	for i := range c.descs {
		if c.descs[i].Name == d.Name {
			c.descs[i] = d
			return
		}
	}
	c.descs = append(c.descs, d)
}

// Scan registers every built-in unit and returns the descriptor count.
func (c *Catalog) Scan() int {
	for _, b := range builtins() {
		c.Register(b.desc, b.factory)
	}
	return len(c.descs)
}

// Descriptors returns the known descriptors in registration order.
func (c *Catalog) Descriptors() []Descriptor {
	return append([]Descriptor(nil), c.descs...)
}

// FindByName returns the first descriptor whose name contains substr,
// ignoring case.
func (c *Catalog) FindByName(substr string) (Descriptor, error) {
	needle := strings.ToLower(strings.TrimSpace(substr))
	for _, d := range c.descs {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: no unit matching %q", ErrNotFound, substr)
}

// Instantiate creates a new unit for d.
func (c *Catalog) Instantiate(d Descriptor) (render.Unit, error) {
	f, ok := c.factories[d.Name]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: no factory for %q", ErrNotFound, d.Name)
	}
	u, err := f()
	if err != nil {
		return nil, fmt.Errorf("instantiate %q: %w", d.Name, err)
	}
	return u, nil
}

type cacheFile struct {
	Units []Descriptor `json:"units"`
}

// LoadCache replaces the descriptor list with the contents of a cache file.
func (c *Catalog) LoadCache(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f cacheFile
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse unit cache %s: %w", path, err)
	}
	c.descs = append(c.descs[:0], f.Units...)
	return nil
}

// SaveCache writes the descriptor list to path.
func (c *Catalog) SaveCache(path string) error {
	b, err := json.MarshalIndent(cacheFile{Units: c.descs}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadOrScan loads descriptors from the cache at path. When the cache is
// missing, unreadable or empty it scans and rewrites the cache. It fails
// only when no units are available afterwards.
func (c *Catalog) LoadOrScan(path string) error {
	if path != "" {
		if err := c.LoadCache(path); err == nil && len(c.descs) > 0 {
			return nil
		}
	}
	c.descs = c.descs[:0]
	if c.Scan() == 0 {
		return fmt.Errorf("%w: no units available", ErrNotFound)
	}
	if path == "" {
		return nil
	}
	return c.SaveCache(path)
}
