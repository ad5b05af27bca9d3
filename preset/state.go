package preset

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyState is returned when a unit reports no state or a state file is
// empty.
var ErrEmptyState = errors.New("preset: empty state")

// SaveState writes the unit's opaque state blob to path, creating parent
// directories as needed.
func SaveState(u encoding.BinaryMarshaler, path string) error {
	blob, err := u.MarshalBinary()
	if err != nil {
		return fmt.Errorf("capture state: %w", err)
	}
	if len(blob) == 0 {
		return ErrEmptyState
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", path, err)
	}
	return nil
}

// LoadState reads a state blob from path and hands it to the unit.
func LoadState(u encoding.BinaryUnmarshaler, path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read state %s: %w", path, err)
	}
	if len(blob) == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyState)
	}
	if err := u.UnmarshalBinary(blob); err != nil {
		return fmt.Errorf("restore state %s: %w", path, err)
	}
	return nil
}
