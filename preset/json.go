package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-render/instrument"
	"github.com/cwbudde/algo-render/note"
)

// File is the JSON schema for piano presets. Absent fields keep defaults.
type File struct {
	OutputGain        *float32               `json:"output_gain"`
	Loss              *float32               `json:"loss"`
	HighFreqDamping   *float32               `json:"high_freq_damping"`
	Inharmonicity     *float32               `json:"inharmonicity"`
	StrikePosition    *float32               `json:"strike_position"`
	DamperLoss        *float32               `json:"damper_loss"`
	HammerHardness    *float32               `json:"hammer_hardness"`
	UnisonDetuneScale *float32               `json:"unison_detune_scale"`
	ToneCutoffHz      *float64               `json:"tone_cutoff_hz"`
	MaxPolyphony      *int                   `json:"max_polyphony"`
	PerNote           map[string]NoteSetting `json:"per_note"`
}

// NoteSetting is a partial note override entry in a preset file. Keys are
// MIDI numbers or note names ("60", "C4", "A#3").
type NoteSetting struct {
	Loss           *float32 `json:"loss"`
	Inharmonicity  *float32 `json:"inharmonicity"`
	StrikePosition *float32 `json:"strike_position"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*instrument.PianoParams, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", path, err)
	}

	p := instrument.DefaultPianoParams()
	if err := ApplyFile(&p, &f); err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *instrument.PianoParams, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	setF32 := func(dst *float32, v *float32) {
		if v != nil {
			*dst = *v
		}
	}
	setF32(&dst.OutputGain, f.OutputGain)
	setF32(&dst.Loss, f.Loss)
	setF32(&dst.HighFreqDamping, f.HighFreqDamping)
	setF32(&dst.Inharmonicity, f.Inharmonicity)
	setF32(&dst.StrikePosition, f.StrikePosition)
	setF32(&dst.DamperLoss, f.DamperLoss)
	setF32(&dst.HammerHardness, f.HammerHardness)
	setF32(&dst.UnisonDetuneScale, f.UnisonDetuneScale)
	if f.ToneCutoffHz != nil {
		dst.ToneCutoffHz = *f.ToneCutoffHz
	}
	if f.MaxPolyphony != nil {
		dst.MaxPolyphony = *f.MaxPolyphony
	}

	if len(f.PerNote) > 0 {
		if dst.PerNote == nil {
			dst.PerNote = make(map[int]*instrument.NoteParams)
		}
		keys := make([]string, 0, len(f.PerNote))
		for k := range f.PerNote {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n, err := parseNoteKey(k)
			if err != nil {
				return err
			}
			override := f.PerNote[k]
			np, ok := dst.PerNote[n]
			if !ok || np == nil {
				np = &instrument.NoteParams{}
				dst.PerNote[n] = np
			}
			setF32(&np.Loss, override.Loss)
			setF32(&np.Inharmonicity, override.Inharmonicity)
			setF32(&np.StrikePosition, override.StrikePosition)
		}
	}
	return dst.Validate()
}

func parseNoteKey(k string) (int, error) {
	k = strings.TrimSpace(k)
	if n, err := strconv.Atoi(k); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("invalid per_note key %q (expected 0..127)", k)
		}
		return n, nil
	}
	if isNoteName(k) {
		return note.ParsePitch(k), nil
	}
	return 0, fmt.Errorf("invalid per_note key %q (expected 0..127 or a note name)", k)
}

// isNoteName accepts letter, optional accidental and a signed octave, with
// nothing trailing.
func isNoteName(k string) bool {
	if k == "" || !strings.ContainsRune("ABCDEFGabcdefg", rune(k[0])) {
		return false
	}
	rest := k[1:]
	if rest != "" && (rest[0] == '#' || rest[0] == 'b') {
		rest = rest[1:]
	}
	rest = strings.TrimPrefix(rest, "-")
	if rest == "" {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}
