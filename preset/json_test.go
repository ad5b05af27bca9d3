package preset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-render/instrument"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesGlobalAndPerNote(t *testing.T) {
	path := writePreset(t, `{
  "output_gain": 0.9,
  "hammer_hardness": 0.8,
  "max_polyphony": 4,
  "per_note": {
    "60": {
      "loss": 0.998,
      "inharmonicity": 0.15,
      "strike_position": 0.22
    },
    "A#3": {"loss": 0.997}
  }
}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.OutputGain != 0.9 || p.HammerHardness != 0.8 || p.MaxPolyphony != 4 {
		t.Fatalf("global fields mismatch: %+v", p)
	}
	def := instrument.DefaultPianoParams()
	if p.Loss != def.Loss || p.ToneCutoffHz != def.ToneCutoffHz {
		t.Fatalf("absent fields should keep defaults: %+v", p)
	}
	np := p.PerNote[60]
	if np == nil {
		t.Fatalf("missing note 60 override")
	}
	if np.Loss != 0.998 || np.Inharmonicity != 0.15 || np.StrikePosition != 0.22 {
		t.Fatalf("note params mismatch: %+v", np)
	}
	if p.PerNote[58] == nil || p.PerNote[58].Loss != 0.997 {
		t.Fatalf("note name key not applied: %+v", p.PerNote)
	}
}

func TestLoadJSONRejectsInvalidNoteKey(t *testing.T) {
	for _, key := range []string{"x", "128", "-1", "C", "C4x"} {
		path := writePreset(t, `{"per_note": {"`+key+`": {"loss": 0.99}}}`)
		if _, err := LoadJSON(path); err == nil {
			t.Fatalf("expected error for note key %q", key)
		}
	}
}

func TestLoadJSONRejectsInvalidRanges(t *testing.T) {
	path := writePreset(t, `{"per_note": {"60": {"loss": 1.2}}}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected error for out-of-range loss")
	}
	path = writePreset(t, `{"max_polyphony": 0}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected error for zero polyphony")
	}
}

func TestLoadJSONMalformed(t *testing.T) {
	_, err := LoadJSON(writePreset(t, `{"output_gain": `))
	require.Error(t, err)
	_, err = LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestApplyFileNilInputs(t *testing.T) {
	require.Error(t, ApplyFile(nil, &File{}))
	p := instrument.DefaultPianoParams()
	require.NoError(t, ApplyFile(&p, nil))
	require.Equal(t, instrument.DefaultPianoParams().OutputGain, p.OutputGain)
}
