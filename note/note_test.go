package note

import "testing"

func TestParsePitch(t *testing.T) {
	cases := map[string]int{
		"C4":   60,
		"c4":   60,
		"A#3":  58,
		"Db5":  73,
		"A4":   69,
		"B3":   59,
		"bb3":  58,
		"C-1":  0,
		"Cb-1": 0,
		"G9":   127,
		"B9":   127,
		"E":    64,
		"F#":   66,
		"Cx":   60,
		"C4x":  60,
		"":     60,
		"H4":   60,
		"#4":   60,
	}
	for in, want := range cases {
		if got := ParsePitch(in); got != want {
			t.Errorf("ParsePitch(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestGenerateTimeline(t *testing.T) {
	g := NewGenerator("C4", 100, 2.0, 44100)
	tl := g.Generate()
	if tl.NoteOnSample != 0 || tl.NoteOffSample != 88200 {
		t.Fatalf("unexpected timeline: %+v", tl)
	}
	// A second call keeps the first result.
	if again := g.Generate(); again != tl {
		t.Fatalf("generate not idempotent: %+v vs %+v", again, tl)
	}
}

func TestGenerateClampsNegativeDuration(t *testing.T) {
	g := NewGenerator("C4", 100, -1, 44100)
	if tl := g.Generate(); tl.NoteOffSample != 0 {
		t.Fatalf("expected note-off at 0, got %d", tl.NoteOffSample)
	}
}

func TestPullEventsBeforeGenerateIsEmpty(t *testing.T) {
	g := NewGenerator("C4", 100, 1, 44100)
	if ev := g.PullEvents(nil, 0, 512); len(ev) != 0 {
		t.Fatalf("expected no events, got %v", ev)
	}
}

func TestPullEventsDeliversEachEventOnce(t *testing.T) {
	const blockSize = 512
	g := NewGenerator("C4", 100, 2.0, 44100)
	g.Generate()

	var (
		ons, offs int
		buf       []Event
	)
	totalBlocks := (88200 + 44100 + blockSize - 1) / blockSize
	for b := 0; b < totalBlocks; b++ {
		start := int64(b * blockSize)
		buf = g.PullEvents(buf, start, blockSize)
		for _, ev := range buf {
			switch ev.Kind {
			case NoteOn:
				ons++
				if b != 0 || ev.Offset != 0 || ev.Pitch != 60 || ev.Velocity != 100 {
					t.Fatalf("unexpected note-on in block %d: %+v", b, ev)
				}
			case NoteOff:
				offs++
				if start+int64(ev.Offset) != 88200 {
					t.Fatalf("note-off at %d, want 88200", start+int64(ev.Offset))
				}
				if b != 88200/blockSize {
					t.Fatalf("note-off in block %d, want %d", b, 88200/blockSize)
				}
			}
		}
	}
	if ons != 1 || offs != 1 {
		t.Fatalf("expected exactly one note-on and one note-off, got %d/%d", ons, offs)
	}
}

func TestPullEventsHalfOpenWindow(t *testing.T) {
	// 512 samples at 512 Hz: note-off lands exactly on the second block start.
	g := NewGenerator("A4", 64, 1.0, 512)
	g.Generate()

	first := g.PullEvents(nil, 0, 512)
	if len(first) != 1 || first[0].Kind != NoteOn {
		t.Fatalf("first block: %v", first)
	}
	second := g.PullEvents(nil, 512, 512)
	if len(second) != 1 || second[0].Kind != NoteOff || second[0].Offset != 0 {
		t.Fatalf("second block: %v", second)
	}
	if g.Position() != 1024 {
		t.Fatalf("position = %d, want 1024", g.Position())
	}
}

func TestPullEventsZeroDurationOrdersOnBeforeOff(t *testing.T) {
	g := NewGenerator("C4", 90, 0, 48000)
	g.Generate()
	ev := g.PullEvents(nil, 0, 128)
	if len(ev) != 2 || ev[0].Kind != NoteOn || ev[1].Kind != NoteOff {
		t.Fatalf("unexpected order: %v", ev)
	}
}

func TestResetKeepsTimeline(t *testing.T) {
	g := NewGenerator("C4", 100, 0.5, 1000)
	tl := g.Generate()
	g.PullEvents(nil, 0, 256)
	g.Reset()
	if g.Position() != 0 {
		t.Fatalf("position not rewound: %d", g.Position())
	}
	if g.Timeline() != tl {
		t.Fatalf("timeline changed after reset")
	}
	if ev := g.PullEvents(nil, 0, 256); len(ev) != 1 {
		t.Fatalf("expected note-on again after reset, got %v", ev)
	}
}

func TestVelocityClamped(t *testing.T) {
	if v := NewGenerator("C4", 300, 1, 100).Velocity(); v != 127 {
		t.Fatalf("velocity = %d", v)
	}
	if v := NewGenerator("C4", -3, 1, 100).Velocity(); v != 0 {
		t.Fatalf("velocity = %d", v)
	}
}
