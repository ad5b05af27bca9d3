package note

// MiddleC is the MIDI number returned for names that cannot be parsed.
const MiddleC = 60

const defaultOctave = 4

var pitchClasses = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// ParsePitch converts a note name like "C4", "A#3" or "Db5" to a MIDI note
// number in [0,127]. C4 is 60. A missing or unreadable octave means octave 4;
// an empty name or unknown letter yields MiddleC.
func ParsePitch(name string) int {
	if name == "" {
		return MiddleC
	}
	class, ok := pitchClasses[name[0]]
	if !ok {
		return MiddleC
	}

	accidental := 0
	rest := name[1:]
	if len(rest) > 0 {
		switch rest[0] {
		case '#':
			accidental = 1
			rest = rest[1:]
		case 'b':
			accidental = -1
			rest = rest[1:]
		}
	}

	octave, ok := leadingInt(rest)
	if !ok {
		octave = defaultOctave
	}
	return clampMIDI((octave+1)*12 + class + accidental)
}

// leadingInt parses an optionally signed run of decimal digits at the start
// of s. Trailing characters are ignored.
func leadingInt(s string) (int, bool) {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		if n < 1000 {
			n = n*10 + int(s[i]-'0')
		}
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func clampMIDI(v int) int {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}
