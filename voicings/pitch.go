package voicings

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"chordviz/notes"
)

// unmarked voicing notes sit in the octave of middle C
const baseOctave = 4

// KeyID converts a voicing note like "e", "bb-", "f#++" or "d+8" to a key id.
// Each '+' raises the note an octave and each '-' lowers it; duration digits
// are ignored.
func KeyID(token string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(token))
	s = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s)
	if s == "" || s[0] < 'a' || s[0] > 'g' {
		return 0, badPitch(token, "must start with a note letter")
	}

	letter, rest := s[:1], s[1:]
	accidental := 0
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			accidental++
		} else {
			accidental--
		}
		rest = rest[1:]
	}

	octave := baseOctave
	switch {
	case rest == "":
	case strings.Trim(rest, "+") == "":
		octave += len(rest)
	case strings.Trim(rest, "-") == "":
		octave -= len(rest)
	default:
		return 0, badPitch(token, fmt.Sprintf("unexpected %q", rest))
	}

	base, err := notes.FromName(fmt.Sprintf("%s%d", letter, baseOctave))
	if err != nil {
		return 0, err
	}
	id := base + accidental + 12*(octave-baseOctave)
	if id < notes.MinID || id > notes.MaxID {
		return 0, fault.Wrap(notes.ErrOutOfRange,
			fmsg.WithDesc(fmt.Sprintf("%q is key %d", token, id), fmt.Sprintf("voicing note %q is off the keyboard", token)),
			ftag.With(ftag.InvalidArgument))
	}
	return id, nil
}

// KeyIDs converts a list of voicing notes
func KeyIDs(tokens []string) ([]int, error) {
	ids := make([]int, 0, len(tokens))
	for _, t := range tokens {
		id, err := KeyID(t)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func badPitch(token, why string) error {
	return fault.Wrap(ErrBadPitch,
		fmsg.WithDesc(fmt.Sprintf("%q: %s", token, why), fmt.Sprintf("%q is not a voicing note", token)),
		ftag.With(ftag.InvalidArgument))
}
