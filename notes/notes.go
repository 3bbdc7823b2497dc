package notes

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Key id limits. C0 is the lowest key a note name can address.
const (
	MinID = 12
	MaxID = 127
	C0    = 12
)

var (
	ErrInvalidNote   = errors.New("invalid note name")
	ErrOutOfRange    = errors.New("note outside playable range")
	ErrInvertedRange = errors.New("range start is above range end")
)

var noteRegex = regexp.MustCompile(`^([a-g])([#b]?)(\d{1,2})$`)

var pitchIndex = map[string]int{
	"c": 0, "d": 2, "e": 4, "f": 5, "g": 7, "a": 9, "b": 11,
}

var accidentalOffset = map[string]int{
	"": 0, "#": 1, "b": -1,
}

var sharpNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FromName converts a note name like "c4", "F#3" or "bb2" to its key id.
// C4 is 60.
func FromName(name string) (int, error) {
	m := noteRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(name)))
	if m == nil {
		return 0, fault.Wrap(ErrInvalidNote,
			fmsg.WithDesc(fmt.Sprintf("parse %q", name), fmt.Sprintf("%q is not a note name (expected e.g. c4, f#3)", name)),
			ftag.With(ftag.InvalidArgument))
	}

	octave, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, fault.Wrap(ErrInvalidNote, fmsg.With(fmt.Sprintf("parse octave of %q", name)), ftag.With(ftag.InvalidArgument))
	}

	id := C0 + pitchIndex[m[1]] + accidentalOffset[m[2]] + 12*octave
	if id < MinID || id > MaxID {
		return 0, fault.Wrap(ErrOutOfRange,
			fmsg.WithDesc(fmt.Sprintf("%q is key %d", name, id), fmt.Sprintf("%q is outside %s–%s", name, Name(MinID), Name(MaxID))),
			ftag.With(ftag.InvalidArgument))
	}
	return id, nil
}

// MustFromName panics on bad input; for package-level defaults only.
func MustFromName(name string) int {
	id, err := FromName(name)
	if err != nil {
		panic(err)
	}
	return id
}

// Name returns the sharp spelling of a key id, e.g. "C#4"
func Name(id int) string {
	octave := id/12 - 1
	return fmt.Sprintf("%s%d", sharpNames[((id%12)+12)%12], octave)
}

// PitchClass returns the letter part of Name without the octave
func PitchClass(id int) string {
	return sharpNames[((id%12)+12)%12]
}

// IsAccidental reports whether the key is a black key
func IsAccidental(id int) bool {
	switch ((id % 12) + 12) % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// Range is an inclusive span of key ids
type Range struct {
	First int
	Last  int
}

// NewRange parses both ends and checks First <= Last
func NewRange(first, last string) (Range, error) {
	f, err := FromName(first)
	if err != nil {
		return Range{}, fault.Wrap(err, fmsg.With("range start"))
	}
	l, err := FromName(last)
	if err != nil {
		return Range{}, fault.Wrap(err, fmsg.With("range end"))
	}
	r := Range{First: f, Last: l}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate checks bounds and ordering
func (r Range) Validate() error {
	if r.First < MinID || r.Last > MaxID {
		return fault.Wrap(ErrOutOfRange, fmsg.With(r.String()), ftag.With(ftag.InvalidArgument))
	}
	if r.First > r.Last {
		return fault.Wrap(ErrInvertedRange,
			fmsg.WithDesc(r.String(), fmt.Sprintf("range start %s is above range end %s", Name(r.First), Name(r.Last))),
			ftag.With(ftag.InvalidArgument))
	}
	return nil
}

func (r Range) Contains(id int) bool {
	return id >= r.First && id <= r.Last
}

func (r Range) Len() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

// IDs lists every key id in the range in ascending order
func (r Range) IDs() []int {
	ids := make([]int, 0, r.Len())
	for id := r.First; id <= r.Last; id++ {
		ids = append(ids, id)
	}
	return ids
}

func (r Range) String() string {
	return fmt.Sprintf("%s–%s", Name(r.First), Name(r.Last))
}

// Set holds the active key ids of a chord
type Set map[int]struct{}

func NewSet(ids ...int) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order
func (s Set) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Names spells the set, lowest first
func (s Set) Names() []string {
	ids := s.Sorted()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = Name(id)
	}
	return names
}
