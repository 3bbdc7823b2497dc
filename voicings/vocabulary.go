// Package voicings reads chord vocabularies in the Impro-Visor .voc format
// and turns their piano voicings into keyboard arguments.
package voicings

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"chordviz/args"
	"chordviz/debug"
	"chordviz/notes"
)

//go:embed vocab/*.voc
var builtinVocab embed.FS

const DefaultVocabulary = "vocab/standard.voc"

var (
	ErrSyntax         = errors.New("malformed vocabulary")
	ErrBadPitch       = errors.New("malformed voicing note")
	ErrMissingName    = errors.New("entry has no name")
	ErrUnknownChord   = errors.New("unknown chord")
	ErrUnknownScale   = errors.New("unknown scale")
	ErrUnknownVoicing = errors.New("unknown voicing")
	ErrSameCycle      = errors.New("chords refer to each other through same")
)

// keyboards drawn for a voicing span at least the default two octaves
var (
	lowestC  = notes.MustFromName(args.DefaultStart)
	highestC = notes.MustFromName(args.DefaultEnd)
)

type Voicing struct {
	Name      string
	Type      string
	Notes     []string
	Extension []string
}

// Label is how a voicing is listed: "left-hand-A - closed"
func (v Voicing) Label() string {
	return v.Name + " - " + v.Type
}

func (v Voicing) Keys() ([]int, error) {
	return KeyIDs(v.Notes)
}

// Args builds the keyboard arguments that show the voicing: its keys active
// on a range widened to whole octaves around them.
func (v Voicing) Args() (args.Args, error) {
	ids, err := v.Keys()
	if err != nil {
		return args.Args{}, fault.Wrap(err, fmsg.With(fmt.Sprintf("voicing %s", v.Name)))
	}
	r := RangeFor(ids)
	return args.Args{
		Version:    args.VersionArgs,
		RangeStart: strings.ToLower(notes.Name(r.First)),
		RangeEnd:   strings.ToLower(notes.Name(r.Last)),
		Notes:      ids,
	}, nil
}

// RangeFor returns the smallest C-to-C range holding ids and C3–C5
func RangeFor(ids []int) notes.Range {
	lo, hi := lowestC, highestC
	for _, id := range ids {
		lo = min(lo, id)
		hi = max(hi, id)
	}
	lo -= lo % 12
	if hi%12 != 0 {
		hi += 12 - hi%12
	}
	return notes.Range{First: max(lo, notes.MinID), Last: min(hi, notes.MaxID)}
}

type Chord struct {
	Name       string
	Pronounce  string
	Key        string
	Family     string
	Spell      string
	Color      string
	Priority   string
	Approach   [][]string
	Voicings   []Voicing
	Extensions []string
	Scales     []string
	Avoid      []string
	Substitute []string
	Same       []string // other names for this chord
}

// Voicing finds a voicing by name, or by its position in the list
func (c *Chord) Voicing(name string) (Voicing, error) {
	for _, v := range c.Voicings {
		if v.Name == name {
			return v, nil
		}
	}
	if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(c.Voicings) {
		return c.Voicings[i], nil
	}
	return Voicing{}, fault.Wrap(ErrUnknownVoicing,
		fmsg.WithDesc(fmt.Sprintf("%s/%s", c.Name, name), fmt.Sprintf("%s has no voicing %q", c.Name, name)),
		ftag.With(ftag.NotFound))
}

type Scale struct {
	Name  string
	Spell []string // one octave, without the repeated root
}

// Keys places the scale in the octave of middle C
func (s Scale) Keys() ([]int, error) {
	return KeyIDs(s.Spell)
}

// Vocabulary holds the chords and scales of one .voc file
type Vocabulary struct {
	chords     map[string]*Chord
	order      []string
	aliases    map[string]string
	scales     map[string]*Scale
	scaleOrder []string
}

// Builtin loads the vocabulary shipped with chordviz
func Builtin() (*Vocabulary, error) {
	data, err := builtinVocab.ReadFile(DefaultVocabulary)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Load reads a vocabulary file, or the builtin one when path is empty
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Builtin()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Vocabulary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse builds a vocabulary from .voc source. Entries other than chord and
// scale are skipped.
func Parse(src string) (*Vocabulary, error) {
	exprs, err := ParseExprs(src)
	if err != nil {
		return nil, err
	}

	v := &Vocabulary{
		chords:  make(map[string]*Chord),
		aliases: make(map[string]string),
		scales:  make(map[string]*Scale),
	}
	scaleAliases := make(map[string]string)
	var aliasOrder []string

	for _, e := range exprs {
		switch e.Head() {
		case "chord":
			f := fields(e.Tail())
			name := text(f["name"])
			if name == "" {
				return nil, fault.Wrap(ErrMissingName, fmsg.With("chord"), ftag.With(ftag.InvalidArgument))
			}
			if same, ok := f["same"]; ok {
				v.aliases[name] = text(same)
				aliasOrder = append(aliasOrder, name)
				continue
			}
			v.chords[name] = parseChord(name, f)
			v.order = append(v.order, name)

		case "scale":
			f := fields(e.Tail())
			name := text(f["name"])
			if name == "" {
				return nil, fault.Wrap(ErrMissingName, fmsg.With("scale"), ftag.With(ftag.InvalidArgument))
			}
			if spell, ok := f["spell"]; ok {
				tones := atoms(spell)
				if len(tones) > 1 {
					tones = tones[:len(tones)-1]
				}
				v.scales[name] = &Scale{Name: name, Spell: tones}
			} else {
				scaleAliases[name] = text(f["same"])
			}
			v.scaleOrder = append(v.scaleOrder, name)

		default:
			debug.LogEvery(100, "voicings", "skipping %q entry", e.Head())
		}
	}

	for _, alias := range aliasOrder {
		c, err := v.Chord(alias)
		if err != nil {
			return nil, err
		}
		c.Same = append(c.Same, alias)
	}
	for name := range scaleAliases {
		target := name
		for hops := 0; v.scales[target] == nil; hops++ {
			next, ok := scaleAliases[target]
			if !ok || hops > len(scaleAliases) {
				return nil, fault.Wrap(ErrUnknownScale,
					fmsg.WithDesc(fmt.Sprintf("%s same %s", name, target), fmt.Sprintf("scale %q refers to missing %q", name, target)),
					ftag.With(ftag.InvalidArgument))
			}
			target = next
		}
		v.scales[name] = &Scale{Name: name, Spell: v.scales[target].Spell}
	}
	return v, nil
}

func parseChord(name string, f map[string][]Expr) *Chord {
	c := &Chord{
		Name:       name,
		Pronounce:  text(f["pronounce"]),
		Key:        text(f["key"]),
		Family:     text(f["family"]),
		Spell:      text(f["spell"]),
		Color:      text(f["color"]),
		Priority:   text(f["priority"]),
		Extensions: atoms(f["extensions"]),
		Avoid:      atoms(f["avoid"]),
		Substitute: atoms(f["substitute"]),
	}
	for _, a := range f["approach"] {
		c.Approach = append(c.Approach, atoms(a.List))
	}
	for _, s := range f["scales"] {
		if s.IsList() {
			c.Scales = append(c.Scales, text(s.List))
		}
	}
	for _, e := range f["voicings"] {
		if !e.IsList() || e.Head() == "" {
			continue
		}
		vf := fields(e.Tail())
		c.Voicings = append(c.Voicings, Voicing{
			Name:      e.Head(),
			Type:      text(vf["type"]),
			Notes:     atoms(vf["notes"]),
			Extension: atoms(vf["extension"]),
		})
	}
	return c
}

// ChordNames lists the chords defined with their own voicings, in file order
func (v *Vocabulary) ChordNames() []string {
	return append([]string(nil), v.order...)
}

// Chord looks a chord up by name or by any name it is the same as
func (v *Vocabulary) Chord(name string) (*Chord, error) {
	seen := map[string]bool{}
	for cur := name; ; {
		if c, ok := v.chords[cur]; ok {
			return c, nil
		}
		next, ok := v.aliases[cur]
		if !ok {
			return nil, fault.Wrap(ErrUnknownChord,
				fmsg.WithDesc(fmt.Sprintf("%s via %s", name, cur), fmt.Sprintf("no chord named %q", name)),
				ftag.With(ftag.NotFound))
		}
		if seen[cur] {
			return nil, fault.Wrap(ErrSameCycle, fmsg.With(name), ftag.With(ftag.InvalidArgument))
		}
		seen[cur] = true
		cur = next
	}
}

func (v *Vocabulary) ScaleNames() []string {
	return append([]string(nil), v.scaleOrder...)
}

func (v *Vocabulary) Scale(name string) (*Scale, error) {
	s, ok := v.scales[name]
	if !ok {
		return nil, fault.Wrap(ErrUnknownScale, fmsg.WithDesc(name, fmt.Sprintf("no scale named %q", name)), ftag.With(ftag.NotFound))
	}
	return s, nil
}
