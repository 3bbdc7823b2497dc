package voicings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordviz/args"
	"chordviz/notes"
)

const sample = `
; comment
(chord
	(name 'C7)
	(pronounce C seven)
	(family dominant)
	(spell c e g bb)
	(approach (c b db) (e eb f))
	(voicings
		(left-hand-A (type closed) (notes e a bb d+) (extension))
		(shell (type shell) (notes c- bb-) (extension e))
	)
	(extensions C9 C13)
	(scales (C mixolydian) (C lydian dominant))
	(avoid f)
	(substitute Gb7)
)
(chord (name Cdom7) (same C7))
(chord (name C7th) (same Cdom7))
(scale (name C mixolydian) (spell c d e f g a bb c))
(scale (name C dominant) (same C mixolydian))
(style (name swing))
`

func TestParseExprs(t *testing.T) {
	exprs, err := ParseExprs(`(a (b "c d") e) ; tail
(f)`)
	require.NoError(t, err)
	require.Len(t, exprs, 2)
	assert.Equal(t, "a", exprs[0].Head())
	tail := exprs[0].Tail()
	require.Len(t, tail, 2)
	assert.True(t, tail[0].IsList())
	assert.Equal(t, []string{"b", "c d"}, atoms(tail[0].List))
	assert.Equal(t, "e", tail[1].Atom)
	assert.Equal(t, "f", exprs[1].Head())
}

func TestParseExprsSyntaxErrors(t *testing.T) {
	for _, src := range []string{"(a (b)", "a)", `("open`} {
		_, err := ParseExprs(src)
		assert.True(t, errors.Is(err, ErrSyntax), src)
	}
}

func TestParseChord(t *testing.T) {
	v, err := Parse(sample)
	require.NoError(t, err)
	assert.Equal(t, []string{"C7"}, v.ChordNames())

	c, err := v.Chord("C7")
	require.NoError(t, err)
	assert.Equal(t, "C seven", c.Pronounce)
	assert.Equal(t, "dominant", c.Family)
	assert.Equal(t, "c e g bb", c.Spell)
	assert.Equal(t, [][]string{{"c", "b", "db"}, {"e", "eb", "f"}}, c.Approach)
	assert.Equal(t, []string{"C mixolydian", "C lydian dominant"}, c.Scales)
	assert.Equal(t, []string{"C9", "C13"}, c.Extensions)
	assert.Equal(t, []string{"f"}, c.Avoid)
	assert.Equal(t, []string{"Gb7"}, c.Substitute)

	require.Len(t, c.Voicings, 2)
	assert.Equal(t, Voicing{Name: "left-hand-A", Type: "closed", Notes: []string{"e", "a", "bb", "d+"}, Extension: []string{}}, c.Voicings[0])
	assert.Equal(t, "shell - shell", c.Voicings[1].Label())
	assert.Equal(t, []string{"e"}, c.Voicings[1].Extension)
}

func TestSameResolvesThroughChains(t *testing.T) {
	v, err := Parse(sample)
	require.NoError(t, err)

	for _, name := range []string{"Cdom7", "C7th"} {
		c, err := v.Chord(name)
		require.NoError(t, err, name)
		assert.Equal(t, "C7", c.Name)
	}
	c, _ := v.Chord("C7")
	assert.Equal(t, []string{"Cdom7", "C7th"}, c.Same)

	_, err = v.Chord("C13")
	assert.True(t, errors.Is(err, ErrUnknownChord))
}

func TestSameToMissingChordFails(t *testing.T) {
	_, err := Parse(`(chord (name X) (same Y))`)
	assert.True(t, errors.Is(err, ErrUnknownChord))

	_, err = Parse(`(chord (name X) (same Y)) (chord (name Y) (same X))`)
	assert.True(t, errors.Is(err, ErrSameCycle))

	_, err = Parse(`(chord (pronounce nothing))`)
	assert.True(t, errors.Is(err, ErrMissingName))
}

func TestScales(t *testing.T) {
	v, err := Parse(sample)
	require.NoError(t, err)
	assert.Equal(t, []string{"C mixolydian", "C dominant"}, v.ScaleNames())

	s, err := v.Scale("C dominant")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e", "f", "g", "a", "bb"}, s.Spell)
	ids, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []int{60, 62, 64, 65, 67, 69, 70}, ids)

	_, err = v.Scale("C bebop")
	assert.True(t, errors.Is(err, ErrUnknownScale))
}

func TestKeyID(t *testing.T) {
	cases := map[string]int{
		"c":    60,
		"C":    60,
		"e-":   52,
		"d+":   74,
		"bb":   70,
		"bb-":  58,
		"f#++": 90,
		"c---": 24,
		"g8":   67,
		"a+8":  81,
		"cb":   59,
		"b#":   72,
	}
	for token, want := range cases {
		got, err := KeyID(token)
		require.NoError(t, err, token)
		assert.Equal(t, want, got, token)
	}
}

func TestKeyIDRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "h", "+c", "c+-", "cx", "8"} {
		_, err := KeyID(token)
		assert.True(t, errors.Is(err, ErrBadPitch), token)
	}
	_, err := KeyID("c-------")
	assert.True(t, errors.Is(err, notes.ErrOutOfRange))
}

func TestVoicingArgs(t *testing.T) {
	v, err := Parse(sample)
	require.NoError(t, err)
	c, _ := v.Chord("Cdom7")

	lh, err := c.Voicing("left-hand-A")
	require.NoError(t, err)
	a, err := lh.Args()
	require.NoError(t, err)
	assert.Equal(t, args.Args{Version: args.VersionArgs, RangeStart: "c3", RangeEnd: "c6", Notes: []int{64, 69, 70, 74}}, a)
	require.NoError(t, a.Validate())

	shell, err := c.Voicing("1")
	require.NoError(t, err)
	assert.Equal(t, "shell", shell.Name)

	_, err = c.Voicing("7")
	assert.True(t, errors.Is(err, ErrUnknownVoicing))
}

func TestRangeForWidensToWholeOctaves(t *testing.T) {
	assert.Equal(t, notes.Range{First: 48, Last: 72}, RangeFor(nil))
	assert.Equal(t, notes.Range{First: 36, Last: 84}, RangeFor([]int{40, 73}))
	assert.Equal(t, notes.Range{First: 48, Last: 84}, RangeFor([]int{84}))
}

func TestBuiltinVocabulary(t *testing.T) {
	v, err := Builtin()
	require.NoError(t, err)
	require.NotEmpty(t, v.ChordNames())

	for _, name := range v.ChordNames() {
		c, err := v.Chord(name)
		require.NoError(t, err)
		require.NotEmpty(t, c.Voicings, name)
		for _, vc := range c.Voicings {
			a, err := vc.Args()
			require.NoError(t, err, "%s %s", name, vc.Name)
			assert.NoError(t, a.Validate(), "%s %s", name, vc.Name)
		}
	}

	c, err := v.Chord("CD")
	require.NoError(t, err)
	assert.Equal(t, "CM7", c.Name)

	for _, name := range v.ScaleNames() {
		_, err := v.Scale(name)
		assert.NoError(t, err, name)
	}
}

func TestLoadEmptyPathIsBuiltin(t *testing.T) {
	v, err := Load("")
	require.NoError(t, err)
	assert.Contains(t, v.ChordNames(), "Cm7")
}
