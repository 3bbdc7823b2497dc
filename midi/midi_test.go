package midi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestWriteChord(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultExportOptions()
	opts.Program = 5
	require.NoError(t, WriteChord(&buf, []int{60, 64, 67}, opts))

	sm, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, sm.Tracks, 2)

	var bpm float64
	for _, ev := range sm.Tracks[0] {
		ev.Message.GetMetaTempo(&bpm)
	}
	assert.InDelta(t, 120, bpm, 0.01)

	var on, off []uint8
	var program uint8
	var ticks uint32
	for _, ev := range sm.Tracks[1] {
		ticks += ev.Delta
		var ch, key, vel uint8
		msg := gomidi.Message(ev.Message)
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			on = append(on, key)
			assert.Equal(t, uint8(100), vel)
		case msg.GetNoteEnd(&ch, &key):
			off = append(off, key)
		case msg.GetProgramChange(&ch, &program):
		}
	}
	assert.Equal(t, []uint8{60, 64, 67}, on)
	assert.Equal(t, []uint8{60, 64, 67}, off)
	assert.Equal(t, uint8(5), program)
	assert.Equal(t, uint32(4*ticksPerQuarter), ticks)
}

func TestWriteChordEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteChord(&buf, nil, DefaultExportOptions()), ErrEmptyChord)
	assert.Zero(t, buf.Len())
}

func TestKeyboardEvents(t *testing.T) {
	kb, err := NewKeyboardController("kb", nil)
	require.NoError(t, err)

	kb.handle(gomidi.NoteOn(0, 60, 90), 0)
	kb.handle(gomidi.NoteOn(0, 60, 0), 0)
	kb.handle(gomidi.ControlChange(0, 7, 100), 0)
	kb.handle(gomidi.NoteOff(0, 62), 0)
	require.NoError(t, kb.Close())
	require.NoError(t, kb.Close())

	var got []Event
	for ev := range kb.NoteEvents() {
		got = append(got, ev)
	}
	require.Len(t, got, 3)
	assert.True(t, got[0].IsNoteOn())
	assert.Equal(t, uint8(60), got[0].Note)
	assert.False(t, got[1].IsNoteOn())
	assert.Equal(t, NoteOff, got[1].Type)
	assert.Equal(t, uint8(62), got[2].Note)
}

func TestMatchName(t *testing.T) {
	assert.True(t, matchName("Arturia KeyStep 37", "keystep"))
	assert.False(t, matchName("IAC Driver Bus 1", "keystep"))
}
