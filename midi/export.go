package midi

import (
	"errors"
	"fmt"
	"io"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ticksPerQuarter = 960

var ErrEmptyChord = errors.New("chord has no notes")

// ExportOptions shapes the exported file
type ExportOptions struct {
	BPM      float64
	Beats    int // how long the chord sounds
	Channel  uint8
	Velocity uint8
	Program  uint8
}

func DefaultExportOptions() ExportOptions {
	return ExportOptions{BPM: 120, Beats: 4, Velocity: 100}
}

// WriteChord writes ids as one chord held for opts.Beats in a two-track SMF
func WriteChord(w io.Writer, ids []int, opts ExportOptions) error {
	if len(ids) == 0 {
		return ErrEmptyChord
	}
	if opts.BPM <= 0 {
		opts.BPM = 120
	}
	if opts.Beats <= 0 {
		opts.Beats = 4
	}
	if opts.Velocity == 0 {
		opts.Velocity = 100
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	// Track 0: tempo
	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(opts.BPM))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return fmt.Errorf("add tempo track: %w", err)
	}

	var track smf.Track
	track.Add(0, gomidi.ProgramChange(opts.Channel, opts.Program))
	for _, id := range ids {
		track.Add(0, gomidi.NoteOn(opts.Channel, uint8(id), opts.Velocity))
	}
	hold := uint32(opts.Beats) * ticksPerQuarter
	for i, id := range ids {
		delta := uint32(0)
		if i == 0 {
			delta = hold
		}
		track.Add(delta, gomidi.NoteOff(opts.Channel, uint8(id)))
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return fmt.Errorf("add chord track: %w", err)
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("write MIDI file: %w", err)
	}
	return nil
}
