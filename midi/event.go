package midi

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is a note played on an external keyboard
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// IsNoteOn reports a key going down. A note-on with velocity 0 is a release.
func (e Event) IsNoteOn() bool {
	return e.Type == NoteOn && e.Velocity > 0
}
