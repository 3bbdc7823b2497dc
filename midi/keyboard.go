package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"chordviz/debug"
)

// KeyboardController relays notes from a physical MIDI keyboard
type KeyboardController struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	mu       sync.Mutex
	noteChan chan Event
	closed   bool
}

// NewKeyboardController listens on inPort. A nil port gives a controller
// that never emits, which keeps callers free of nil checks.
func NewKeyboardController(id string, inPort drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:       id,
		inPort:   inPort,
		noteChan: make(chan Event, 32),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, kb.handle)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		kb.stopFunc = stop
		debug.Log("midi", "listening on %s", inPort.String())
	}

	return kb, nil
}

func (kb *KeyboardController) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	var ev Event
	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		ev = Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}
	case msg.GetNoteEnd(&channel, &note):
		ev = Event{Type: NoteOff, Channel: channel, Note: note}
	default:
		return
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return
	}
	// drop rather than block the driver thread
	select {
	case kb.noteChan <- ev:
	default:
		debug.Log("midi", "dropped %+v", ev)
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

// NoteEvents delivers note on/off events until Close
func (kb *KeyboardController) NoteEvents() <-chan Event {
	return kb.noteChan
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if !kb.closed {
		kb.closed = true
		close(kb.noteChan)
	}
	return nil
}
