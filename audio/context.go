package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"chordviz/debug"
)

const (
	DefaultVelocity uint8 = 100
	ccAllNotesOff   uint8 = 123
	portScanTimeout       = 3 * time.Second
)

var (
	ErrClosed      = errors.New("audio context closed")
	ErrNoPort      = errors.New("no MIDI output port")
	ErrPortTimeout = errors.New("MIDI port scan timed out")
)

// Output is where the context sends MIDI messages
type Output interface {
	Send(msg gomidi.Message) error
	Close() error
}

// portOutput wraps a gomidi output port
type portOutput struct {
	port drivers.Out
	send func(msg gomidi.Message) error
}

// OpenPort opens a MIDI output by (partial) name, or the first port when name is empty
func OpenPort(name string) (Output, error) {
	type result struct {
		port drivers.Out
		err  error
	}

	// CoreMIDI can hang on enumeration
	ch := make(chan result, 1)
	go func() {
		if name == "" {
			p, err := gomidi.OutPort(0)
			ch <- result{port: p, err: err}
			return
		}
		p, err := gomidi.FindOutPort(name)
		ch <- result{port: p, err: err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-time.After(portScanTimeout):
		return nil, fault.Wrap(ErrPortTimeout, fmsg.WithDesc("scan outputs", "MIDI port scan timed out"), ftag.With(ftag.Internal))
	}
	if r.err != nil || r.port == nil {
		return nil, fault.Wrap(ErrNoPort,
			fmsg.WithDesc(fmt.Sprintf("find output %q: %v", name, r.err), "No MIDI output found. Start a synth or pass --port"),
			ftag.With(ftag.NotFound))
	}

	send, err := gomidi.SendTo(r.port)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("open output %s", r.port.String())))
	}
	debug.Log("audio", "opened output %s", r.port.String())
	return &portOutput{port: r.port, send: send}, nil
}

func (p *portOutput) Send(msg gomidi.Message) error {
	return p.send(msg)
}

func (p *portOutput) Close() error {
	return p.port.Close()
}

func (p *portOutput) String() string {
	return p.port.String()
}

// Context is the single playback resource of the application. It is created
// once at start, shared by reference, and closed on shutdown.
type Context struct {
	mu       sync.Mutex
	out      Output
	channel  uint8
	closed   bool
	sounding map[uint8]bool
}

// NewContext wraps an output; channel is 0-based
func NewContext(out Output, channel uint8) *Context {
	return &Context{
		out:      out,
		channel:  channel & 0x0F,
		sounding: make(map[uint8]bool),
	}
}

// Send writes a raw message
func (c *Context) Send(msg gomidi.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(msg)
}

func (c *Context) sendLocked(msg gomidi.Message) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.out.Send(msg); err != nil {
		return fault.Wrap(err, fmsg.With("send "+msg.String()))
	}
	return nil
}

// NoteOn starts a key sounding
func (c *Context) NoteOn(key, velocity uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendLocked(gomidi.NoteOn(c.channel, key, velocity)); err != nil {
		return err
	}
	c.sounding[key] = true
	return nil
}

// NoteOff releases a key
func (c *Context) NoteOff(key uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendLocked(gomidi.NoteOff(c.channel, key)); err != nil {
		return err
	}
	delete(c.sounding, key)
	return nil
}

// ProgramChange selects the instrument on the context's channel
func (c *Context) ProgramChange(program uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(gomidi.ProgramChange(c.channel, program))
}

// Sounding returns how many keys are currently held
func (c *Context) Sounding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sounding)
}

// Close silences everything and closes the output. Safe to call twice.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	var errs []error
	for key := range c.sounding {
		if err := c.out.Send(gomidi.NoteOff(c.channel, key)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.out.Send(gomidi.ControlChange(c.channel, ccAllNotesOff, 0)); err != nil {
		errs = append(errs, err)
	}
	if err := c.out.Close(); err != nil {
		errs = append(errs, err)
	}
	c.closed = true
	c.sounding = make(map[uint8]bool)
	debug.Log("audio", "context closed")
	return errors.Join(errs...)
}
