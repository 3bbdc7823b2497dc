package midi

import (
	"errors"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

const DefaultScanTimeout = 3 * time.Second

var ErrScanTimeout = errors.New("MIDI port scan timed out")

// Ports lists the MIDI port names seen in one scan
type Ports struct {
	In  []string
	Out []string
}

// ListPorts enumerates ports, giving up after timeout
func ListPorts(timeout time.Duration) (Ports, error) {
	ins, outs, err := scan(timeout)
	if err != nil {
		return Ports{}, err
	}
	var p Ports
	for _, in := range ins {
		p.In = append(p.In, in.String())
	}
	for _, out := range outs {
		p.Out = append(p.Out, out.String())
	}
	return p, nil
}

// FindIn returns the first input whose name contains name (case-insensitive)
func FindIn(name string, timeout time.Duration) (drivers.In, error) {
	ins, _, err := scan(timeout)
	if err != nil {
		return nil, err
	}
	for _, in := range ins {
		if matchName(in.String(), name) {
			return in, nil
		}
	}
	return nil, errors.New("no MIDI input matching " + name)
}

// CloseDriver releases the MIDI driver on shutdown
func CloseDriver() {
	gomidi.CloseDriver()
}

func matchName(port, name string) bool {
	return strings.Contains(strings.ToLower(port), strings.ToLower(name))
}

func scan(timeout time.Duration) ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	// CoreMIDI can hang on enumeration
	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.inPorts, r.outPorts, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, nil, ErrScanTimeout
	}
}
