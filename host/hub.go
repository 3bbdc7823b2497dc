// Package host is the connection between the widget and the process driving it.
//
// The host posts argument records; the widget answers every render with its
// frame height so the host can size the embedding frame.
package host

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"chordviz/args"
	"chordviz/debug"
)

const (
	DefaultDebounce = 30 * time.Millisecond
	DefaultMount    = "app"
)

// FrameInfo is the render-ready state reported back to the host
type FrameInfo struct {
	Session  string `json:"session"`
	Mount    string `json:"mount"`
	Revision int    `json:"revision"` // latest submitted
	Rendered int    `json:"rendered"` // revision the height belongs to
	Height   int    `json:"height"`
	Renders  int    `json:"renders"`
}

// Update is one delivered argument record
type Update struct {
	Revision int
	Args     args.Args
}

// Hub buffers argument updates for the widget and records frame heights
type Hub struct {
	mount     string
	session   string
	debounced func(f func())
	updates   chan Update

	mu       sync.Mutex
	revision int
	latest   args.Args
	rendered int
	height   int
	renders  int
	closed   bool
}

// NewHub creates a hub for the component mounted under name. Bursts of
// submissions within window collapse into one delivery of the latest.
func NewHub(mount string, window time.Duration) *Hub {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Hub{
		mount:     mount,
		session:   uuid.NewString(),
		debounced: debounce.New(window),
		updates:   make(chan Update, 1),
		latest:    args.Default(),
	}
}

func (h *Hub) Mount() string {
	return h.mount
}

func (h *Hub) Session() string {
	return h.session
}

// Submit accepts a validated record and returns its revision
func (h *Hub) Submit(a args.Args) int {
	h.mu.Lock()
	h.revision++
	h.latest = a
	rev := h.revision
	h.mu.Unlock()

	debug.Log("host", "args revision %d: %+v", rev, a)
	h.debounced(h.deliver)
	return rev
}

func (h *Hub) deliver() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	u := Update{Revision: h.revision, Args: h.latest}

	// a newer update supersedes one the widget has not picked up yet
	select {
	case <-h.updates:
	default:
	}
	h.updates <- u
}

// Updates delivers the latest argument record after each burst
func (h *Hub) Updates() <-chan Update {
	return h.updates
}

// Latest returns the most recently submitted record
func (h *Hub) Latest() (args.Args, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.revision
}

// SetFrameHeight records the height of the frame rendered for revision
func (h *Hub) SetFrameHeight(revision, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rendered = revision
	h.height = height
	h.renders++
}

// Frame reports the render-ready state
func (h *Hub) Frame() FrameInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return FrameInfo{
		Session:  h.session,
		Mount:    h.mount,
		Revision: h.revision,
		Rendered: h.rendered,
		Height:   h.height,
		Renders:  h.renders,
	}
}

// Close stops further deliveries
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}
