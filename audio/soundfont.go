package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"chordviz/debug"
	"chordviz/notes"
)

const (
	DefaultInstrument = "acoustic_grand_piano"
	DefaultHost       = "https://d1pzp51pvbm36p.cloudfront.net"
	DefaultSoundfont  = "MusyngKite"
	DefaultFormat     = "mp3"

	manifestLimit = 64 << 20
)

var (
	ErrNotReady          = errors.New("instrument still loading")
	ErrNoSample          = errors.New("no sample for key")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrEmptySampleSet    = errors.New("sample set has no notes")
)

// Player is the playback capability handed to the keyboard
type Player interface {
	IsReady() bool
	Play(id int) error
	Stop(id int) error
}

// Soundfont loads an instrument's sample set from an asset host and plays it
// through the audio context.
type Soundfont struct {
	ctx        *Context
	instrument string
	host       string
	soundfont  string
	format     string
	velocity   uint8
	client     *http.Client

	mu      sync.RWMutex
	ready   bool
	err     error
	samples notes.Set // nil means every key has a sample
	started bool
	done    chan struct{}
}

type Option func(*Soundfont)

func WithSoundfont(name string) Option {
	return func(s *Soundfont) { s.soundfont = name }
}

func WithFormat(format string) Option {
	return func(s *Soundfont) { s.format = format }
}

func WithVelocity(v uint8) Option {
	return func(s *Soundfont) { s.velocity = v }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Soundfont) { s.client = c }
}

// NewSoundfont prepares a provider; nothing is fetched until Load
func NewSoundfont(ctx *Context, instrument, host string, opts ...Option) *Soundfont {
	s := &Soundfont{
		ctx:        ctx,
		instrument: instrument,
		host:       strings.TrimRight(host, "/"),
		soundfont:  DefaultSoundfont,
		format:     DefaultFormat,
		velocity:   DefaultVelocity,
		client:     &http.Client{Timeout: 30 * time.Second},
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL is where the sample set is fetched from
func (s *Soundfont) URL() string {
	return fmt.Sprintf("%s/%s/%s-%s.js", s.host, s.soundfont, s.instrument, s.format)
}

func (s *Soundfont) Instrument() string {
	return s.instrument
}

// Load starts loading in the background. Calling it again is a no-op.
func (s *Soundfont) Load(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		samples, err := s.load(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.err = err
			debug.Log("audio", "load %s failed: %v", s.instrument, err)
			return
		}
		s.samples = samples
		s.ready = true
		debug.Log("audio", "loaded %s (%d samples)", s.instrument, len(samples))
	}()
}

// Ready is closed once loading has finished, successfully or not
func (s *Soundfont) Ready() <-chan struct{} {
	return s.done
}

// Err reports why loading failed
func (s *Soundfont) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Soundfont) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Play starts a key sounding
func (s *Soundfont) Play(id int) error {
	if err := s.playable(id); err != nil {
		return err
	}
	return s.ctx.NoteOn(uint8(id), s.velocity)
}

// Stop releases a key
func (s *Soundfont) Stop(id int) error {
	if err := s.playable(id); err != nil {
		return err
	}
	return s.ctx.NoteOff(uint8(id))
}

func (s *Soundfont) playable(id int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return ErrNotReady
	}
	if id < 0 || id > notes.MaxID || (s.samples != nil && !s.samples.Has(id)) {
		return fault.Wrap(ErrNoSample,
			fmsg.WithDesc(fmt.Sprintf("key %d", id), fmt.Sprintf("%s has no sample for key %d", s.instrument, id)),
			ftag.With(ftag.NotFound))
	}
	return nil
}

func (s *Soundfont) load(ctx context.Context) (notes.Set, error) {
	program, ok := Program(s.instrument)
	if !ok {
		return nil, fault.Wrap(ErrUnknownInstrument,
			fmsg.WithDesc(s.instrument, fmt.Sprintf("%q is not a General MIDI instrument", s.instrument)),
			ftag.With(ftag.InvalidArgument))
	}

	var samples notes.Set
	if s.host != "" {
		var err error
		samples, err = s.fetch(ctx)
		if err != nil {
			return nil, err
		}
	}

	if err := s.ctx.ProgramChange(program); err != nil {
		return nil, fault.Wrap(err, fmsg.With("select instrument"))
	}
	return samples, nil
}

func (s *Soundfont) fetch(ctx context.Context) (notes.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), nil)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("build sample set request"))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("fetch "+s.URL(), "could not download instrument samples"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.New(fmt.Sprintf("fetch %s: %s", s.URL(), resp.Status),
			fmsg.WithDesc("", "could not download instrument samples"),
			ftag.With(ftag.NotFound))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, manifestLimit))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read sample set"))
	}
	return ParseSampleSet(body)
}

// sample entries look like "Bb3": "data:audio/mp3;base64,..."
var sampleKey = regexp.MustCompile(`"([A-Ga-g][#b]?\d+)"\s*:\s*"data:`)

// ParseSampleSet extracts the key ids present in a soundfont JS file
func ParseSampleSet(body []byte) (notes.Set, error) {
	set := notes.NewSet()
	for _, m := range sampleKey.FindAllSubmatch(body, -1) {
		id, err := notes.FromName(string(m[1]))
		if err != nil {
			// entries below C0 are not addressable by name
			continue
		}
		set[id] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fault.Wrap(ErrEmptySampleSet, fmsg.With("parse sample set"), ftag.With(ftag.Internal))
	}
	return set, nil
}

// Silent is a Player that is always ready and makes no sound
type Silent struct{}

func (Silent) IsReady() bool     { return true }
func (Silent) Play(id int) error { return nil }
func (Silent) Stop(id int) error { return nil }
