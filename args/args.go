// Package args decodes the argument record a host sends to the widget.
//
// Hosts send an open key/value object. It is decoded into Args and validated
// up front so a bad field is reported with a clear kind instead of failing
// deep inside rendering.
package args

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"chordviz/notes"
)

// Widget iterations
const (
	VersionHello  = 1 // static greeting
	VersionFixed  = 2 // piano with the default range
	VersionArgs   = 3 // piano driven by host arguments
	LatestVersion = VersionArgs
)

const (
	DefaultStart = "c3"
	DefaultEnd   = "c5"

	keyVersion    = "version"
	keyRangeStart = "rangeStart"
	keyRangeEnd   = "rangeEnd"
	keyNotes      = "notes"

	minNoteID = 0
	maxNoteID = 127
)

const (
	KindMissing    ftag.Kind = "MISSING_FIELD"
	KindMalformed  ftag.Kind = "MALFORMED_FIELD"
	KindBadVersion ftag.Kind = "UNSUPPORTED_VERSION"
)

var (
	ErrMissingField       = errors.New("missing field")
	ErrMalformedField     = errors.New("malformed field")
	ErrUnsupportedVersion = errors.New("unsupported version")
)

// Args is the validated host argument record
type Args struct {
	Version    int    `json:"version"`
	RangeStart string `json:"rangeStart,omitempty"`
	RangeEnd   string `json:"rangeEnd,omitempty"`
	Notes      []int  `json:"notes,omitempty"`
}

// Default is what the widget shows before the host sends anything
func Default() Args {
	return Args{Version: LatestVersion, RangeStart: DefaultStart, RangeEnd: DefaultEnd}
}

// Fixed returns the record of a given iteration with the default range
func Fixed(version int) Args {
	a := Default()
	a.Version = version
	return a
}

// Decode validates a raw argument bag. A nil or empty bag yields Default.
func Decode(raw map[string]any) (Args, error) {
	a := Default()
	if len(raw) == 0 {
		return a, nil
	}

	if v, ok := raw[keyVersion]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return Args{}, malformed(keyVersion, err)
		}
		a.Version = n
	}
	if err := checkVersion(a.Version); err != nil {
		return Args{}, err
	}

	// earlier iterations read nothing from the host
	if a.Version < VersionArgs {
		return Fixed(a.Version), nil
	}

	start, hasStart, err := stringField(raw, keyRangeStart)
	if err != nil {
		return Args{}, err
	}
	end, hasEnd, err := stringField(raw, keyRangeEnd)
	if err != nil {
		return Args{}, err
	}
	switch {
	case hasStart && hasEnd:
		a.RangeStart, a.RangeEnd = start, end
	case hasStart:
		return Args{}, missing(keyRangeEnd)
	case hasEnd:
		return Args{}, missing(keyRangeStart)
	}

	if v, ok := raw[keyNotes]; ok && v != nil {
		ids, err := toIDs(v)
		if err != nil {
			return Args{}, malformed(keyNotes, err)
		}
		a.Notes = ids
	}

	if err := a.Validate(); err != nil {
		return Args{}, err
	}
	return a, nil
}

// DecodeJSON decodes a JSON object. Empty input or "null" yields Default.
func DecodeJSON(data []byte) (Args, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Default(), nil
	}
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Args{}, fault.Wrap(ErrMalformedField,
			fmsg.WithDesc(err.Error(), "arguments must be a JSON object"),
			ftag.With(KindMalformed))
	}
	return Decode(raw)
}

func checkVersion(v int) error {
	if v < VersionHello || v > LatestVersion {
		return fault.Wrap(ErrUnsupportedVersion,
			fmsg.WithDesc(fmt.Sprintf("version %d", v), fmt.Sprintf("version %d is not supported (1-%d)", v, LatestVersion)),
			ftag.With(KindBadVersion))
	}
	return nil
}

// Validate checks the version, and for version 3 the note range and ids
func (a Args) Validate() error {
	if err := checkVersion(a.Version); err != nil {
		return err
	}
	if a.Version < VersionArgs {
		return nil
	}
	if _, err := a.Range(); err != nil {
		return err
	}
	for _, id := range a.Notes {
		if id < minNoteID || id > maxNoteID {
			return malformed(keyNotes, fmt.Errorf("key id %d outside %d-%d", id, minNoteID, maxNoteID))
		}
	}
	return nil
}

// Range resolves the note names to key ids
func (a Args) Range() (notes.Range, error) {
	start, end := a.RangeStart, a.RangeEnd
	if a.Version < VersionArgs || (start == "" && end == "") {
		start, end = DefaultStart, DefaultEnd
	}
	r, err := notes.NewRange(start, end)
	if err != nil {
		return notes.Range{}, fault.Wrap(err, fmsg.With(fmt.Sprintf("%s/%s", keyRangeStart, keyRangeEnd)))
	}
	return r, nil
}

// Active returns the highlighted key ids
func (a Args) Active() notes.Set {
	if a.Version < VersionArgs {
		return notes.NewSet()
	}
	return notes.NewSet(a.Notes...)
}

// Kind reports the tag of an args or notes error, e.g. for HTTP mapping
func Kind(err error) ftag.Kind {
	return ftag.Get(err)
}

// IsInvalid reports whether err is a caller mistake rather than a fault of ours
func IsInvalid(err error) bool {
	switch ftag.Get(err) {
	case KindMissing, KindMalformed, KindBadVersion, ftag.InvalidArgument:
		return true
	}
	return false
}

func stringField(raw map[string]any, key string) (string, bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, malformed(key, fmt.Errorf("want string, got %T", v))
	}
	return s, true, nil
}

func toIDs(v any) ([]int, error) {
	switch vs := v.(type) {
	case []int:
		return append([]int(nil), vs...), nil
	case []any:
		ids := make([]int, 0, len(vs))
		for i, item := range vs {
			n, err := toInt(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			ids = append(ids, n)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("want array of key ids, got %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", n)
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("want integer, got %T", v)
}

func missing(key string) error {
	return fault.Wrap(ErrMissingField,
		fmsg.WithDesc(key, fmt.Sprintf("%q is required", key)),
		ftag.With(KindMissing))
}

func malformed(key string, cause error) error {
	return fault.Wrap(ErrMalformedField,
		fmsg.WithDesc(fmt.Sprintf("%s: %v", key, cause), fmt.Sprintf("%q is malformed: %v", key, cause)),
		ftag.With(KindMalformed))
}
