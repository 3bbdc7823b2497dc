package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chordviz/args"
	"chordviz/audio"
	"chordviz/host"
	"chordviz/visualizer"
)

// MIDIConfig names the ports used for playback and live input
type MIDIConfig struct {
	OutputPort string `json:"outputPort,omitempty"`
	InputPort  string `json:"inputPort,omitempty"`
	Channel    int    `json:"channel,omitempty"`
}

// SoundfontConfig selects where instrument samples come from
type SoundfontConfig struct {
	Instrument string `json:"instrument,omitempty"`
	Host       string `json:"host,omitempty"`
	Name       string `json:"name,omitempty"`
	Format     string `json:"format,omitempty"`
	Velocity   int    `json:"velocity,omitempty"`
}

// HostConfig configures the HTTP connection to the embedding host
type HostConfig struct {
	Listen     string `json:"listen,omitempty"`
	Mount      string `json:"mount,omitempty"`
	DebounceMS int    `json:"debounceMs,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Width      int    `json:"width,omitempty"`
	Version    int    `json:"version,omitempty"`
	Palette    string `json:"palette,omitempty"`    // path to a .gpl file; empty uses the builtin
	Vocabulary string `json:"vocabulary,omitempty"` // path to a .voc file; empty uses the builtin
}

// Config is the main configuration structure
type Config struct {
	MIDI      MIDIConfig      `json:"midi,omitempty"`
	Soundfont SoundfontConfig `json:"soundfont,omitempty"`
	Host      HostConfig      `json:"host,omitempty"`
	UI        UIConfig        `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Soundfont: SoundfontConfig{
			Instrument: audio.DefaultInstrument,
			Host:       audio.DefaultHost,
			Name:       audio.DefaultSoundfont,
			Format:     audio.DefaultFormat,
			Velocity:   int(audio.DefaultVelocity),
		},
		Host: HostConfig{
			Listen:     "127.0.0.1:8765",
			Mount:      host.DefaultMount,
			DebounceMS: int(host.DefaultDebounce / time.Millisecond),
		},
		UI: UIConfig{
			Width:   visualizer.DefaultWidth,
			Version: args.LatestVersion,
		},
	}
}

// Debounce returns the host debounce window
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Host.DebounceMS) * time.Millisecond
}

// configDir is swapped in tests
var configDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chordviz"), nil
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	return configDir()
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

var ErrInvalid = errors.New("invalid config")

// Validate checks the fields that are narrowed to MIDI bytes
func (c *Config) Validate() error {
	if c.MIDI.Channel < 0 || c.MIDI.Channel > 15 {
		return fmt.Errorf("%w: midi.channel %d outside 0-15", ErrInvalid, c.MIDI.Channel)
	}
	if c.Soundfont.Velocity < 1 || c.Soundfont.Velocity > 127 {
		return fmt.Errorf("%w: soundfont.velocity %d outside 1-127", ErrInvalid, c.Soundfont.Velocity)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
