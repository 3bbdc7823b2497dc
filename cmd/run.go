package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chordviz/args"
	"chordviz/audio"
	"chordviz/config"
	"chordviz/debug"
	"chordviz/host"
	"chordviz/midi"
	"chordviz/theme"
	"chordviz/tui"
	"chordviz/visualizer"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		listen, port, instrument, sfHost, midiIn string
		width, version                           int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Show the keyboard and serve the host connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.Host.Listen = listen
			}
			if flags.Changed("port") {
				cfg.MIDI.OutputPort = port
			}
			if flags.Changed("instrument") {
				cfg.Soundfont.Instrument = instrument
			}
			if flags.Changed("soundfont-host") {
				cfg.Soundfont.Host = sfHost
			}
			if flags.Changed("midi-in") {
				cfg.MIDI.InputPort = midiIn
			}
			if flags.Changed("width") {
				cfg.UI.Width = width
			}
			if flags.Changed("version") {
				cfg.UI.Version = version
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&listen, "listen", "", "host connection address")
	f.StringVar(&port, "port", "", "MIDI output port (partial name, default first port)")
	f.StringVar(&instrument, "instrument", "", "General MIDI instrument name")
	f.StringVar(&sfHost, "soundfont-host", "", "sample set host; empty skips the fetch")
	f.StringVar(&midiIn, "midi-in", "", "MIDI keyboard input port (partial name)")
	f.IntVar(&width, "width", 0, "keyboard width in columns")
	f.IntVar(&version, "version", 0, "widget version (1 hello, 2 fixed, 3 host arguments)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer midi.CloseDriver()

	if err := cfg.Validate(); err != nil {
		return err
	}
	initial := args.Fixed(cfg.UI.Version)
	if err := initial.Validate(); err != nil {
		return err
	}

	palette, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	out, err := audio.OpenPort(cfg.MIDI.OutputPort)
	if err != nil {
		return err
	}
	actx := audio.NewContext(out, uint8(cfg.MIDI.Channel))
	defer func() {
		if err := actx.Close(); err != nil {
			debug.Log("run", "close audio: %v", err)
		}
	}()

	sf := audio.NewSoundfont(actx, cfg.Soundfont.Instrument, cfg.Soundfont.Host,
		audio.WithSoundfont(cfg.Soundfont.Name),
		audio.WithFormat(cfg.Soundfont.Format),
		audio.WithVelocity(uint8(cfg.Soundfont.Velocity)),
	)
	sf.Load(ctx)

	hub := host.NewHub(cfg.Host.Mount, cfg.Debounce())
	defer hub.Close()
	srv := host.NewServer(hub, cfg.Host.Listen)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			debug.Log("run", "host server: %v", err)
		}
	}()

	viz := visualizer.New(sf, hub, visualizer.WithWidth(cfg.UI.Width), visualizer.WithTheme(th))
	opts := []tui.Option{tui.WithLoader(sf)}
	// earlier versions ignore host arguments
	if initial.Version == args.VersionArgs {
		opts = append(opts, tui.WithHub(hub))
	}

	if cfg.MIDI.InputPort != "" {
		in, err := midi.FindIn(cfg.MIDI.InputPort, midi.DefaultScanTimeout)
		if err != nil {
			return err
		}
		kb, err := midi.NewKeyboardController(in.String(), in)
		if err != nil {
			return err
		}
		defer kb.Close()
		opts = append(opts, tui.WithKeyboard(kb))
	}

	debug.Log("run", "serving %s on http://%s", cfg.Host.Mount, cfg.Host.Listen)

	m := tui.NewModel(viz, initial, th, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
