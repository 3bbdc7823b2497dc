package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"chordviz/args"
	"chordviz/audio"
	"chordviz/config"
	"chordviz/midi"
	"chordviz/theme"
	"chordviz/visualizer"
)

type heightRecorder struct {
	height int
}

func (h *heightRecorder) SetFrameHeight(_, height int) {
	h.height = height
}

type renderOutput struct {
	Version int    `json:"version"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	View    string `json:"view"`
	Error   string `json:"error,omitempty"`
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		raw, midiPath string
		width         int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one set of host arguments",
		Long: `Render reads a JSON argument record from --args or stdin and prints
the keyboard it describes.`,
		Example: `  chordviz render --args '{"rangeStart": "c3", "rangeEnd": "c5", "notes": [60, 64, 67]}'
  echo '{"version": 1}' | chordviz render`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if !cmd.Flags().Changed("width") {
				width = cfg.UI.Width
			}

			data := []byte(raw)
			if raw == "" {
				var err error
				if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			a, err := args.DecodeJSON(data)
			if err != nil {
				return err
			}

			if err := renderFrame(cmd.OutOrStdout(), cfg, a, width, asJSON); err != nil {
				return err
			}
			if midiPath != "" {
				return exportChord(midiPath, a, cfg.Soundfont.Instrument)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&raw, "args", "", "JSON argument record (default: read stdin)")
	f.IntVar(&width, "width", visualizer.DefaultWidth, "keyboard width in columns")
	f.BoolVar(&asJSON, "json", false, "print the frame as JSON")
	f.StringVar(&midiPath, "midi", "", "also write the chord to a Standard MIDI File")
	return cmd
}

// renderFrame draws a once without audio and prints it
func renderFrame(w io.Writer, cfg *config.Config, a args.Args, width int, asJSON bool) error {
	palette, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}

	rec := &heightRecorder{}
	viz := visualizer.New(audio.Silent{}, rec, visualizer.WithWidth(width), visualizer.WithTheme(theme.New(palette)))
	frame, renderErr := viz.Render(a)

	if asJSON {
		res := renderOutput{Version: a.Version, Width: frame.Width, Height: rec.height, View: frame.View}
		if renderErr != nil {
			res.Error = renderErr.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, frame.View)
	}
	return renderErr
}

func exportChord(path string, a args.Args, instrument string) error {
	opts := midi.DefaultExportOptions()
	if program, ok := audio.Program(instrument); ok {
		opts.Program = program
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := midi.WriteChord(f, a.Active().Sorted(), opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
