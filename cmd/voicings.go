package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chordviz/args"
	"chordviz/config"
	"chordviz/host"
	"chordviz/voicings"
)

func newVoicingsCmd(root *rootOptions) *cobra.Command {
	var (
		vocabPath, midiPath string
		width               int
		asJSON, send        bool
	)

	cmd := &cobra.Command{
		Use:   "voicings [chord] [voicing]",
		Short: "Explore the piano voicings of a chord vocabulary",
		Long: `With no arguments, voicings lists the chords of the vocabulary. Given a
chord it lists that chord's voicings, and given a voicing (by name or number)
it draws the voicing on the keyboard, or sends it to a running chordviz with --send.`,
		Example: `  chordviz voicings
  chordviz voicings Cm7
  chordviz voicings Cm7 so-what
  chordviz voicings C7 0 --send`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			cfg := root.cfg
			if !cmd.Flags().Changed("vocab") {
				vocabPath = cfg.UI.Vocabulary
			}
			if !cmd.Flags().Changed("width") {
				width = cfg.UI.Width
			}

			vocab, err := voicings.Load(vocabPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(argv) == 0 {
				listChords(out, vocab)
				return nil
			}
			chord, err := vocab.Chord(argv[0])
			if err != nil {
				return err
			}
			if len(argv) == 1 {
				describeChord(out, chord)
				return nil
			}

			v, err := chord.Voicing(argv[1])
			if err != nil {
				return err
			}
			a, err := v.Args()
			if err != nil {
				return err
			}

			if send {
				return sendVoicing(cmd, cfg, chord, v, a)
			}
			fmt.Fprintf(out, "%s  %s\n", chord.Name, v.Label())
			if err := renderFrame(out, cfg, a, width, asJSON); err != nil {
				return err
			}
			if midiPath != "" {
				return exportChord(midiPath, a, cfg.Soundfont.Instrument)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&vocabPath, "vocab", "", "Impro-Visor .voc vocabulary (default: builtin)")
	f.IntVar(&width, "width", 0, "keyboard width in columns")
	f.BoolVar(&asJSON, "json", false, "print the frame as JSON")
	f.StringVar(&midiPath, "midi", "", "also write the voicing to a Standard MIDI File")
	f.BoolVar(&send, "send", false, "show the voicing on a running chordviz instead")
	return cmd
}

func listChords(w io.Writer, vocab *voicings.Vocabulary) {
	for _, name := range vocab.ChordNames() {
		c, _ := vocab.Chord(name)
		line := fmt.Sprintf("%-8s %-12s %d voicings", c.Name, c.Family, len(c.Voicings))
		if len(c.Same) > 0 {
			line += "  (also " + strings.Join(c.Same, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func describeChord(w io.Writer, c *voicings.Chord) {
	fmt.Fprintf(w, "%s  %s\n", c.Name, c.Pronounce)
	fmt.Fprintf(w, "  spell   %s\n", c.Spell)
	if len(c.Scales) > 0 {
		fmt.Fprintf(w, "  scales  %s\n", strings.Join(c.Scales, ", "))
	}
	fmt.Fprintln(w, "  voicings:")
	for i, v := range c.Voicings {
		fmt.Fprintf(w, "  %2d  %-24s %s\n", i, v.Label(), strings.Join(v.Notes, " "))
	}
}

func sendVoicing(cmd *cobra.Command, cfg *config.Config, c *voicings.Chord, v voicings.Voicing, a args.Args) error {
	res, err := host.Send(cmd.Context(), nil, cfg.Host.Listen, cfg.Host.Mount, a)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s %s as revision %d\n", c.Name, v.Name, res.Revision)
	return nil
}
