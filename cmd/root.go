package cmd

import (
	"github.com/spf13/cobra"

	"chordviz/config"
	"chordviz/debug"
)

type rootOptions struct {
	debug bool
	cfg   *config.Config
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "chordviz",
		Short: "Piano keyboard chord visualizer",
		Long: `chordviz draws a piano keyboard between two notes, highlights a chord
and plays keys through a General MIDI synth. A host drives it over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				if err := debug.Enable(debug.DefaultPath()); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			debug.Disable()
		},
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write a debug log to "+debug.DefaultPath())

	root.AddCommand(
		newRunCmd(opts),
		newRenderCmd(opts),
		newVoicingsCmd(opts),
		newPortsCmd(),
		newInstrumentsCmd(),
		newConfigCmd(opts),
	)
	return root
}

func Execute() {
	cobra.CheckErr(NewRootCmd().Execute())
}
