package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chordviz/audio"
	"chordviz/midi"
)

func newPortsCmd() *cobra.Command {
	timeout := midi.DefaultScanTimeout
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List MIDI ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer midi.CloseDriver()
			ports, err := midi.ListPorts(timeout)
			if err != nil {
				return fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Inputs:")
			printPorts(out, ports.In)
			fmt.Fprintln(out, "Outputs:")
			printPorts(out, ports.Out)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "give up scanning after this long")
	return cmd
}

func printPorts(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for i, name := range names {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
}

func newInstrumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instruments [filter]",
		Short: "List General MIDI instrument names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, name := range audio.Instruments() {
				if len(args) == 1 && !strings.Contains(name, args[0]) {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%3d %s\n", i, name)
			}
			return nil
		},
	}
}
