package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"chordviz/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if write {
				if err := root.cfg.Save(); err != nil {
					return err
				}
				path, _ := config.ConfigPath()
				fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(root.cfg)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "save it to the config file")
	return cmd
}
