package commands

import (
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

func newConfigCommand(f *rootFlags) *cobra.Command {
	var colored bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings after environment and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := pp.New()
			printer.SetOutput(cmd.OutOrStdout())
			printer.SetColoringEnabled(colored)
			_, err := printer.Println(f.cfg)
			return err
		},
	}
	cmd.Flags().BoolVar(&colored, "color", false, "colorize the output")
	return cmd
}
