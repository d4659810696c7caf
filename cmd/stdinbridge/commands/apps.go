package commands

import (
	"fmt"

	"github.com/casualjim/stdinbridge/apps"
	"github.com/spf13/cobra"
)

func newAppsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the applications that can be bridged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range apps.Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
