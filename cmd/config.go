package cmd

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration after file, environment and flag overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Config carries yaml tags only, so it is always dumped as YAML.
			return encodeYAML(cmd.OutOrStdout(), a.cfg)
		},
	}
}
