package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to serialize config: %w", err)
			}
			out := cmd.OutOrStdout()
			source := a.configUsed
			if source == "" {
				source = "(defaults)"
			}
			if _, err := fmt.Fprintf(out, "# source: %s\n", source); err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}
