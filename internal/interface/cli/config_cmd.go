package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(globalConfig)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			if globalConfig.SettingPath != "" {
				fmt.Fprintf(out, "# source: %s (%s)\n", globalConfig.Source, globalConfig.SettingPath)
			} else {
				fmt.Fprintf(out, "# source: %s\n", globalConfig.Source)
			}
			_, err = out.Write(data)
			return err
		},
	})
	return cmd
}
