package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/skillmint/internal/version"
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := version.Get()
		if formatter.IsJSON() {
			return formatter.Print(info)
		}
		out(cmd.OutOrStdout(), "skillmint %s\n", info.String())
		out(cmd.OutOrStdout(), "%s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
