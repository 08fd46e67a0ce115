package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// listSubcommands appends a "Subcommands:" section to the Long text of
// every parent command below cmd. cmd itself is left unchanged.
func listSubcommands(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		listSubcommands(sub)
		if !sub.HasAvailableSubCommands() {
			continue
		}

		lines := []string{sub.Long, "", "Subcommands:"}
		for _, c := range sub.Commands() {
			if c.IsAvailableCommand() {
				lines = append(lines, fmt.Sprintf("  %-10s %s", c.Name(), c.Short))
			}
		}
		sub.Long = strings.Join(lines, "\n")
	}
}
