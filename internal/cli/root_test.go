package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	t.Parallel()

	paths := []string{
		"store",
		"buy",
		"serve",
		"wallet create",
		"wallet restore",
		"wallet accounts",
		"config init",
		"config show",
		"config path",
		"version",
	}
	for _, p := range paths {
		cmd, _, err := rootCmd.Find(strings.Fields(p))
		require.NoError(t, err, p)
		assert.NotEqual(t, rootCmd, cmd, p)
	}
}

func TestGlobalFlags(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"home", "output", "verbose", "yes"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "o", rootCmd.PersistentFlags().Lookup("output").Shorthand)
	assert.Equal(t, "y", rootCmd.PersistentFlags().Lookup("yes").Shorthand)
}

func TestListSubcommands(t *testing.T) {
	t.Parallel()

	parent := &cobra.Command{Use: "parent", Long: "Parent command."}
	parent.AddCommand(
		&cobra.Command{Use: "one", Short: "First child", Run: func(*cobra.Command, []string) {}},
		&cobra.Command{Use: "two", Short: "Second child", Run: func(*cobra.Command, []string) {}},
	)
	root := &cobra.Command{Use: "root", Long: "Root."}
	root.AddCommand(parent)

	listSubcommands(root)

	assert.Equal(t, "Root.", root.Long)
	assert.Contains(t, parent.Long, "Subcommands:")
	assert.Contains(t, parent.Long, "one        First child")
	assert.Contains(t, parent.Long, "two        Second child")
}
