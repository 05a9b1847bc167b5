package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Parsing a subcommand's flags merges the root's persistent flags into its
// flag set; a duplicated shorthand makes pflag panic at that point, before
// the command ever runs.
func TestSubcommandFlagsParseWithRootFlags(t *testing.T) {
	cases := map[string][]string{
		"export": {"--mirror"},
		"import": {"--force"},
		"edit":   {},
		"check":  {},
	}

	for name, args := range cases {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())

		assert.NotPanics(t, func() {
			assert.NoError(t, cmd.ParseFlags(append(args, "--file", "Book1.xlsm")))
		}, "flags of %q should parse alongside the root flags", name)
	}
}
