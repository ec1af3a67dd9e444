package cmd

import (
	"fmt"

	"github.com/josephlewis42/gsh/core/engine"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the commands that run inside the shell process
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range engine.BuiltinNames(engine.AllBuiltins) {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, engine.AllBuiltins[name].Short)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
