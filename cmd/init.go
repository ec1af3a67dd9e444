package cmd

import (
	"log"

	"github.com/josephlewis42/gsh/core/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the configuration directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir, err := configDir()
		if err != nil {
			return err
		}

		logger := log.New(cmd.ErrOrStderr(), "", 0)
		_, err = config.Initialize(afero.NewOsFs(), dir, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
