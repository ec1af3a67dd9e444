package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/gsh/core/config"
	"github.com/josephlewis42/gsh/core/engine"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const playgroundEventLog = "events.jsonl"

// playgroundOS removes the scratch directory when the shell exits.
type playgroundOS struct {
	engine.HostOS
	dir string
}

func (p *playgroundOS) Exit(code int) {
	os.RemoveAll(p.dir)
	p.HostOS.Exit(code)
}

// setupPlayground writes a configuration with the event log enabled to a
// directory under dir.
func setupPlayground(fsys afero.Fs, dir string, logger *log.Logger) (string, *config.Configuration, error) {
	cfgDir := filepath.Join(dir, ".gsh")
	cfg, err := config.Initialize(fsys, cfgDir, logger)
	if err != nil {
		return "", nil, err
	}

	// Saved so subshells, which load the file, log too.
	cfg.EventLog = playgroundEventLog
	if err := cfg.Save(); err != nil {
		return "", nil, err
	}
	return cfgDir, cfg, nil
}

// playgroundCmd runs the shell in a scratch directory with event logging on
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Run the shell in a temporary directory and log every event.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir, err := os.MkdirTemp("", "gsh-playground")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)
		cfgDir, cfg, err := setupPlayground(afero.NewOsFs(), dir, playgroundLogger)
		if err != nil {
			return err
		}
		cfgPath = cfgDir
		noConfig = false

		sys := &playgroundOS{dir: dir}
		sess, err := newSession(sys, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sys.Chdir(dir); err != nil {
			return err
		}

		playgroundLogger.Printf("Working in: file://%s\n", dir)
		playgroundLogger.Printf("See events with: tail -f %s\n", filepath.Join(cfgDir, playgroundEventLog))
		playgroundLogger.Println(strings.Repeat("=", 80))

		if err := sess.interact(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exit code: %d\n", sess.shell.Status().Code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}
