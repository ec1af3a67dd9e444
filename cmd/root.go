package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/josephlewis42/gsh/core"
	"github.com/josephlewis42/gsh/core/config"
	"github.com/josephlewis42/gsh/core/engine"
	"github.com/josephlewis42/gsh/core/logger"
	"github.com/josephlewis42/gsh/core/node"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgPath    string
	noConfig   bool
	command    string
	debug      bool
	lastStatus int
)

// loadConfig reads the configuration selected by the persistent flags. A
// missing configuration falls back to the built-in defaults.
func loadConfig() (*config.Configuration, error) {
	if noConfig {
		return config.Default(), nil
	}

	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return config.LoadOrDefault(afero.NewOsFs(), dir)
}

func configDir() (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return config.DefaultDir()
}

// childArgs builds the arguments of an interpreter running a subshell so it
// loads the same configuration as its parent and starts with its $?.
func childArgs(script string, status node.Status) []string {
	var args []string
	switch {
	case noConfig:
		args = append(args, "--no-config")
	case cfgPath != "":
		args = append(args, "--config", cfgPath)
	}
	return append(args, "--last-status", strconv.Itoa(status.Code), "-c", script)
}

// session is a shell wired to the host OS along with the resources it holds.
type session struct {
	shell    *core.Shell
	eventLog io.Closer
}

func (s *session) Close() error {
	if s.eventLog == nil {
		return nil
	}
	err := s.eventLog.Close()
	s.eventLog = nil
	return err
}

// newSession creates a shell backed by sys and the standard streams of the
// process.
func newSession(sys engine.OS, cfg *config.Configuration, stderr io.Writer) (*session, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating interpreter: %w", err)
	}

	e := engine.New(sys, engine.OSStreams())
	e.Isolator = &engine.ReexecIsolator{
		Path: self,
		Args: func(script string) []string {
			return childArgs(script, e.LastStatus)
		},
	}
	if debug {
		e.Trace = log.New(stderr, "[gsh] ", 0)
	}

	sess := &session{}
	switch fd, err := cfg.OpenEventLog(); {
	case errors.Is(err, config.ErrEventLogDisabled):
	case err != nil:
		return nil, fmt.Errorf("opening event log: %w", err)
	default:
		e.Events = logger.NewJsonLinesLogRecorder(fd).NewSession()
		sess.eventLog = fd
	}

	sess.shell = core.NewShell(e, cfg)
	sess.shell.Color = cfg.UseColor(isTerminal(os.Stderr))
	color.NoColor = !sess.shell.Color
	return sess, nil
}

// interact runs commands from standard input until it ends, with line editing
// when the input is a terminal.
func (s *session) interact() error {
	sh := s.shell
	var lines core.LineReader
	if isTerminal(os.Stdin) {
		rl, err := core.NewTerminalReader(sh.Engine.Streams, sh.Config)
		if err != nil {
			return err
		}
		lines = rl
	} else {
		lines = core.NewPlainReader(sh.Engine.Streams.Stdin)
	}
	defer lines.Close()

	sh.RunInteractive(lines)
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gsh",
	Short: "A small command shell",
	Long: `gsh runs commands, pipelines and and-or lists from a terminal, a pipe or
the -c flag. Constructs it doesn't support fail with a diagnostic instead of
running partially.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sess, err := newSession(engine.HostOS{}, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer sess.Close()

		sh := sess.shell
		sh.Engine.LastStatus = node.StatusFromCode(lastStatus)
		if cmd.Flags().Changed("command") {
			sh.RunCommand(command)
		} else if err := sess.interact(); err != nil {
			return err
		}

		// Exit doesn't run deferred calls.
		sess.Close()
		sh.Engine.OS.Exit(sh.Status().Code)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "configuration directory (default is $XDG_CONFIG_HOME/gsh)")
	rootCmd.PersistentFlags().BoolVar(&noConfig, "no-config", false, "ignore the configuration file and use the defaults")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run the given commands and exit")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "trace every node before it runs")
	rootCmd.Flags().IntVar(&lastStatus, "last-status", 0, "initial value of $?")
	rootCmd.Flags().MarkHidden("last-status")
}
