package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/josephlewis42/gsh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var (
	reportSession string
	reportJSON    bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

// buildReport aggregates the event log, keeping only entries from session
// when it's set.
func buildReport(r io.Reader, session string) (*logger.Report, error) {
	report := &logger.Report{}
	err := logger.ReadJSONLinesLog(r, func(le *logger.LogEntry) {
		if session != "" && le.SessionID != session {
			return
		}
		report.Update(le)
	})
	return report, err
}

// missingFeatures lists the unsupported constructs that were attempted, most
// frequent first.
func missingFeatures(report *logger.Report) []string {
	counts := &report.Unimplemented.Features
	features := counts.Keys()
	sort.SliceStable(features, func(i, j int) bool {
		return counts.Get(features[i]) > counts.Get(features[j])
	})
	return features
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := config.ReadEventLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		report, err := buildReport(fd, reportSession)
		if err != nil {
			return err
		}

		var out []byte
		if reportJSON {
			out, err = json.MarshalIndent(report, "", "  ")
		} else {
			out, err = yaml.Marshal(report)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if features := missingFeatures(report); len(features) > 0 && !reportJSON {
			fmt.Fprintf(w, "# unsupported constructs used: %q\n", features)
		}
		fmt.Fprintln(w, string(out))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	reportCommand.Flags().StringVar(&reportSession, "session", "", "only include events from this session ID")
	reportCommand.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
}
