package main

import (
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"clashlb/launcher/pkg/cli"
	"clashlb/launcher/pkg/config"
	"clashlb/launcher/pkg/fleet"
	"clashlb/launcher/pkg/telemetry/logging"
)

var stopOutput string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the fleet started by the last launch",
	Long: `Terminate every process recorded in the pid file of the work directory and
remove the file. Processes that already exited are reported as gone.`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVarP(&stopOutput, "output", "o", "text", "output format (text, json, csv)")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(stopOutput)
	if err != nil {
		return err
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return err
	}

	settings := config.MustGetConfig()
	ctx := logging.WithCommand(cmd.Context(), "stop")

	manager := fleet.NewManager(fleet.WithLogger(slog.Default()))
	results, err := manager.Stop(ctx, fleet.PIDFile{Path: filepath.Join(settings.WorkDir, fleet.PIDFileName)})
	if err != nil {
		return cli.NewCommandError("stop", err)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), stopTable(results))
}

// stopTable lists one terminated pid per row.
type stopTable []fleet.TerminateResult

func (t stopTable) Header() []string {
	return []string{"PID", "OUTCOME", "ERROR"}
}

func (t stopTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		errText := ""
		if r.Err != nil && !r.Gone {
			errText = r.Err.Error()
		}
		rows[i] = []string{strconv.Itoa(r.PID), r.Outcome(), errText}
	}
	return rows
}
