package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clashlb/launcher/pkg/cli"
	"clashlb/launcher/pkg/config"
	"clashlb/launcher/pkg/history"
	"clashlb/launcher/pkg/telemetry/logging"
)

var historyFlags struct {
	limit  int
	id     string
	output string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded launches",
	Long: `List launches recorded in the history database, newest first. With --id,
show the processes of one launch.`,
	Example: `  clash-lb history --limit 5
  clash-lb history --id 1b4e28ba-2fa1-11d2-883f-0016d3cca427 -o json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "l", 10, "number of launches to show (0 = all)")
	historyCmd.Flags().StringVar(&historyFlags.id, "id", "", "show the processes of one launch")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "text", "output format (text, json, csv)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(historyFlags.output)
	if err != nil {
		return err
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return err
	}

	settings := config.MustGetConfig()
	if !settings.History.Enabled {
		return cli.NewConfigError("history.enabled", "launch history is disabled")
	}

	ctx := logging.WithCommand(cmd.Context(), "history")
	store, err := history.Open(ctx, history.Config{Path: settings.HistoryPath()})
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if historyFlags.id != "" {
		launch, err := store.Get(ctx, historyFlags.id)
		if errors.Is(err, history.ErrNotFound) {
			return cli.WrapConfigError("id", fmt.Sprintf("no launch %q", historyFlags.id), err)
		}
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		if format == cli.FormatJSON {
			return formatter.FormatTo(out, launch)
		}
		return formatter.FormatTo(out, processTable(launch.Processes))
	}

	launches, err := store.List(ctx, historyFlags.limit)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	if format == cli.FormatJSON {
		return formatter.FormatTo(out, launches)
	}
	return formatter.FormatTo(out, launchTable(launches))
}

type launchTable []history.Launch

func (t launchTable) Header() []string {
	return []string{"ID", "STARTED", "STATUS", "INSTANCES", "STOPPED", "DURATION", "ERROR"}
}

func (t launchTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, l := range t {
		rows[i] = []string{
			l.ID,
			l.StartedAt.Local().Format(time.DateTime),
			string(l.Status),
			strconv.Itoa(l.Instances),
			strconv.Itoa(l.Terminated),
			l.Duration.Round(time.Millisecond).String(),
			l.Error,
		}
	}
	return rows
}

type processTable []history.Process

func (t processTable) Header() []string {
	return []string{"ROLE", "INDEX", "PID", "BINARY", "LOG", "ERROR"}
}

func (t processTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, p := range t {
		index, pid := "-", "-"
		if p.Index >= 0 {
			index = strconv.Itoa(p.Index)
		}
		if p.PID > 0 {
			pid = strconv.Itoa(p.PID)
		}
		rows[i] = []string{string(p.Role), index, pid, p.Binary, p.LogPath, p.Error}
	}
	return rows
}
