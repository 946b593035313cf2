/*
Package cli provides command-line helpers used by the clash-lb command.

Output Formatting:

Command results are printed as text, JSON or CSV. Values implementing
Table print as aligned columns in text mode and as rows in CSV mode:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

Spawning a large fleet reports progress on a terminal:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(steps)))
	...
	progress.Update(int64(done))
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
