package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sarchlab/tempo/datarecording"
	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/timing"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Run      string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Print the events of a recorded run",
		Long: `Print the fired events stored in a recording file, run by run and
in firing order.

Examples:
  tempo replay --db tempo_cq1h3.sqlite3
  tempo replay --db box_run.sqlite3 --run 6f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the recording file (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "print one run only")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions) error {
	ctx := cmd.Context()

	reader, err := datarecording.NewReader(opts.Database)
	if err != nil {
		return err
	}
	defer reader.Close()

	runs := []string{opts.Run}
	if opts.Run == "" {
		runs, err = reader.Runs(ctx)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
	}

	for _, run := range runs {
		rows, err := reader.ReadRun(ctx, run)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}

		if len(rows) == 0 {
			return fmt.Errorf("replay: run %q not found", run)
		}

		if err := printRun(cmd.OutOrStdout(), run, rows); err != nil {
			return err
		}
	}

	return nil
}

func printRun(w io.Writer, run string, rows []datarecording.EventRow) error {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "run %s: %d fired\n", run, len(rows))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "seq\ttime\tevent\tclass\ttarget")

	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			row.Seq,
			timing.VTime(row.TimeRaw),
			row.EventID,
			row.Class,
			event.TargetID(row.Target))
	}

	return tw.Flush()
}
