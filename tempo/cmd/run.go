package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sarchlab/tempo/demo/bounce"
	"github.com/sarchlab/tempo/simulation"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Scenario    string
	Output      string
	NoRecord    bool
	Monitor     bool
	MonitorPort int
	Open        bool
	Wait        bool
	Strict      bool
	Workers     int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bounce demo",
		Long: `Run the bounce demo from a scenario file and print a summary.

Values are taken from the scenario file, then from the environment
(` + EnvOutput + `, ` + EnvMonitorPort + `), then from flags.

Examples:
  tempo run
  tempo run --scenario box.yaml --output box_run
  tempo run --monitor --wait`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBounce(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "YAML scenario file")
	cmd.Flags().StringVar(&opts.Output, "output", "",
		"recording file name, without the .sqlite3 suffix")
	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false,
		"do not record fired events")
	cmd.Flags().BoolVar(&opts.Monitor, "monitor", false,
		"serve the monitoring page")
	cmd.Flags().IntVar(&opts.MonitorPort, "monitor-port", 0,
		"port of the monitoring page, random if 0")
	cmd.Flags().BoolVar(&opts.Open, "open", false,
		"open the monitoring page in a browser")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false,
		"keep the monitor running after the run until interrupted")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false,
		"panic on events whose target was destroyed")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0,
		"number of background job workers")

	return cmd
}

// resolve merges the scenario with the environment and the flags.
func (o *RunOptions) resolve(cmd *cobra.Command) (Scenario, error) {
	s := DefaultScenario()

	if o.Scenario != "" {
		loaded, err := LoadScenario(o.Scenario)
		if err != nil {
			return s, err
		}

		s = loaded
	}

	if v := os.Getenv(EnvOutput); v != "" {
		s.Output = v
	}

	if v := os.Getenv(EnvMonitorPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}

		s.MonitorPort = port
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		s.Output = o.Output
	}
	if flags.Changed("monitor-port") {
		s.MonitorPort = o.MonitorPort
	}
	if flags.Changed("strict") {
		s.Strict = o.Strict
	}
	if flags.Changed("workers") {
		s.Workers = o.Workers
	}

	return s, nil
}

func (o *RunOptions) builder(s Scenario) simulation.Builder {
	b := simulation.MakeBuilder().
		WithLogger(o.Logger()).
		WithMaxSameTimeFirings(s.MaxSameTimeFirings)

	if s.Strict {
		b = b.WithStrict()
	}

	if s.Workers > 0 {
		b = b.WithJobWorkers(s.Workers)
	}

	if o.NoRecord {
		b = b.WithoutRecording()
	} else {
		b = b.WithOutputFileName(s.Output)
	}

	if o.Monitor {
		b = b.WithMonitor().WithMonitorPort(s.MonitorPort)
		if o.Open {
			b = b.WithBrowser()
		}
	}

	return b
}

func runBounce(cmd *cobra.Command, opts *RunOptions) error {
	s, err := opts.resolve(cmd)
	if err != nil {
		return err
	}

	session, err := opts.builder(s).Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sum, err := bounce.Run(ctx, session, s.Config())
	if err != nil {
		_ = session.Terminate()
		return err
	}

	printSummary(cmd.OutOrStdout(), sum)

	if session.OutputFile() != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "recorded to %s\n", session.OutputFile())
	}

	if opts.Monitor && opts.Wait {
		opts.Logger().WithField("addr", session.MonitorAddr()).
			Info("run finished, monitor is still serving, interrupt to stop")
		<-ctx.Done()
	}

	return session.Terminate()
}

func printSummary(w io.Writer, sum bounce.Summary) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "finished at t=%s\n", sum.End)
	p.Fprintf(w, "  events fired  %d\n", sum.Fired)
	p.Fprintf(w, "  frames        %d\n", sum.Frames)
	p.Fprintf(w, "  bounces       %d\n", sum.Bounces)
	p.Fprintf(w, "  nudges        %d\n", sum.Nudges)
	p.Fprintf(w, "  paddle plans  %d\n", sum.Plans)
	p.Fprintf(w, "  ball          %s\n", sum.Ball)
	p.Fprintf(w, "  paddle        %s\n", sum.Paddle)
}
