package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/okian/taskflow/internal/loadtest"
)

func newLoadTestCmd(g *globalFlags) *cobra.Command {
	cfg := &loadtest.Config{}

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive a running service with auto-assignment requests",
		Long: `loadtest queues an auto-assignment request for every unassigned item of a
running service, replays the same event ids for each extra round, waits for
the workers and verifies the resulting assignments and team totals.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadtest.Run(cmd.Context(), cfg)
			if stats != nil && stats.Submitted > 0 {
				if g.asJSON {
					if perr := printJSON(cmd.OutOrStdout(), stats); perr != nil {
						return perr
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(),
						"items %d, submitted %d, accepted %d, duplicates %d, backpressured %d, failed %d, applied %d, rejected %d in %s\n",
						stats.Items, stats.Submitted, stats.Accepted, stats.Duplicates, stats.Backpressured,
						stats.Failed, stats.Applied, stats.Rejected, stats.Duration)
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Rounds, "rounds", loadtest.DefaultRounds, "Submissions per item; rounds after the first are replays")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Concurrent requests")
	f.DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.PollInterval, "poll", loadtest.DefaultPollInterval, "Status poll interval")
	f.DurationVar(&cfg.SettleTimeout, "settle", loadtest.DefaultSettleTimeout, "How long to wait for queued requests")
	f.StringVar(&cfg.ReportFile, "report", "", "Write run statistics as JSON to this file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every failed submission")
	return cmd
}
