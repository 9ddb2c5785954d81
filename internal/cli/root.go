// Package cli implements the taskflow command line: fixture generation and
// offline recommendation and capacity reports over a roster file.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/taskflow/internal/app"
	"github.com/okian/taskflow/internal/config"
	"github.com/okian/taskflow/pkg/logger"
)

const (
	appName       = "taskflow"
	defaultRoster = "configs/roster.yaml"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

type globalFlags struct {
	configPath string
	roster     string
	logLevel   string
	asJSON     bool
}

// NewRootCmd builds the taskflow command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Assignee recommendations and team capacity",
		Long: `taskflow ranks team members for work items by skill fit and capacity
headroom, and reports committed load against sprint capacity.

Commands read a roster fixture (YAML or JSON) holding members and work items.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithOptions(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(g.logLevel)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", os.Getenv(config.EnvConfig), "Config file path (YAML)")
	pf.StringVarP(&g.roster, "roster", "r", "", "Roster fixture (defaults to roster_file from config, then "+defaultRoster+")")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.BoolVar(&g.asJSON, "json", false, "Print JSON instead of a table")

	cmd.AddCommand(
		newSeedCmd(),
		newRecommendCmd(g),
		newWorkloadCmd(g),
		newCapacityCmd(g),
		newLoadTestCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// withService loads configuration, starts a service over the resolved roster
// and runs fn against it.
func withService(ctx context.Context, g *globalFlags, fn func(*service.Service) error) error {
	cfg, err := config.LoadFile(ctx, g.configPath)
	if err != nil {
		return err
	}
	roster := g.roster
	if roster == "" {
		roster = cfg.RosterFile
	}
	if roster == "" {
		roster = defaultRoster
	}

	opts := append(service.ConfigOptions(cfg),
		service.WithRosterFile(roster),
		service.WithWatchRoster(false, 0),
		service.WithSnapshotSchedule(""),
		service.WithWorkerCount(1),
		service.WithVersion(Version),
		service.WithLogger(logger.Named("cli")),
	)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()
	return fn(svc)
}
