package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/volumetools/snaprotate/internal/catalog"
	"github.com/volumetools/snaprotate/internal/config"
	"github.com/volumetools/snaprotate/internal/execx"
	"github.com/volumetools/snaprotate/internal/logging"
	"github.com/volumetools/snaprotate/internal/mount"
	"github.com/volumetools/snaprotate/internal/rotator"
	"github.com/volumetools/snaprotate/internal/store"
)

var rootFlags struct {
	cfgFile    string
	dryRun     bool
	onlyTake   bool
	onlyRotate bool
	targets    []string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "snaprotate",
	Short: "Create and rotate btrfs subvolume snapshots",
	Long: `snaprotate takes read-only btrfs snapshots of configured subvolumes and
thins the existing ones by age: dense near the present, sparse far in the
past, following the age -> spacing rules in the config file.

It is meant to run as a single periodic invocation (cron, systemd timer);
it does not schedule itself.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command, exiting non-zero on any unrecoverable
// error.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&rootFlags.cfgFile, "config", "c", "/etc/snaprotate.yaml", "path to the configuration file")
	rootCmd.Flags().BoolVarP(&rootFlags.dryRun, "dry-run", "n", false, "show btrfs operations without executing them")
	rootCmd.Flags().BoolVarP(&rootFlags.onlyRotate, "rotate", "r", false, "only rotate snapshots")
	rootCmd.Flags().BoolVarP(&rootFlags.onlyTake, "take", "t", false, "only take snapshots")
	rootCmd.Flags().StringSliceVar(&rootFlags.targets, "target", nil, "only operate on the named targets")
	rootCmd.Flags().StringVar(&rootFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&rootFlags.logFormat, "log-format", "", "override log format (text, json)")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootFlags.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", rootFlags.cfgFile, err)
	}

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if rootFlags.logLevel != "" {
		level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		format = rootFlags.logFormat
	}
	log := logging.Setup(level, format)

	// Mounting always happens for real; only the btrfs operations are
	// described in a dry run.
	var mutator execx.Runner = execx.ExecRunner{}
	if rootFlags.dryRun {
		mutator = execx.DryRunner{Out: cmd.OutOrStdout()}
	}

	rot := rotator.New(
		cfg,
		mount.New(execx.ExecRunner{}, log),
		store.New(mutator, log),
		catalog.New(log),
		log,
	)

	return rot.Run(cmd.Context(), rotator.Options{
		Take:    rootFlags.onlyTake || !rootFlags.onlyRotate,
		Rotate:  rootFlags.onlyRotate || !rootFlags.onlyTake,
		Targets: rootFlags.targets,
	})
}
