package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/debuglog"
	"github.com/pders01/ytsweep/internal/telemetry"
	"github.com/pders01/ytsweep/internal/tui"
	"github.com/spf13/cobra"
)

// Version is the version of the application, set at build time
var Version = "dev"

// skipConfig marks commands that must work without a loadable config.
const skipConfig = "skip-config"

type rootOptions struct {
	configPath  string
	dbPath      string
	debug       bool
	debugStderr bool
	quiet       bool

	cfg *config.Config
}

func main() {
	if err := execute(newRootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs cmd and flushes logging and telemetry whatever the outcome.
func execute(cmd *cobra.Command) error {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
		debuglog.Close()
	}()
	return cmd.Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ytsweep",
		Short: "Find and delete your own YouTube comments by keyword",
		Long: `ytsweep walks every video on your channel, collects the comments and
replies that contain a keyword, and deletes the ones you pick.

Run without a subcommand to open the interactive interface.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
	cmd.SetVersionTemplate("ytsweep {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	flags.BoolVar(&opts.debug, "debug", false, "Write debug logs to the log file")
	flags.BoolVar(&opts.debugStderr, "debug-stderr", false, "Write debug logs to stderr")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress banners and progress output")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newSearchCmd(opts),
		newDeleteCmd(opts),
		newResultsCmd(opts),
		newTUICmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// setup loads the config and starts logging and telemetry for every
// command that needs them.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfig] == "true" {
			return nil
		}
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	o.cfg = cfg

	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if o.debug || o.debugStderr {
		level = debuglog.LevelDebug
	}
	if o.debugStderr {
		debuglog.SetOutput(level, cmd.ErrOrStderr())
	} else if err := debuglog.Setup(level, cfg.Log.File); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if err := telemetry.Init(cmd.Context(), cfg.Telemetry, "ytsweep", Version, cmd.ErrOrStderr()); err != nil {
		debuglog.Warnf("telemetry disabled: %v", err)
	}

	tui.ApplyTheme(cfg.UI.Colors)
	debuglog.Debugf("ytsweep %s: command %q, database %s", Version, cmd.CommandPath(), cfg.Database.Path)
	return nil
}
