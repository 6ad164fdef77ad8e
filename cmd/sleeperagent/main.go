// Package main is the entrypoint for the sleeperagent CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"runtime"
	"strconv"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fantasyops/sleeperagent/internal/config"
	"github.com/fantasyops/sleeperagent/internal/export"
	"github.com/fantasyops/sleeperagent/internal/keeper"
	"github.com/fantasyops/sleeperagent/internal/pipeline"
	"github.com/fantasyops/sleeperagent/internal/publish"
	"github.com/fantasyops/sleeperagent/internal/server"
	"github.com/fantasyops/sleeperagent/internal/site"
	"github.com/fantasyops/sleeperagent/internal/sleeper"
	"github.com/fantasyops/sleeperagent/internal/snapshot"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		pretty     bool
	)

	rootCmd := &cobra.Command{
		Use:   "sleeperagent",
		Short: "Sleeper league exporter and docs publisher",
		Long: `sleeperagent pulls fantasy league data from the Sleeper API, writes
per-run snapshot directories, and promotes them into a stable docs tree
with change logs, manifests, and keeper artifacts.

Run 'sleeperagent run' for a full export-and-publish cycle.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.sleeperagent/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable console logs instead of JSON")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		prettyLogs = pretty
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSyncCmd(&configPath),
		newPublishCmd(&configPath),
		newKeepersCmd(&configPath),
		newIndexCmd(&configPath),
		newRunCmd(&configPath),
		newFileDiffCmd(&configPath),
		newServeCmd(&configPath),
		newWatchCmd(&configPath),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sleeperagent %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Built:      %s\n", BuildDate)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newSyncCmd(configPath *string) *cobra.Command {
	var (
		season  int
		weeks   string
		players bool
		zipRun  bool
	)

	cmd := &cobra.Command{
		Use:   "sync [league-id]",
		Short: "Export league data from the Sleeper API into run snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}

			only := ""
			if len(args) == 1 {
				only = args[0]
			}

			opts, err := exportOptions(cfg)
			if err != nil {
				return err
			}
			if season != 0 {
				opts.Season = season
			}
			if weeks != "" {
				opts.Weeks, err = config.ParseWeeks(weeks)
				if err != nil {
					return err
				}
			}
			opts.IncludePlayers = opts.IncludePlayers || players
			opts.Zip = zipRun

			return syncLeagues(cmd.Context(), cfg, logger, only, opts)
		},
	}

	cmd.Flags().IntVar(&season, "season", 0, "Season override (default: the league's season)")
	cmd.Flags().StringVar(&weeks, "weeks", "", `Weeks to pull, e.g. "1-4,7" (default: all to date)`)
	cmd.Flags().BoolVar(&players, "players", false, "Include the trimmed players catalog")
	cmd.Flags().BoolVar(&zipRun, "zip", false, "Zip the run directory when done")

	return cmd
}

func newPublishCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Diff, promote, and manifest the newest run snapshot per league",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			return runPublish(cmd.Context(), cfg, logger)
		},
	}
}

func newKeepersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "keepers",
		Short: "Build draft summaries and keeper round costs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			return runKeepers(cmd.Context(), cfg, logger)
		},
	}
}

func newIndexCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the docs index pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			return site.BuildIndex(afero.NewOsFs(), cfg.DocsDir, logger)
		},
	}
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Full cycle: sync, publish, keepers, index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			return runCycle(cmd.Context(), cfg, logger)
		},
	}
}

func newFileDiffCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "filediff <league-id> <path>",
		Short: "Show how a file differs between the stable tree and the newest run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(*configPath)
			if err != nil {
				return err
			}

			leagueID, rel := args[0], args[1]
			fsys := afero.NewOsFs()

			runDir, err := publish.NewestRunDir(fsys, cfg.DocsDir, leagueID)
			if err != nil {
				return err
			}
			stableDir := path.Join(cfg.DocsDir, "league_"+leagueID)

			d, err := snapshot.DiffFile(fsys, stableDir, runDir, rel)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("%s: %s\n", d.Path, d.ChangeType)
			if d.IsBinary {
				fmt.Printf("binary file (%d -> %d bytes)\n", d.OldSize, d.NewSize)
			} else if d.UnifiedDiff != "" {
				fmt.Print(d.UnifiedDiff)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the diff as JSON")

	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the docs tree for local preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(afero.NewOsFs(), cfg.DocsDir, cfg.Listen, server.VersionInfo{
				Version:   Version,
				Commit:    Commit,
				BuildDate: BuildDate,
			}, logger)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :8090)")

	return cmd
}

func newWatchCmd(configPath *string) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run full cycles on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			if schedule != "" {
				cfg.Schedule = schedule
			}
			if cfg.Schedule == "" {
				cfg.Schedule = "0 * * * *"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", `Cron expression (default "0 * * * *")`)

	return cmd
}

// prettyLogs switches the process logger to console output. Set from the
// root command's --pretty flag before any subcommand runs.
var prettyLogs bool

// setup loads config and builds the process logger shared by all
// subcommands.
func setup(configPath string) (*config.Config, zerolog.Logger, error) {
	var out io.Writer = os.Stderr
	if prettyLogs {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	logger := zerolog.New(out).With().Timestamp().Logger()

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, logger, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func newAPIClient(cfg *config.Config, logger zerolog.Logger) *sleeper.Client {
	return sleeper.NewClient(sleeper.Options{BaseURL: cfg.SleeperBaseURL}, logger)
}

// exportOptions derives export options from the config's season and
// weeks settings.
func exportOptions(cfg *config.Config) (export.Options, error) {
	var opts export.Options
	if cfg.Season != "" && cfg.Season != "auto" {
		season, err := strconv.Atoi(cfg.Season)
		if err != nil {
			return opts, fmt.Errorf("invalid season %q", cfg.Season)
		}
		opts.Season = season
	}
	weeks, err := config.ParseWeeks(cfg.Weeks)
	if err != nil {
		return opts, err
	}
	opts.Weeks = weeks
	return opts, nil
}

// syncLeagues exports each configured league in turn. A failing league
// does not stop the others.
func syncLeagues(ctx context.Context, cfg *config.Config, logger zerolog.Logger, only string, opts export.Options) error {
	fsys := afero.NewOsFs()
	exporter := export.NewExporter(fsys, newAPIClient(cfg, logger), logger)

	total, failed := 0, 0
	for _, lg := range cfg.Leagues {
		if only != "" && lg.ID != only {
			continue
		}
		total++
		meta, err := exporter.Export(ctx, cfg.DocsDir, lg.ID, opts)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("league_id", lg.ID).Msg("export failed")
			continue
		}
		fmt.Printf("Exported league %s -> %s (season %d, %d weeks)\n", lg.ID, meta.OutDir, meta.Season, len(meta.Weeks))
	}

	if total == 0 {
		return fmt.Errorf("league %s is not configured", only)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d leagues failed to export", failed, total)
	}
	return nil
}

func runPublish(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pub := publish.New(afero.NewOsFs(), cfg.DocsDir, logger)
	results, err := pub.Publish(ctx, cfg.LeagueIDs())
	for _, r := range results {
		if r.Failed() {
			fmt.Printf("league %s: FAILED at %s: %v\n", r.LeagueID, r.Stage, r.Err)
			continue
		}
		if r.Diff != nil && r.Diff.Empty() {
			fmt.Printf("league %s: no changes\n", r.LeagueID)
			continue
		}
		fmt.Printf("league %s: published from %s\n", r.LeagueID, r.RunDir)
	}
	return err
}

func runKeepers(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	svc := keeper.NewService(afero.NewOsFs(), newAPIClient(cfg, logger), logger)
	return svc.Run(ctx, cfg.DocsDir, cfg.Leagues)
}

// runCycle runs the full pipeline in order. Later stages still run when
// an earlier one fails so a partial outage degrades rather than halts
// publishing.
func runCycle(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}

	return pipeline.Run(ctx, logger, []pipeline.Stage{
		{Name: "sync", Run: func(ctx context.Context) error {
			return syncLeagues(ctx, cfg, logger, "", opts)
		}},
		{Name: "publish", Run: func(ctx context.Context) error {
			return runPublish(ctx, cfg, logger)
		}},
		{Name: "keepers", Run: func(ctx context.Context) error {
			return runKeepers(ctx, cfg, logger)
		}},
		{Name: "index", Run: func(ctx context.Context) error {
			return site.BuildIndex(afero.NewOsFs(), cfg.DocsDir, logger)
		}},
	})
}

// runWatch runs full cycles on the configured cron schedule until the
// context is cancelled. A failing cycle is logged, not fatal.
func runWatch(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	fmt.Printf("sleeperagent %s watching %d league(s), schedule %q\n", Version, len(cfg.Leagues), cfg.Schedule)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Schedule, pipeline.CycleFunc(ctx, logger, func(ctx context.Context) error {
		return runCycle(ctx, cfg, logger)
	}))
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cfg.Schedule, err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	<-ctx.Done()
	fmt.Println("\nShutting down...")
	return nil
}
