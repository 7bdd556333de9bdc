// Command pipeline runs Hockey Victoria sync stages from the shell.
//
// Usage:
//
//	hvsync-pipeline run --mode daily
//	hvsync-pipeline run --modules results,ladder --days-back 3
//	hvsync-pipeline games --comp-id 21935 --mentone-only
//	hvsync-pipeline results --game-id 6525435 --force
//	hvsync-pipeline players --limit-teams 5 --dry-run
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Game times parse in Australia/Melbourne; embed the tz database so a
	// scratch image can resolve the zone.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mentonehc/hvsync/internal/app"
	"github.com/mentonehc/hvsync/internal/config"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/platform/logging"
	"github.com/mentonehc/hvsync/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "hvsync-pipeline",
		Short:        "Mentone Hockey Club sync pipeline for Hockey Victoria",
		SilenceUsage: true,
	}

	root.AddCommand(runCmd())
	for _, m := range pipeline.AllModules() {
		root.AddCommand(stageCmd(m))
	}

	if err := root.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// stageFlags carries every selector a subcommand may register. Stages ignore
// selectors they do not understand, so commands only register the relevant
// ones.
type stageFlags struct {
	dryRun      bool
	verbose     bool
	daysBack    int
	limitGames  int
	limitTeams  int
	compID      string
	gradeID     string
	gameID      string
	teamID      string
	mentoneOnly bool
	force       bool
}

func (f *stageFlags) runOptions() usecase.RunOptions {
	return usecase.RunOptions{
		DryRun:        f.dryRun,
		DaysBack:      f.daysBack,
		LimitGames:    f.limitGames,
		LimitTeams:    f.limitTeams,
		CompetitionID: f.compID,
		GradeID:       f.gradeID,
		GameID:        f.gameID,
		TeamID:        f.teamID,
		MentoneOnly:   f.mentoneOnly,
		Force:         f.force,
	}
}

func (f *stageFlags) registerCommon(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Scrape and report without writing to the store")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Debug-level logging")
}

func runCmd() *cobra.Command {
	var (
		mode    string
		modules []string
		flags   stageFlags
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a named mode or an explicit stage list",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.runOptions()
			if len(modules) > 0 {
				parsed, err := pipeline.ParseModules(modules)
				if err != nil {
					return err
				}
				opts.Modules = parsed
			} else {
				parsed, err := pipeline.ParseMode(mode)
				if err != nil {
					return err
				}
				opts.Mode = parsed
			}

			return runPipeline(opts, flags.verbose)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(pipeline.ModeDaily), "Named stage bundle (setup, fixtures, daily, weekly, full)")
	cmd.Flags().StringSliceVar(&modules, "modules", nil, "Explicit stage list, overrides --mode")
	flags.registerCommon(cmd)
	cmd.Flags().IntVar(&flags.daysBack, "days-back", 0, "Day window for results and venues")
	cmd.Flags().IntVar(&flags.limitGames, "limit-games", 0, "Cap on games per stage")
	cmd.Flags().IntVar(&flags.limitTeams, "limit-teams", 0, "Cap on teams for the players stage")
	cmd.Flags().StringVar(&flags.compID, "comp-id", "", "Restrict to one competition")
	cmd.Flags().StringVar(&flags.gradeID, "grade-id", "", "Restrict to one grade")
	cmd.Flags().StringVar(&flags.gameID, "game-id", "", "Restrict the results stage to one game")
	cmd.Flags().StringVar(&flags.teamID, "team-id", "", "Restrict the players stage to one team")
	cmd.Flags().BoolVar(&flags.mentoneOnly, "mentone-only", false, "Only games with a Mentone side")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Bypass freshness windows and recheck recorded results")

	return cmd
}

func stageCmd(m pipeline.Module) *cobra.Command {
	var flags stageFlags
	cmd := &cobra.Command{
		Use:   string(m),
		Short: fmt.Sprintf("Run only the %s stage", m),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.runOptions()
			opts.Modules = []pipeline.Module{m}

			return runPipeline(opts, flags.verbose)
		},
	}
	flags.registerCommon(cmd)

	switch m {
	case pipeline.ModuleTeams:
		cmd.Flags().StringVar(&flags.compID, "comp-id", "", "Restrict to one competition")
		cmd.Flags().StringVar(&flags.gradeID, "grade-id", "", "Restrict to one grade")
		cmd.Flags().BoolVar(&flags.force, "force", false, "Scan grades even when recently checked")
	case pipeline.ModuleLadder:
		cmd.Flags().StringVar(&flags.compID, "comp-id", "", "Restrict to one competition")
		cmd.Flags().StringVar(&flags.gradeID, "grade-id", "", "Restrict to one grade")
	case pipeline.ModuleGames:
		cmd.Flags().StringVar(&flags.compID, "comp-id", "", "Restrict to one competition")
		cmd.Flags().StringVar(&flags.gradeID, "grade-id", "", "Restrict to one grade")
		cmd.Flags().BoolVar(&flags.mentoneOnly, "mentone-only", false, "Only games with a Mentone side")
	case pipeline.ModuleResults:
		cmd.Flags().StringVar(&flags.gameID, "game-id", "", "Check one game only")
		cmd.Flags().IntVar(&flags.daysBack, "days-back", 0, "Day window to recheck")
		cmd.Flags().StringVar(&flags.compID, "comp-id", "", "Restrict to one competition")
		cmd.Flags().IntVar(&flags.limitGames, "limit-games", 0, "Cap on games to check")
		cmd.Flags().BoolVar(&flags.force, "force", false, "Refetch even when a result is already recorded")
	case pipeline.ModulePlayers:
		cmd.Flags().StringVar(&flags.teamID, "team-id", "", "Process one team only")
		cmd.Flags().IntVar(&flags.limitTeams, "limit-teams", 0, "Cap on teams to process")
	case pipeline.ModuleVenues:
		cmd.Flags().IntVar(&flags.daysBack, "days-back", 0, "Day window of games to inspect")
		cmd.Flags().IntVar(&flags.limitGames, "limit-games", 0, "Cap on games to inspect")
	}

	return cmd
}

func runPipeline(opts usecase.RunOptions, verbose bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewConsole(level)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	run, runErr := application.Orchestrator.Run(ctx, opts)
	if run.ID != "" {
		logger.Info("pipeline run finished",
			"run_id", run.ID,
			"mode", string(run.Mode),
			"status", string(run.Status),
			"stages", len(run.Stages),
			"duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			"dry_run", run.DryRun,
		)
	}
	if runErr != nil {
		return runErr
	}
	if run.Status == pipeline.RunFailed {
		return fmt.Errorf("run %s finished with failed stages", run.ID)
	}

	return nil
}
