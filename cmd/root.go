package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

var (
	flagUsers   []string
	flagFiles   []string
	flagNoCache bool
	flagQuiet   bool
	flagDebug   bool
)

// Loaded once per invocation in PersistentPreRunE.
var (
	appConfig config.Config
	appLog    = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "copilotpulse [files or directories...]",
	Short: "Copilot usage metrics CLI",
	Long:  "Merge Copilot usage-metrics exports and report activity, acceptance, and adoption.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSummary,

	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) { appLog.Sync() },
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&flagUsers, "user", "u", nil, "Only include these users (repeatable)")
	rootCmd.PersistentFlags().StringSliceVarP(&flagFiles, "file", "f", nil, "Export file or directory (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Verbose logging to stderr")
}

func setup(_ *cobra.Command, _ []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg

	level := zapcore.WarnLevel
	if flagDebug {
		level = zapcore.DebugLevel
	}
	log, err := logger.New("development", level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	appLog = log
	return nil
}

// inputPaths returns positional args and --file values, or the configured
// inputs when neither is given.
func inputPaths(args []string) []string {
	paths := append(append([]string{}, args...), flagFiles...)
	if len(paths) == 0 {
		paths = appConfig.General.Inputs
	}
	return paths
}

// selectedUsers returns --user values, or the configured default filter.
func selectedUsers() []string {
	if len(flagUsers) > 0 {
		return flagUsers
	}
	return appConfig.General.Users
}

func cachePath() string {
	if flagNoCache || appConfig.General.NoCache {
		return ""
	}
	return pipeline.CachePath()
}

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData(cmd *cobra.Command, args []string) (*pipeline.LoadResult, error) {
	paths := inputPaths(args)
	if len(paths) == 0 {
		return nil, errors.New("no inputs: pass export files or directories, or set general.inputs in the config")
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning exports...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
	}

	result, err := pipeline.LoadPaths(cmd.Context(), paths, cachePath(), pipeline.LoadOptions{
		Logger:   appLog,
		Progress: progressFn,
	})
	if err != nil {
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		if result.CacheHits > 0 {
			fmt.Fprintf(os.Stderr, "\r  Loaded %s records from %d files (%d cached)    \n",
				cli.FormatNumber(int64(result.Dataset.Len())), result.TotalFiles, result.CacheHits)
		} else {
			fmt.Fprintf(os.Stderr, "\r  Loaded %s records from %d files    \n",
				cli.FormatNumber(int64(result.Dataset.Len())), result.TotalFiles)
		}
	}
	return result, nil
}

// workingSet loads the inputs and applies the user filter. ok is false
// when there is nothing to show; the caller returns quietly.
func workingSet(cmd *cobra.Command, args []string) (model.Dataset, *pipeline.LoadResult, bool, error) {
	result, err := loadData(cmd, args)
	if err != nil {
		return model.Dataset{}, nil, false, err
	}
	defer warnFileErrors(result)

	if result.Dataset.Len() == 0 {
		fmt.Println("\n  No usage records found.")
		return model.Dataset{}, result, false, nil
	}

	ds := pipeline.FilterUsers(result.Dataset, selectedUsers())
	if ds.Len() == 0 {
		fmt.Println("\n  No records match the selected users.")
		return ds, result, false, nil
	}
	return ds, result, true, nil
}

func warnFileErrors(result *pipeline.LoadResult) {
	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be read\n", result.FileErrors)
	}
	if result.ParseErrors > 0 && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %d malformed chunks skipped\n", result.ParseErrors)
	}
}

// filterNote describes the active user filter for titles.
func filterNote() string {
	users := selectedUsers()
	if len(users) == 0 {
		return "all users"
	}
	return cli.FormatList(users, 3)
}
