package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/metacheck/internal/config"
	"github.com/roach88/metacheck/internal/runlog"
	"github.com/roach88/metacheck/internal/runner"
)

// summaryRound trims elapsed-time noise in text output.
const summaryRound = time.Millisecond

// BatchResult holds the summary of a batch run for JSON output.
type BatchResult struct {
	RunID     string           `json:"run_id"`
	Processed int              `json:"processed"`
	Succeeded int              `json:"succeeded"`
	Skipped   int              `json:"skipped"`
	Failures  []runner.Failure `json:"failures,omitempty"`
	ElapsedMS int64            `json:"elapsed_ms"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		configPath string
		datasets   []string
		strict     bool
		resume     bool
	)
	flagCfg := config.Default()

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process many datasets in parallel",
		Long: `Process every dataset under the data directory (or an explicit list)
with a bounded worker pool. Each dataset gets its own CSV record sets;
a failed dataset is recorded and skipped, never aborting the batch.

With --runlog, per-dataset outcomes persist to SQLite and --resume
skips datasets a previous run already completed.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveBatchConfig(cmd, configPath, flagCfg)
			if err != nil {
				return err
			}
			return runBatch(rootOpts, cfg, datasets, strict, resume, cmd)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (flags override it)")
	cmd.Flags().StringVar(&flagCfg.DataDir, "data-dir", ".", "directory containing dataset roots")
	cmd.Flags().StringVar(&flagCfg.OutDir, "out", flagCfg.OutDir, "directory for per-dataset CSV output")
	cmd.Flags().IntVar(&flagCfg.Workers, "workers", flagCfg.Workers, "concurrent dataset workers")
	cmd.Flags().StringVar(&flagCfg.RunLog, "runlog", "", "SQLite run log path (empty disables)")
	cmd.Flags().StringSliceVar(&datasets, "datasets", nil, "explicit dataset IDs (default: discover ds* directories)")
	cmd.Flags().BoolVar(&resume, "resume", false, "skip datasets already completed in the run log")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit nonzero if any dataset failed")

	return cmd
}

// resolveBatchConfig merges an optional config file with flag values.
// Flags the user actually set win over the file.
func resolveBatchConfig(cmd *cobra.Command, configPath string, flagCfg config.Config) (config.Config, error) {
	cfg := flagCfg
	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			return cfg, WrapExitError(ExitCommandError, "loading config", err)
		}
		if cmd.Flags().Changed("data-dir") {
			fileCfg.DataDir = flagCfg.DataDir
		}
		if cmd.Flags().Changed("out") {
			fileCfg.OutDir = flagCfg.OutDir
		}
		if cmd.Flags().Changed("workers") {
			fileCfg.Workers = flagCfg.Workers
		}
		if cmd.Flags().Changed("runlog") {
			fileCfg.RunLog = flagCfg.RunLog
		}
		cfg = fileCfg
	}
	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

func runBatch(opts *RootOptions, cfg config.Config, datasets []string, strict, resume bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if len(datasets) == 0 {
		discovered, err := runner.DiscoverDatasets(cfg.DataDir)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "discovering datasets", err)
		}
		datasets = discovered
	}
	if len(datasets) == 0 {
		_ = formatter.Error(ErrCodeConfig, fmt.Sprintf("no datasets found under %s", cfg.DataDir), nil)
		return NewExitError(ExitCommandError, "no datasets to process")
	}
	formatter.VerboseLog("Processing %d dataset(s) with %d worker(s)", len(datasets), cfg.Workers)

	var log *runlog.Log
	if cfg.RunLog != "" {
		var err error
		log, err = runlog.Open(cfg.RunLog)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "opening run log", err)
		}
		defer log.Close()
	}

	summary, err := runner.Run(cmd.Context(), runner.Options{
		Datasets:     datasets,
		DataDir:      cfg.DataDir,
		OutDir:       cfg.OutDir,
		Workers:      cfg.Workers,
		RestPrefixes: cfg.RestPrefixes,
		Log:          log,
		Resume:       resume,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeProcess, err.Error(), nil)
		return WrapExitError(ExitCommandError, "batch run failed", err)
	}

	if err := outputBatchSummary(formatter, summary); err != nil {
		return err
	}
	if strict && len(summary.Failures) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d dataset(s) failed", len(summary.Failures)))
	}
	return nil
}

func outputBatchSummary(formatter *OutputFormatter, summary *runner.Summary) error {
	result := BatchResult{
		RunID:     summary.RunID,
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Skipped:   summary.Skipped,
		Failures:  summary.Failures,
		ElapsedMS: summary.Elapsed.Milliseconds(),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	mark := "✓"
	if len(result.Failures) > 0 {
		mark = "✗"
	}
	fmt.Fprintf(formatter.Writer, "%s run %s: %d processed, %d succeeded, %d skipped, %d failed (%s)\n",
		mark, result.RunID, result.Processed, result.Succeeded, result.Skipped,
		len(result.Failures), summary.Elapsed.Round(summaryRound))
	for _, f := range result.Failures {
		fmt.Fprintf(formatter.Writer, "  %s at %s: %s\n", f.DatasetID, f.Stage, f.Message)
	}
	return nil
}
